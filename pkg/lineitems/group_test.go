package lineitems

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

func mealsConfig() *model.LineItemGroupConfig {
	return &model.LineItemGroupConfig{
		AddMode: model.AddModeManual,
		Fields: []model.QuestionDefinition{
			{ID: "dish", Type: model.QuestionTypeChoice},
		},
		SubGroups: []model.SubGroupConfig{{
			ID: "portions",
			LineItemGroupConfig: model.LineItemGroupConfig{
				AddMode:         model.AddModeAuto,
				AnchorFieldID:   "size",
				SectionSelector: &model.QuestionDefinition{ID: "container", Type: model.QuestionTypeChoice},
				Fields: []model.QuestionDefinition{{
					ID:      "size",
					Type:    model.QuestionTypeChoice,
					Options: &model.OptionSet{Values: []string{"small", "large"}},
					OptionFilter: &model.OptionFilter{
						DependsOn: []string{"dish", "service"},
						OptionMap: map[string][]string{
							"soup||lunch":  {"small", "large"},
							"bread||lunch": {"small"},
						},
						Exclusive: true,
					},
				}},
			},
		}},
	}
}

func TestReconcileGroupSubGroupsPerParentRow(t *testing.T) {
	t.Parallel()

	orphan := model.InstanceKey("meals", "gone", "portions")
	in := GroupInput{
		GroupID: "meals",
		Config:  mealsConfig(),
		Values:  model.Values{"service": "lunch"},
		LineItems: model.LineItems{
			"meals": {
				{ID: "p1", Values: model.Values{"dish": "soup", "container": "jar"}},
				{ID: "p2", Values: model.Values{"dish": "bread"}},
				{ID: "p3", Values: model.Values{"dish": ""}},
			},
			orphan: {{ID: "o1", Values: model.Values{"size": "small"}}},
		},
		IDs: NewCounter("row"),
	}

	res := ReconcileGroup(in)
	if !res.Changed {
		t.Fatalf("expected change")
	}
	want := []string{
		model.InstanceKey("meals", "p1", "portions"),
		model.InstanceKey("meals", "p2", "portions"),
		orphan,
	}
	if diff := cmp.Diff(want, res.Targets); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}

	p1 := res.LineItems[model.InstanceKey("meals", "p1", "portions")]
	if len(p1) != 2 || p1[0].Values["size"] != "small" || p1[1].Values["size"] != "large" || p1[0].Values["container"] != "jar" {
		t.Fatalf("unexpected p1 rows %+v", p1)
	}
	p2 := res.LineItems[model.InstanceKey("meals", "p2", "portions")]
	if len(p2) != 1 || p2[0].Values["size"] != "small" {
		t.Fatalf("unexpected p2 rows %+v", p2)
	}
	if _, ok := res.LineItems[model.InstanceKey("meals", "p3", "portions")]; ok {
		t.Fatalf("incomplete parent row must not get sub rows")
	}
	if _, ok := res.LineItems[orphan]; ok {
		t.Fatalf("orphan instance must be dropped")
	}
	if diff := cmp.Diff(map[string][]string{orphan: {"o1"}}, res.Dropped); diff != "" {
		t.Fatalf("dropped mismatch (-want +got):\n%s", diff)
	}
	if _, ok := in.LineItems[orphan]; !ok {
		t.Fatalf("input line items mutated")
	}

	in.LineItems = res.LineItems
	again := ReconcileGroup(in)
	if again.Changed {
		t.Fatalf("second pass must be a no-op, targets %v", again.Targets)
	}
}

func TestReconcileGroupTopLevelAuto(t *testing.T) {
	t.Parallel()

	anchor := itemAnchor()
	cfg := &model.LineItemGroupConfig{
		AddMode:         model.AddModeAuto,
		AnchorFieldID:   "item",
		SectionSelector: &model.QuestionDefinition{ID: "service", Type: model.QuestionTypeChoice},
		Fields:          []model.QuestionDefinition{anchor, {ID: "qty", Type: model.QuestionTypeNumber}},
	}
	loaded := &model.OptionSet{Values: []string{"b", "c"}}
	res := ReconcileGroup(GroupInput{
		GroupID: "stock",
		Config:  cfg,
		Values:  model.Values{"production": "D1", "service": "dinner"},
		Options: func(field model.QuestionDefinition, instanceKey string) *model.OptionSet {
			if field.ID == "item" && instanceKey == "stock" {
				return loaded
			}
			return field.Options
		},
		IDs: NewCounter("auto"),
	})
	if diff := cmp.Diff([]string{"auto-1=b", "auto-2=c"}, anchors(res.LineItems["stock"])); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.LineItems["stock"][0].Values["service"] != "dinner" {
		t.Fatalf("selector not pre-filled: %+v", res.LineItems["stock"][0])
	}
}

func TestAddOverlayRows(t *testing.T) {
	t.Parallel()

	rows := []model.Row{{ID: "m1", Values: model.Values{"item": "a"}}}
	res := AddOverlayRows(rows, []string{"a", "b", " ", "b", "c"}, OverlayConfig{
		AnchorFieldID:        "item",
		SectionSelectorID:    "service",
		SectionSelectorValue: "lunch",
		IDs:                  NewCounter("ov"),
	})
	if diff := cmp.Diff([]string{"m1=a", "ov-1=b", "ov-2=c"}, anchors(res.Rows)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.Rows[1].AutoGenerated || res.Rows[1].Source() != model.RowSourceManual || res.Rows[1].Values["service"] != "lunch" {
		t.Fatalf("overlay row must be manual with selector: %+v", res.Rows[1])
	}
	if len(rows) != 1 {
		t.Fatalf("input rows mutated")
	}

	none := AddOverlayRows(res.Rows, []string{"a"}, OverlayConfig{AnchorFieldID: "item"})
	if none.Changed {
		t.Fatalf("selecting present values must be a no-op")
	}
}

func TestIDGenerators(t *testing.T) {
	t.Parallel()

	c := NewCounter("row")
	if c.NewID() != "row-1" || c.NewID() != "row-2" {
		t.Fatalf("counter not sequential")
	}
	u := NewUUIDs()
	a, b := u.NewID(), u.NewID()
	if a == b || len(a) != 36 {
		t.Fatalf("unexpected uuids %q %q", a, b)
	}
	if IDFunc(func() string { return "x" }).NewID() != "x" {
		t.Fatalf("IDFunc did not delegate")
	}
}
