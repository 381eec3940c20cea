package orchestrator_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/lineitems"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
)

func sourcedDishesForm() *model.FormDefinition {
	return &model.FormDefinition{
		ID:              "sourced",
		DefaultLanguage: "en",
		Questions: []model.QuestionDefinition{{
			ID:   "dishes",
			Type: model.QuestionTypeLineItemGroup,
			LineItemConfig: &model.LineItemGroupConfig{
				AddMode:       model.AddModeAuto,
				AnchorFieldID: "dish",
				Fields: []model.QuestionDefinition{
					{ID: "dish", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: "dishes.yaml"}},
					{ID: "portions", Type: model.QuestionTypeNumber},
				},
			},
		}},
	}
}

func TestLoadKeepsSavedRowsUntilOptionsArrive(t *testing.T) {
	t.Parallel()

	store := optionsource.NewStore()
	orch := orchestrator.New(sourcedDishesForm(),
		orchestrator.WithIDGenerator(lineitems.NewCounter("row")),
		orchestrator.WithOptionStore(store),
	)
	saved := orchestrator.State{LineItems: model.LineItems{"dishes": {
		{ID: "saved-1", Values: model.Values{"dish": "Soup", "portions": 12.0, model.RowSourceKey: model.RowSourceAuto}},
	}}}

	state, out, err := orch.Load(saved)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(saved.LineItems["dishes"], state.LineItems["dishes"]); diff != "" {
		t.Fatalf("rows must survive while options are pending (-want +got):\n%s", diff)
	}
	if len(out.Targets) != 0 {
		t.Fatalf("nothing should change before options arrive, got %v", out.Targets)
	}

	store.Put("dish", "dishes", model.OptionSet{Values: []string{"Soup", "Stew"}})
	state, _, err = orch.Load(state)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []model.Row{
		{
			ID:              "saved-1",
			Values:          model.Values{"dish": "Soup", "portions": 12.0, model.RowSourceKey: model.RowSourceAuto},
			AutoGenerated:   true,
			EffectContextID: "auto|dishes|[]",
		},
		autoRow("row-1", "Stew", "auto|dishes|[]"),
	}
	if diff := cmp.Diff(want, state.LineItems["dishes"]); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func flaggedDishesForm() *model.FormDefinition {
	return &model.FormDefinition{
		ID:              "flagged",
		DefaultLanguage: "en",
		Questions: []model.QuestionDefinition{
			{ID: "service", Type: model.QuestionTypeChoice, Options: &model.OptionSet{Values: []string{"Lunch", "Dinner"}}},
			{
				ID:   "dishes",
				Type: model.QuestionTypeLineItemGroup,
				LineItemConfig: &model.LineItemGroupConfig{
					AddMode:       model.AddModeAuto,
					AnchorFieldID: "dish",
					Fields: []model.QuestionDefinition{
						{
							ID:      "dish",
							Type:    model.QuestionTypeChoice,
							Options: &model.OptionSet{Values: []string{"Soup", "Stew"}},
							OptionFilter: &model.OptionFilter{
								DependsOn: []string{"service"},
								OptionMap: map[string][]string{"Lunch": {"Soup"}, "Dinner": {"Stew"}},
								Exclusive: true,
							},
						},
						{
							ID:      "flag",
							Type:    model.QuestionTypeChoice,
							Options: &model.OptionSet{Values: []string{"yes", "no"}},
							SelectionEffects: []model.SelectionEffect{{
								ID:            "chk",
								Type:          model.EffectAddLineItems,
								GroupID:       "checks",
								TriggerValues: []string{"yes"},
								Preset:        model.Values{"dish": "$row.dish"},
							}},
						},
					},
				},
			},
			{
				ID:   "checks",
				Type: model.QuestionTypeLineItemGroup,
				LineItemConfig: &model.LineItemGroupConfig{
					AddMode: model.AddModeManual,
					Fields:  []model.QuestionDefinition{{ID: "dish", Type: model.QuestionTypeText}},
				},
			},
		},
	}
}

func TestReconcilerDropRetractsRowEffects(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New(flaggedDishesForm(), orchestrator.WithIDGenerator(lineitems.NewCounter("row")))

	state, _, err := orch.SetValue(orchestrator.State{}, orchestrator.Change{FieldID: "service", Value: "Lunch"})
	if err != nil {
		t.Fatalf("set service: %v", err)
	}
	state, _, err = orch.SetValue(state, orchestrator.Change{GroupKey: "dishes", RowID: "row-1", FieldID: "flag", Value: "yes"})
	if err != nil {
		t.Fatalf("set flag: %v", err)
	}
	checks := state.LineItems["checks"]
	if len(checks) != 1 || checks[0].EffectContextID != "dishes|row-1|flag|chk" || checks[0].Values["dish"] != "Soup" {
		t.Fatalf("expected one effect row from row-1, got %+v", checks)
	}

	state, out, err := orch.SetValue(state, orchestrator.Change{FieldID: "service", Value: "Dinner"})
	if err != nil {
		t.Fatalf("set service: %v", err)
	}
	if diff := cmp.Diff([]string{"row-3=Stew"}, rowDishes(state.LineItems["dishes"])); diff != "" {
		t.Fatalf("dishes mismatch (-want +got):\n%s", diff)
	}
	if rows := state.LineItems["checks"]; len(rows) != 0 {
		t.Fatalf("effect rows of a dropped auto row must be retracted, got %+v", rows)
	}
	touched := false
	for _, key := range out.Targets {
		touched = touched || key == "checks"
	}
	if !touched {
		t.Fatalf("expected checks among touched targets, got %v", out.Targets)
	}
}

func rowDishes(rows []model.Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID+"="+model.ValueString(row.Values["dish"]))
	}
	return out
}
