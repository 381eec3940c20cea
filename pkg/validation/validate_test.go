package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

func cond(c model.Condition) *model.Condition {
	return &c
}

func productionForm() *model.FormDefinition {
	return &model.FormDefinition{
		ID:              "production",
		Languages:       []string{"en", "fr"},
		DefaultLanguage: "en",
		Questions: []model.QuestionDefinition{
			{ID: "cook", Type: model.QuestionTypeText, Label: model.LocalizedText{"en": "Cook", "fr": "Cuisinier"}, Required: true},
			{ID: "type", Type: model.QuestionTypeChoice, Required: true},
			{
				ID:         "allergenNote",
				Type:       model.QuestionTypeParagraph,
				Required:   true,
				Visibility: &model.Visibility{ShowWhen: cond(model.Equal("type", "special"))},
			},
			{
				ID:   "portions",
				Type: model.QuestionTypeNumber,
				ValidationRules: []model.ValidationRule{
					{
						ID:   "portions-max",
						When: cond(model.Condition{Op: model.OpGreaterThan, Field: "portions", Value: 1000}),
						Then: model.RuleThen{Message: model.LocalizedText{"en": "{{ label }} cannot exceed 1,000 (got {{ value|number }})."}},
					},
					{
						ID:    "portions-missing",
						When:  cond(model.Empty("portions")),
						Then:  model.RuleThen{Message: model.LocalizedText{"en": "Portions are needed before submitting."}},
						Phase: model.PhaseSubmit,
					},
				},
			},
			{
				ID:         "leftovers",
				Type:       model.QuestionTypeLineItemGroup,
				Visibility: &model.Visibility{HideWhen: cond(model.Equal("type", "closed"))},
				LineItemConfig: &model.LineItemGroupConfig{
					Fields: []model.QuestionDefinition{
						{ID: "dish", Type: model.QuestionTypeChoice, Required: true},
						{
							ID:         "allergens",
							Type:       model.QuestionTypeCheckbox,
							Required:   true,
							Visibility: &model.Visibility{HideWhen: cond(model.Equal("status", "discarded"))},
						},
						{ID: "status", Type: model.QuestionTypeChoice},
					},
					SubGroups: []model.SubGroupConfig{{
						ID: "containers",
						LineItemGroupConfig: model.LineItemGroupConfig{
							Fields: []model.QuestionDefinition{
								{ID: "weight", Type: model.QuestionTypeNumber, Required: true},
							},
						},
					}},
				},
			},
		},
	}
}

func paths(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, string(err.Kind)+" "+err.Path)
	}
	return out
}

func TestValidateSweep(t *testing.T) {
	t.Parallel()

	def := productionForm()
	values := model.Values{"type": "regular", "portions": 1500.0}
	lineItems := model.LineItems{
		"leftovers": {
			{ID: "r1", Values: model.Values{"dish": "soup", "allergens": []any{}}},
			{ID: "r2", Values: model.Values{"status": "discarded"}},
		},
		model.InstanceKey("leftovers", "r1", "containers"): {
			{ID: "c1", Values: model.Values{"weight": 0.0}},
			{ID: "c2", Values: model.Values{"weight": ""}},
		},
	}

	errs := Validate(def, values, lineItems)
	want := []string{
		"required cook",
		"rule portions",
		"required leftovers[r1].allergens",
		"required leftovers[r1].containers[c2].weight",
		"required leftovers[r2].dish",
	}
	if diff := cmp.Diff(want, paths(errs)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	if errs[0].Message != "Cook is required." {
		t.Fatalf("unexpected required message %q", errs[0].Message)
	}
	if errs[1].Message != "portions cannot exceed 1,000 (got 1,500)." || errs[1].RuleID != "portions-max" {
		t.Fatalf("unexpected rule error %+v", errs[1])
	}
	sub := errs[3]
	if sub.GroupID != "containers" || sub.RowID != "c2" || sub.FieldID != "weight" {
		t.Fatalf("unexpected sub-group error %+v", sub)
	}
}

func TestValidateHiddenFieldsNeverFail(t *testing.T) {
	t.Parallel()

	def := productionForm()
	// leftovers is hidden, so its empty required checkbox rows pass.
	values := model.Values{"cook": "Ana", "type": "closed", "portions": 10}
	lineItems := model.LineItems{
		"leftovers": {{ID: "r1", Values: model.Values{}}},
	}

	if errs := Validate(def, values, lineItems); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", paths(errs))
	}

	// allergenNote is required but hidden unless type is special.
	values["type"] = "special"
	errs := Validate(def, values, nil)
	if diff := cmp.Diff([]string{"required allergenNote"}, paths(errs)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRowScopedHiddenRequiredCheckbox(t *testing.T) {
	t.Parallel()

	def := productionForm()
	values := model.Values{"cook": "Ana", "type": "regular", "portions": 1}
	lineItems := model.LineItems{
		"leftovers": {{ID: "r1", Values: model.Values{"dish": "soup", "status": "discarded", "allergens": nil}}},
	}
	for _, err := range Validate(def, values, lineItems) {
		if err.FieldID == "allergens" {
			t.Fatalf("hidden row checkbox reported: %+v", err)
		}
	}
}

func TestValidateRulesPhaseGating(t *testing.T) {
	t.Parallel()

	q, _ := productionForm().Question("portions")
	ctx := staticContext{values: model.Values{}}

	change := ValidateRules(q.ValidationRules, ctx, model.PhaseChange)
	if len(change) != 0 {
		t.Fatalf("submit-only rule fired in change phase: %v", paths(change))
	}

	submit := ValidateRules(q.ValidationRules, ctx, model.PhaseSubmit)
	if diff := cmp.Diff([]string{"rule "}, paths(submit)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	rules := []model.ValidationRule{{
		When: cond(model.Empty("portions")),
		Then: model.RuleThen{FieldID: "portions", Message: model.LocalizedText{"en": "missing"}},
	}}
	hidden := staticContext{values: model.Values{}, hidden: map[string]bool{"portions": true}}
	if errs := ValidateRules(rules, hidden, model.PhaseSubmit); len(errs) != 0 {
		t.Fatalf("rule targeting hidden field fired: %v", paths(errs))
	}
}

func TestValidateRulesMalformedConditionNeverFires(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{{
		When: &model.Condition{Op: "matches", Field: "cook"},
		Then: model.RuleThen{FieldID: "cook", Message: model.LocalizedText{"en": "bad"}},
	}}
	if errs := ValidateRules(rules, staticContext{values: model.Values{"cook": "x"}}, model.PhaseSubmit); len(errs) != 0 {
		t.Fatalf("malformed rule fired: %v", paths(errs))
	}
}

func TestCheckRequiredLocalized(t *testing.T) {
	t.Parallel()

	fields := []model.QuestionDefinition{
		{ID: "cook", Label: model.LocalizedText{"en": "Cook", "fr": "Cuisinier"}, Required: true},
		{ID: "count", Required: true},
		{ID: "done", Required: true},
	}
	ctx := staticContext{values: model.Values{"count": 0, "done": false}}

	errs := CheckRequired(fields, ctx, WithLanguage("fr", "en"))
	if len(errs) != 1 || errs[0].Message != "Cuisinier est obligatoire." {
		t.Fatalf("unexpected errors %+v", errs)
	}

	errs = CheckRequired(fields, ctx, WithLanguage("nl", "en"))
	if errs[0].Message != "Cook is verplicht." {
		t.Fatalf("unexpected nl message %q", errs[0].Message)
	}
}

func TestGroupByPath(t *testing.T) {
	t.Parallel()

	errs := []ValidationError{
		{Path: "cook", Message: "Cook is required."},
		{Path: "cook", Message: " Cook is required. "},
		{Path: "meals[r1].dish", Message: "Pick a dish."},
		{Path: "meals[r1].dish", Message: "Dish is retired."},
		{Path: "empty", Message: "  "},
	}
	want := map[string][]string{
		"cook":           {"Cook is required."},
		"meals[r1].dish": {"Pick a dish.", "Dish is retired."},
	}
	if diff := cmp.Diff(want, GroupByPath(errs)); diff != "" {
		t.Fatalf("grouped mismatch (-want +got):\n%s", diff)
	}
	if GroupByPath(nil) != nil {
		t.Fatalf("expected nil for no errors")
	}
}

func TestFormatterRender(t *testing.T) {
	t.Parallel()

	f := NewFormatter(WithRequiredMessages(model.LocalizedText{"en": "Please fill {{ label }}"}))
	cases := []struct {
		text string
		data MessageData
		want string
	}{
		{text: "plain text", want: "plain text"},
		{text: "{{ label }} & co", data: MessageData{FieldID: "fish", Label: "Fish & Chips"}, want: "Fish & Chips & co"},
		{text: "{{ label }}", data: MessageData{FieldID: "fish"}, want: "fish"},
		{text: "{{ value|number }}", data: MessageData{Value: 1234567.891}, want: "1,234,567.89"},
		{text: "{{ value|number }}", data: MessageData{Value: "2500"}, want: "2,500"},
		{text: "{{ value }}", data: MessageData{Value: []any{"a", "b"}}, want: "a, b"},
		{text: "{% if %}", want: "{% if %}"},
	}
	for _, tc := range cases {
		if got := f.Render(tc.text, tc.data); got != tc.want {
			t.Fatalf("Render(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}

	if got := f.Required("en", "", MessageData{Label: "Cook"}); got != "Please fill Cook" {
		t.Fatalf("unexpected required override %q", got)
	}
	if got := f.Required("fr", "", MessageData{Label: "Cuisinier"}); got != "Cuisinier est obligatoire." {
		t.Fatalf("unexpected fr required %q", got)
	}
}

type staticContext struct {
	values model.Values
	hidden map[string]bool
}

func (c staticContext) GetValue(fieldID string) any {
	return c.values.Get(fieldID)
}

func (c staticContext) IsHidden(fieldID string) bool {
	return c.hidden[fieldID]
}
