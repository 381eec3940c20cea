package definition

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

func choice(id string, values ...string) model.QuestionDefinition {
	return model.QuestionDefinition{ID: id, Type: model.QuestionTypeChoice, Options: &model.OptionSet{Values: values}}
}

func TestLintCleanDefinition(t *testing.T) {
	t.Parallel()

	show := model.Equal("service", "Dinner")
	def := &model.FormDefinition{
		ID: "ok",
		Questions: []model.QuestionDefinition{
			choice("service", "Lunch", "Dinner"),
			{ID: "notes", Type: model.QuestionTypeParagraph, Visibility: &model.Visibility{ShowWhen: &show}},
			{
				ID:   "dishes",
				Type: model.QuestionTypeLineItemGroup,
				LineItemConfig: &model.LineItemGroupConfig{
					AddMode:       model.AddModeAuto,
					AnchorFieldID: "dish",
					Fields: []model.QuestionDefinition{
						func() model.QuestionDefinition {
							q := choice("dish", "Soup", "Stew")
							q.OptionFilter = &model.OptionFilter{DependsOn: []string{"service"}}
							return q
						}(),
					},
					SubGroups: []model.SubGroupConfig{{
						ID: "ingredients",
						LineItemGroupConfig: model.LineItemGroupConfig{
							AddMode: model.AddModeManual,
							Fields:  []model.QuestionDefinition{{ID: "ingredient", Type: model.QuestionTypeText}},
						},
					}},
				},
			},
		},
	}
	if issues := Lint(def); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestLintReportsStructuralIssues(t *testing.T) {
	t.Parallel()

	when := model.Condition{Op: "between", Field: "ghost"}
	def := &model.FormDefinition{
		ID: "bad",
		Questions: []model.QuestionDefinition{
			{ID: "", Type: model.QuestionTypeText},
			{
				ID:   "status",
				Type: "SLIDER",
				ValidationRules: []model.ValidationRule{{
					When: &when,
					Then: model.RuleThen{FieldID: "nowhere"},
				}},
				SelectionEffects: []model.SelectionEffect{{Type: model.EffectAddLineItems, GroupID: "missing"}},
			},
			{ID: "orphan", Type: model.QuestionTypeLineItemGroup},
			{
				ID:   "rows",
				Type: model.QuestionTypeLineItemGroup,
				LineItemConfig: &model.LineItemGroupConfig{
					AddMode:       model.AddModeAuto,
					AnchorFieldID: "name",
					Fields:        []model.QuestionDefinition{{ID: "name", Type: model.QuestionTypeText}},
				},
			},
		},
	}

	want := []Issue{
		{Path: "questions[0]", Message: "id is empty"},
		{Path: "questions[status]", Message: `unknown question type "SLIDER"`},
		{Path: "questions[status].validationRules[0].when", Message: `unknown operator "between"`},
		{Path: "questions[status].validationRules[0].when", Message: `unknown field "ghost"`},
		{Path: "questions[status].validationRules[0].then.fieldId", Message: `unknown field "nowhere"`},
		{Path: "questions[status].selectionEffects[0]", Message: `target group "missing" does not exist`},
		{Path: "questions[orphan]", Message: "line item group has no lineItemConfig"},
		{Path: "questions[rows]", Message: `anchor field "name" must be a CHOICE or CHECKBOX question`},
	}
	if diff := cmp.Diff(want, Lint(def)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestLintGroupAnchorsAndNesting(t *testing.T) {
	t.Parallel()

	deep := model.SubGroupConfig{ID: "deep", LineItemGroupConfig: model.LineItemGroupConfig{
		Fields: []model.QuestionDefinition{{ID: "x", Type: model.QuestionTypeText}},
	}}
	def := &model.FormDefinition{
		ID: "nest",
		Questions: []model.QuestionDefinition{{
			ID:   "parent",
			Type: model.QuestionTypeLineItemGroup,
			LineItemConfig: &model.LineItemGroupConfig{
				AddMode: model.AddModeOverlay,
				Fields:  []model.QuestionDefinition{choice("pick", "a")},
				SubGroups: []model.SubGroupConfig{{
					ID: "child",
					LineItemGroupConfig: model.LineItemGroupConfig{
						AddMode:       "sometimes",
						AnchorFieldID: "absent",
						Fields:        []model.QuestionDefinition{{ID: "y", Type: model.QuestionTypeText}},
						SubGroups:     []model.SubGroupConfig{deep},
					},
				}},
			},
		}},
	}

	want := []Issue{
		{Path: "questions[parent]", Message: "overlay group requires anchorFieldId"},
		{Path: "questions[parent].subGroups[child]", Message: `unknown addMode "sometimes"`},
		{Path: "questions[parent].subGroups[child]", Message: "sub-groups nest at most one level"},
	}
	if diff := cmp.Diff(want, Lint(def)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestLintNilDefinition(t *testing.T) {
	t.Parallel()

	if issues := Lint(nil); len(issues) != 1 {
		t.Fatalf("expected one issue for nil definition, got %v", issues)
	}
}
