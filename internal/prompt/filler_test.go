package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/lineitems"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	inputErr     error
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputErr != nil {
		return "", s.inputErr
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func prepForm() *model.FormDefinition {
	return &model.FormDefinition{
		ID:              "prep",
		DefaultLanguage: "en",
		Questions: []model.QuestionDefinition{
			{ID: "site", Type: model.QuestionTypeText, Required: true, Label: model.LocalizedText{"en": "Site"}},
			{ID: "service", Type: model.QuestionTypeChoice, Label: model.LocalizedText{"en": "Service"}, Options: &model.OptionSet{Values: []string{"Lunch", "Dinner"}}},
			{
				ID:         "notes",
				Type:       model.QuestionTypeParagraph,
				Visibility: &model.Visibility{ShowWhen: &model.Condition{Expr: `service == "Dinner"`}},
			},
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
							Options: &model.OptionSet{Values: []string{"Soup", "Stew", "Salad"}},
							OptionFilter: &model.OptionFilter{
								DependsOn: []string{"service"},
								OptionMap: map[string][]string{"Lunch": {"Soup", "Salad"}, "Dinner": {"Stew"}},
							},
						},
						{
							ID:    "portions",
							Type:  model.QuestionTypeNumber,
							Label: model.LocalizedText{"en": "Portions"},
							ValidationRules: []model.ValidationRule{{
								When:  &model.Condition{Expr: "portions > 50"},
								Then:  model.RuleThen{Message: model.LocalizedText{"en": "Too many portions."}},
								Phase: model.PhaseChange,
							}},
						},
					},
				},
			},
			{
				ID:    "requests",
				Type:  model.QuestionTypeLineItemGroup,
				Label: model.LocalizedText{"en": "Requests"},
				LineItemConfig: &model.LineItemGroupConfig{
					AddMode: model.AddModeManual,
					Fields:  []model.QuestionDefinition{{ID: "topic", Type: model.QuestionTypeText}},
				},
			},
		},
	}
}

func TestFillWalksFormInOrder(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New(prepForm(), orchestrator.WithIDGenerator(lineitems.NewCounter("row")))
	driver := &stubDriver{
		inputs:    []string{"North", "abc", "12", "80", "Allergies"},
		selectIdx: []int{0},
		confirm:   []bool{true, false},
	}
	filler, err := New(orch, WithDriver(driver))
	if err != nil {
		t.Fatalf("new filler: %v", err)
	}

	state, err := filler.Fill(context.Background(), orchestrator.State{})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff(model.Values{"site": "North", "service": "Lunch"}, state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	var portions []any
	for _, row := range state.LineItems["dishes"] {
		portions = append(portions, row.Values["portions"])
	}
	if diff := cmp.Diff([]any{12.0, 80.0}, portions); diff != "" {
		t.Fatalf("portions mismatch (-want +got):\n%s", diff)
	}
	requests := state.LineItems["requests"]
	if len(requests) != 1 || requests[0].Values["topic"] != "Allergies" {
		t.Fatalf("unexpected request rows: %+v", requests)
	}

	wantInfo := []string{`Invalid Portions: "abc" is not a number`, "Portions: Too many portions."}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != 5 || driver.selectPos != 1 || driver.confirmPos != 2 || driver.textPos != 0 {
		t.Fatalf("prompts not consumed as expected")
	}
}

func TestFillStopsOnAbort(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New(prepForm())
	filler, err := New(orch, WithDriver(&stubDriver{inputErr: ErrAborted}))
	if err != nil {
		t.Fatalf("new filler: %v", err)
	}
	if _, err := filler.Fill(context.Background(), orchestrator.State{}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestNewRequiresOrchestrator(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil orchestrator")
	}
}

func TestTables(t *testing.T) {
	t.Parallel()

	errs := []validation.ValidationError{{
		Kind:    validation.KindRequired,
		Path:    "dishes[row-1].portions",
		Message: "Portions is required.",
	}}
	out := ErrorTable(errs)
	for _, want := range []string{"VALIDATION SUMMARY", "dishes[row-1].portions", "Portions is required."} {
		if !strings.Contains(out, want) {
			t.Fatalf("error table missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(ErrorTable(nil), "no errors") {
		t.Fatalf("empty error table should say so")
	}

	orch := orchestrator.New(prepForm())
	view, err := orch.View(orchestrator.State{Values: model.Values{"site": "North", "notes": "hidden text"}})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	values := ValueTable(view)
	if !strings.Contains(values, "North") {
		t.Fatalf("value table missing site:\n%s", values)
	}
	if strings.Contains(values, "hidden text") {
		t.Fatalf("value table should skip hidden fields:\n%s", values)
	}
}
