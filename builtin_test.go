package kitchenforms

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/definition"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/lineitems"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/testsupport"
)

func TestBuiltinFormsLintClean(t *testing.T) {
	t.Parallel()

	store, err := LoadDefinitions(FormsFS(), definition.WithLint())
	if err != nil {
		t.Fatalf("load builtin forms: %v", err)
	}
	if diff := cmp.Diff([]string{"delivery-log", "kitchen-prep"}, store.IDs()); diff != "" {
		t.Fatalf("form ids mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenBuiltinDeliveryLog(t *testing.T) {
	t.Parallel()

	ctx := testsupport.Context()
	orch, err := OpenBuiltin(ctx, "delivery-log", "", orchestrator.WithIDGenerator(lineitems.NewCounter("row")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := orch.OptionStore().Get("supplier", "deliveries"); !ok {
		t.Fatalf("expected supplier options to be fetched")
	}

	state, _, err := orch.SetValue(State{}, Change{GroupKey: "deliveries", FieldID: "category", Value: "Fresh"})
	if err != nil {
		t.Fatalf("set category: %v", err)
	}
	state, _, err = orch.AddRows(state, "deliveries", []string{"Greengrocer"})
	if err != nil {
		t.Fatalf("add rows: %v", err)
	}
	state, _, err = orch.SetValue(state, Change{GroupKey: "deliveries", RowID: "row-1", FieldID: "temperature", Value: 7.0})
	if err != nil {
		t.Fatalf("set temperature: %v", err)
	}

	view, err := orch.View(state)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	supplier, ok := view.Field("deliveries[row-1].supplier")
	if !ok {
		t.Fatalf("supplier field missing from view")
	}
	var values []string
	for _, opt := range supplier.Options {
		values = append(values, opt.Value)
	}
	if diff := cmp.Diff([]string{"Dairy", "Greengrocer"}, values); diff != "" {
		t.Fatalf("supplier options mismatch (-want +got):\n%s", diff)
	}

	errs, err := orch.Validate(state, model.PhaseSubmit)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	type row struct{ Path, Message string }
	var got []row
	for _, e := range errs {
		got = append(got, row{e.Path, e.Message})
	}
	want := []row{
		{"received_by", "Received by is required."},
		{"deliveries[row-1].accepted", "Accepted is required."},
		{"deliveries[row-1].temperature", "Temperature (°C) above 5, reject the delivery."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("validation mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenBuiltinKitchenPrep(t *testing.T) {
	t.Parallel()

	orch, err := OpenBuiltin(context.Background(), "kitchen-prep", "fr", orchestrator.WithIDGenerator(lineitems.NewCounter("row")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	state := State{}
	for _, change := range []Change{
		{FieldID: "service", Value: "Lunch"},
		{FieldID: "headcount", Value: 40.0},
		{GroupKey: "dishes", RowID: "row-1", FieldID: "allergens", Value: []any{"Gluten"}},
	} {
		if state, _, err = orch.SetValue(state, change); err != nil {
			t.Fatalf("set %s: %v", change.FieldID, err)
		}
	}

	var dishes []string
	for _, r := range state.LineItems["dishes"] {
		dishes = append(dishes, model.ValueString(r.Values["dish"]))
		if r.Values["portions"] != 40.0 {
			t.Fatalf("expected portions copied from headcount, got %v", r.Values["portions"])
		}
	}
	if diff := cmp.Diff([]string{"Soup", "Salad"}, dishes); diff != "" {
		t.Fatalf("dishes mismatch (-want +got):\n%s", diff)
	}

	testsupport.AssertGoldenState(t, "testdata/kitchen-prep-lunch.golden.json", state)

	checks := state.LineItems[model.InstanceKey("dishes", "row-1", "checks")]
	if len(checks) != 1 || checks[0].Values["allergen"] != "Gluten" {
		t.Fatalf("expected one allergen check row, got %+v", checks)
	}

	errs, err := orch.Validate(state, model.PhaseSubmit)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var messages []string
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	want := []string{"Site est obligatoire.", "Étiquette vérifiée est obligatoire."}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenUnknownForm(t *testing.T) {
	t.Parallel()

	if _, err := OpenBuiltin(context.Background(), "missing", ""); err == nil {
		t.Fatalf("expected error for unknown form")
	}
}
