package optionsource

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

func TestStoreFallsBackToFieldDefault(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Put("dish", "", model.OptionSet{Values: []string{"soup"}})
	store.Put("dish", "meals", model.OptionSet{Values: []string{"stew"}})

	got, ok := store.Get("dish", "meals")
	if !ok || got.Values[0] != "stew" {
		t.Fatalf("expected instance set, got %+v (ok=%v)", got, ok)
	}
	got, ok = store.Get("dish", "meals::r1::extras")
	if !ok || got.Values[0] != "soup" {
		t.Fatalf("expected fallback set, got %+v (ok=%v)", got, ok)
	}
	if _, ok := store.Get("side", ""); ok {
		t.Fatalf("expected no options yet for side")
	}

	store.Delete("dish", "meals")
	if got, _ := store.Get("dish", "meals"); got.Values[0] != "soup" {
		t.Fatalf("expected fallback after delete, got %+v", got)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Put("dish", "", model.OptionSet{Values: []string{"soup"}})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Get("dish", "meals")
		}()
	}
	wg.Wait()
	if store.Len() != 1 {
		t.Fatalf("expected one entry, got %d", store.Len())
	}
}

type stubLoader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (s *stubLoader) LoadOptions(_ context.Context, desc model.SourceDescriptor, _ string) (model.OptionSet, error) {
	s.mu.Lock()
	s.calls = append(s.calls, desc.Location)
	s.mu.Unlock()
	if s.fail[desc.Location] {
		return model.OptionSet{}, errors.New("boom")
	}
	return model.OptionSet{Values: []string{desc.Location}}, nil
}

func TestFetchWalksGroupsAndCollectsErrors(t *testing.T) {
	t.Parallel()

	def := &model.FormDefinition{
		ID: "kitchen",
		Questions: []model.QuestionDefinition{
			{ID: "service", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: "service"}},
			{ID: "notes", Type: model.QuestionTypeText},
			{
				ID:   "meals",
				Type: model.QuestionTypeLineItemGroup,
				LineItemConfig: &model.LineItemGroupConfig{
					SectionSelector: &model.QuestionDefinition{ID: "course", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: "course"}},
					Fields: []model.QuestionDefinition{
						{ID: "dish", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: "dish"}},
					},
					SubGroups: []model.SubGroupConfig{{
						ID: "extras",
						LineItemGroupConfig: model.LineItemGroupConfig{
							Fields: []model.QuestionDefinition{
								{ID: "extra", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: "extra"}},
							},
						},
					}},
				},
			},
		},
	}

	loader := &stubLoader{fail: map[string]bool{"dish": true}}
	store := NewStore()
	err := Fetch(context.Background(), loader, store, "en", def)
	if err == nil || !strings.Contains(err.Error(), "field dish: boom") {
		t.Fatalf("expected collected dish error, got %v", err)
	}

	if diff := cmp.Diff([]string{"service", "course", "dish", "extra"}, loader.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	for _, tc := range []struct{ id, key string }{
		{"service", ""},
		{"course", "meals"},
		{"extra", "meals::r1::extras"},
	} {
		if _, ok := store.Get(tc.id, tc.key); !ok {
			t.Fatalf("expected %s to be stored for %q", tc.id, tc.key)
		}
	}
	if _, ok := store.Get("dish", "meals"); ok {
		t.Fatalf("failed source must not be stored")
	}
}

func TestFetchKeepsEqualFieldIDsApartPerGroup(t *testing.T) {
	t.Parallel()

	group := func(id, location string) model.QuestionDefinition {
		return model.QuestionDefinition{
			ID:   id,
			Type: model.QuestionTypeLineItemGroup,
			LineItemConfig: &model.LineItemGroupConfig{
				Fields: []model.QuestionDefinition{
					{ID: "item", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: location}},
				},
				SubGroups: []model.SubGroupConfig{{
					ID: "extras",
					LineItemGroupConfig: model.LineItemGroupConfig{
						Fields: []model.QuestionDefinition{
							{ID: "item", Type: model.QuestionTypeChoice, OptionSource: &model.SourceDescriptor{Kind: model.SourceKindFS, Location: location + "-extra"}},
						},
					},
				}},
			},
		}
	}
	def := &model.FormDefinition{ID: "kitchen", Questions: []model.QuestionDefinition{group("kitchen", "soup"), group("bakery", "bread")}}

	store := NewStore()
	if err := Fetch(context.Background(), &stubLoader{}, store, "en", def); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	got := map[string]string{}
	for _, key := range []string{"kitchen", "bakery", "kitchen::r1::extras", "bakery::r9::extras"} {
		set, ok := store.Get("item", key)
		if !ok {
			t.Fatalf("no set for %s", key)
		}
		got[key] = set.Values[0]
	}
	want := map[string]string{
		"kitchen":             "soup",
		"bakery":              "bread",
		"kitchen::r1::extras": "soup-extra",
		"bakery::r9::extras":  "bread-extra",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sets mismatch (-want +got):\n%s", diff)
	}
	if _, ok := store.Get("item", ""); ok {
		t.Fatalf("group sets must not leak to the top level")
	}
}
