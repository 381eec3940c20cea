package optionsource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

type storeKey struct {
	fieldID     string
	instanceKey string
}

// Store caches loaded option sets per field and group instance. Sets may be
// stored at any time; readers see "no options yet" until they arrive.
type Store struct {
	mu   sync.RWMutex
	sets map[storeKey]model.OptionSet
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sets: make(map[storeKey]model.OptionSet)}
}

// Put records the option set for fieldID within instanceKey. An empty
// instanceKey applies to every instance without its own entry.
func (s *Store) Put(fieldID, instanceKey string, set model.OptionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sets == nil {
		s.sets = make(map[storeKey]model.OptionSet)
	}
	s.sets[storeKey{fieldID: fieldID, instanceKey: instanceKey}] = set
}

// ScopeKey is the key Fetch stores group field sets under: the group id for
// top-level groups, group and sub-group id for sub-groups.
func ScopeKey(groupID, subGroupID string) string {
	if subGroupID == "" {
		return groupID
	}
	return groupID + scopeSeparator + subGroupID
}

const scopeSeparator = "::"

// Get returns the set for (fieldID, instanceKey). A sub-group instance key
// falls back to its scope key, then any key falls back to (fieldID, "").
func (s *Store) Get(fieldID, instanceKey string) (model.OptionSet, bool) {
	if s == nil {
		return model.OptionSet{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.sets[storeKey{fieldID: fieldID, instanceKey: instanceKey}]; ok {
		return set, true
	}
	if group, _, sub, ok := model.ParseInstanceKey(instanceKey); ok {
		if set, ok := s.sets[storeKey{fieldID: fieldID, instanceKey: ScopeKey(group, sub)}]; ok {
			return set, true
		}
	}
	if instanceKey != "" {
		set, ok := s.sets[storeKey{fieldID: fieldID}]
		return set, ok
	}
	return model.OptionSet{}, false
}

// Delete drops the entry for (fieldID, instanceKey).
func (s *Store) Delete(fieldID, instanceKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, storeKey{fieldID: fieldID, instanceKey: instanceKey})
}

// Len reports the number of cached sets.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}

// Fetch loads the option source of every question in defs into store.
// Top-level questions are stored under an empty instance key; group fields
// and section selectors under the ScopeKey of their group, so equal field
// ids in different groups keep their own sets. Failures are collected; the
// sets that loaded stay stored.
func Fetch(ctx context.Context, loader Loader, store *Store, language string, defs ...*model.FormDefinition) error {
	if loader == nil {
		return errors.New("optionsource: loader is nil")
	}
	if store == nil {
		return errors.New("optionsource: store is nil")
	}

	var errs []error
	visit := func(q model.QuestionDefinition, scope string) {
		if q.OptionSource == nil {
			return
		}
		set, err := loader.LoadOptions(ctx, *q.OptionSource, language)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", q.ID, err))
			return
		}
		store.Put(q.ID, scope, set)
	}
	for _, def := range defs {
		if def == nil {
			continue
		}
		for _, q := range def.Questions {
			visit(q, "")
			if q.LineItemConfig == nil {
				continue
			}
			walkGroup(*q.LineItemConfig, ScopeKey(q.ID, ""), visit)
			for _, sub := range q.LineItemConfig.SubGroups {
				walkGroup(sub.LineItemGroupConfig, ScopeKey(q.ID, sub.ID), visit)
			}
		}
	}
	return errors.Join(errs...)
}

func walkGroup(cfg model.LineItemGroupConfig, scope string, visit func(model.QuestionDefinition, string)) {
	if cfg.SectionSelector != nil {
		visit(*cfg.SectionSelector, scope)
	}
	for _, field := range cfg.Fields {
		visit(field, scope)
	}
}
