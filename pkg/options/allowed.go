// Package options narrows and localizes the option sets of choice and
// checkbox fields.
package options

import (
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// ComputeAllowedOptions returns the option values of set that remain
// selectable under the supplied dependency values, in declared order.
//
// dependencyValues holds one value per filter.DependsOn entry, in the same
// order, already extracted from the field context by the caller. Without a
// filter every base value is allowed. With a filter, an option is allowed
// when the option map lists it under a matching dependency key or under the
// wildcard key; an option the map never mentions is allowed unless the
// filter is exclusive.
func ComputeAllowedOptions(filter *model.OptionFilter, set *model.OptionSet, dependencyValues []any) []string {
	if set.Empty() {
		return nil
	}
	if filter == nil {
		return append([]string(nil), set.Values...)
	}

	index := indexOptionMap(filter.OptionMap)
	keys := model.DependencyKeys(dependencyValues)
	if len(filter.DependsOn) == 0 {
		keys = nil
	}

	permitted := make(map[string]struct{})
	for _, key := range append(keys, model.WildcardKey) {
		for _, value := range index.byKey[model.NormalizeDependencyKey(key)] {
			permitted[value] = struct{}{}
		}
	}

	out := make([]string, 0, len(set.Values))
	for _, value := range set.Values {
		if _, ok := permitted[value]; ok {
			out = append(out, value)
			continue
		}
		if _, governed := index.listed[value]; governed {
			continue
		}
		if !filter.Exclusive {
			out = append(out, value)
		}
	}
	return model.Dedupe(out)
}

// WithSelection appends the currently selected value(s) to allowed when they
// are missing so a previously valid selection never vanishes from the control.
func WithSelection(allowed []string, current any) []string {
	selected := model.ToStrings(current)
	if len(selected) == 0 {
		return allowed
	}
	out := append([]string(nil), allowed...)
	present := make(map[string]struct{}, len(out))
	for _, value := range out {
		present[value] = struct{}{}
	}
	for _, value := range selected {
		if _, ok := present[value]; ok {
			continue
		}
		present[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// Contains reports whether every member of value is in allowed.
func Contains(allowed []string, value any) bool {
	members := model.ToStrings(value)
	if len(members) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	for _, member := range members {
		if _, ok := set[member]; !ok {
			return false
		}
	}
	return true
}

type optionMapIndex struct {
	byKey  map[string][]string
	listed map[string]struct{}
}

func indexOptionMap(raw map[string][]string) optionMapIndex {
	index := optionMapIndex{
		byKey:  make(map[string][]string, len(raw)),
		listed: make(map[string]struct{}),
	}
	for key, values := range raw {
		normalised := model.NormalizeDependencyKey(key)
		index.byKey[normalised] = append(index.byKey[normalised], values...)
		for _, value := range values {
			index.listed[value] = struct{}{}
		}
	}
	return index
}
