// Package valuemap computes derived field values from the current values of
// other fields.
package valuemap

import (
	"reflect"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Options narrow a resolution.
type Options struct {
	// Allowed restricts mapped values to the target field's option space.
	// Nil allows anything.
	Allowed []string
}

// ResolveValueMapValue evaluates spec with get, which must resolve the row's
// own values first, then the parent row, then the top level (see
// model.Chain).
//
// Without an OptionMap the first dependency value is copied through. With
// one, the dependency keys are looked up case-insensitively, falling back to
// the wildcard key; Multiple keeps every mapped value (joined by Separator
// when set), otherwise the first one wins. Default applies when nothing
// resolves.
func ResolveValueMapValue(spec *model.ValueMap, get model.Lookup, opts Options) any {
	if spec == nil || get == nil || len(spec.DependsOn) == 0 {
		return nil
	}

	deps := make([]any, 0, len(spec.DependsOn))
	for _, id := range spec.DependsOn {
		deps = append(deps, get(id))
	}

	if len(spec.OptionMap) == 0 {
		if model.IsEmpty(deps[0]) {
			return spec.Default
		}
		return deps[0]
	}

	index := make(map[string][]string, len(spec.OptionMap))
	for key, values := range spec.OptionMap {
		normalized := model.NormalizeDependencyKey(key)
		index[normalized] = append(index[normalized], values...)
	}

	var mapped []string
	for _, key := range model.DependencyKeys(deps) {
		mapped = append(mapped, index[model.NormalizeDependencyKey(key)]...)
	}
	if len(mapped) == 0 {
		mapped = index[model.WildcardKey]
	}
	mapped = restrict(model.Dedupe(trim(mapped)), opts.Allowed)
	if len(mapped) == 0 {
		return spec.Default
	}

	if !spec.Multiple {
		return mapped[0]
	}
	if spec.Separator != "" {
		return strings.Join(mapped, spec.Separator)
	}
	out := make([]any, len(mapped))
	for i, value := range mapped {
		out[i] = value
	}
	return out
}

func trim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func restrict(values, allowed []string) []string {
	if allowed == nil {
		return values
	}
	permitted := make(map[string]struct{}, len(allowed))
	for _, value := range allowed {
		permitted[value] = struct{}{}
	}
	out := values[:0:0]
	for _, value := range values {
		if _, ok := permitted[value]; ok {
			out = append(out, value)
		}
	}
	return out
}

// OptionSetFunc returns the option set of field within a group instance;
// instanceKey is empty for top-level fields.
type OptionSetFunc func(field model.QuestionDefinition, instanceKey string) *model.OptionSet

// ApplyOption configures Apply.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	sets OptionSetFunc
}

// WithOptionSets restricts derived choice values to the sets returned by fn
// instead of the fields' inline options.
func WithOptionSets(fn OptionSetFunc) ApplyOption {
	return func(c *applyConfig) {
		c.sets = fn
	}
}

func (c applyConfig) optionsFor(field model.QuestionDefinition, instanceKey string) Options {
	if !field.Type.HasOptions() {
		return Options{}
	}
	set := field.Options
	if c.sets != nil {
		set = c.sets(field, instanceKey)
	}
	if set.Empty() {
		return Options{}
	}
	return Options{Allowed: set.Values}
}

// Apply refreshes every derived field of def: top-level fields first, then
// each row of every group and sub-group. The inputs are never mutated; the
// returned snapshots share unchanged rows with them.
func Apply(def *model.FormDefinition, values model.Values, lineItems model.LineItems, opts ...ApplyOption) (model.Values, model.LineItems, bool) {
	if def == nil {
		return values, lineItems, false
	}
	var cfg applyConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	changed := false

	outValues := values
	for _, q := range def.Questions {
		if q.ValueMap == nil || q.IsGroup() {
			continue
		}
		next := ResolveValueMapValue(q.ValueMap, model.Chain(outValues), cfg.optionsFor(q, ""))
		if equal(outValues.Get(q.ID), next) {
			continue
		}
		if !changed {
			outValues = outValues.Clone()
			changed = true
		}
		outValues[q.ID] = next
	}

	outItems := lineItems
	cloned := false
	write := func(key string, rows []model.Row) {
		if !cloned {
			outItems = lineItems.Clone()
			cloned = true
		}
		outItems[key] = rows
	}

	for _, q := range def.Questions {
		if !q.IsGroup() {
			continue
		}
		group := q.LineItemConfig
		rows, rowsChanged := cfg.applyRows(q.ID, group.Fields, outItems[q.ID], outValues, nil)
		if rowsChanged {
			write(q.ID, rows)
		}
		for _, parent := range rows {
			for i := range group.SubGroups {
				sub := &group.SubGroups[i]
				key := model.InstanceKey(q.ID, parent.ID, sub.ID)
				subRows, subChanged := cfg.applyRows(key, sub.Fields, outItems[key], outValues, parent.Values)
				if subChanged {
					write(key, subRows)
				}
			}
		}
	}
	return outValues, outItems, changed || cloned
}

func (c applyConfig) applyRows(key string, fields []model.QuestionDefinition, rows []model.Row, top, parent model.Values) ([]model.Row, bool) {
	var out []model.Row
	for idx, row := range rows {
		rowValues := row.Values
		rowChanged := false
		for _, field := range fields {
			if field.ValueMap == nil {
				continue
			}
			next := ResolveValueMapValue(field.ValueMap, model.Chain(rowValues, parent, top), c.optionsFor(field, key))
			if equal(rowValues.Get(field.ID), next) {
				continue
			}
			if !rowChanged {
				rowValues = rowValues.Clone()
				rowChanged = true
			}
			rowValues[field.ID] = next
		}
		if !rowChanged {
			continue
		}
		if out == nil {
			out = append([]model.Row(nil), rows...)
		}
		updated := row
		updated.Values = rowValues
		out[idx] = updated
	}
	if out == nil {
		return rows, false
	}
	return out, true
}

func equal(current, next any) bool {
	if model.IsEmpty(current) && model.IsEmpty(next) {
		return true
	}
	return reflect.DeepEqual(current, next)
}
