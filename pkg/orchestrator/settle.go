package orchestrator

import (
	"reflect"
	"sort"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/effects"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/lineitems"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/valuemap"
)

// settle repeats reconciliation and value-map refresh until a pass changes
// nothing. Reaching maxPasses with a changing pass yields ErrNotConverged
// together with the last state.
func (o *Orchestrator) settle(state State, out *Outcome) (State, error) {
	for pass := 1; ; pass++ {
		next, changed := o.pass(state, out)
		out.Passes = pass
		state = next
		if !changed {
			return state, nil
		}
		if pass >= o.maxPasses {
			o.logger.Warn("state did not converge", "form", o.def.ID, "passes", pass, "targets", out.Targets)
			return state, ErrNotConverged
		}
	}
}

func (o *Orchestrator) pass(state State, out *Outcome) (State, bool) {
	items := state.LineItems
	changed := false
	dropped := make(map[string]map[string]struct{})
	for _, q := range o.def.Questions {
		if !q.IsGroup() {
			continue
		}
		res := lineitems.ReconcileGroup(lineitems.GroupInput{
			GroupID:          q.ID,
			Config:           q.LineItemConfig,
			Values:           state.Values,
			LineItems:        items,
			Options:          o.optionSet,
			Language:         o.language,
			FallbackLanguage: o.def.Language(),
			IDs:              o.ids,
		})
		if !res.Changed {
			continue
		}
		items = res.LineItems
		changed = true
		out.touch(res.Targets...)
		o.logger.Debug("line items reconciled", "group", q.ID, "targets", res.Targets)
		for key, ids := range res.Dropped {
			if dropped[key] == nil {
				dropped[key] = make(map[string]struct{}, len(ids))
			}
			for _, id := range ids {
				dropped[key][id] = struct{}{}
			}
		}
	}
	if len(dropped) > 0 {
		items = o.retract(state, items, dropped, out)
	}

	values, items, mapped := valuemap.Apply(o.def, state.Values, items, valuemap.WithOptionSets(o.optionSet))
	if mapped {
		o.logger.Debug("derived values refreshed", "form", o.def.ID)
	}
	return State{Values: values, LineItems: items}, changed || mapped
}

// retract clears the effect rows fired from rows the reconciler dropped.
// before still holds the dropped rows; items is the reconciled snapshot.
func (o *Orchestrator) retract(before State, items model.LineItems, dropped map[string]map[string]struct{}, out *Outcome) model.LineItems {
	batch := effects.NewBatch(items, o.ids.NewID)
	o.walkEffects(before, func(inst instance) {
		if _, ok := dropped[inst.key][inst.rowID]; ok {
			o.dispatch(batch, inst, true)
		}
	})
	next := o.commit(State{Values: before.Values, LineItems: items}, batch, out)
	return next.LineItems
}

// instance is one field with selection effects at one place in the form.
type instance struct {
	field       model.QuestionDefinition
	key         string
	topGroup    string
	parentRowID string
	rowID       string
	row         model.Values
	container   model.Values
}

// walkEffects visits every field instance that declares selection effects:
// top-level questions, then each group row and its sub-group rows.
func (o *Orchestrator) walkEffects(state State, visit func(instance)) {
	for _, q := range o.def.Questions {
		if !q.IsGroup() {
			if len(q.SelectionEffects) > 0 {
				visit(instance{field: q, container: state.Values})
			}
			continue
		}
		cfg := q.LineItemConfig
		for _, row := range state.LineItems[q.ID] {
			for _, field := range cfg.Fields {
				if len(field.SelectionEffects) == 0 {
					continue
				}
				visit(instance{field: field, key: q.ID, topGroup: q.ID, rowID: row.ID, row: row.Values, container: state.Values})
			}
			for i := range cfg.SubGroups {
				sub := &cfg.SubGroups[i]
				key := model.InstanceKey(q.ID, row.ID, sub.ID)
				container := overlay(row.Values, state.Values)
				for _, subRow := range state.LineItems[key] {
					for _, field := range sub.Fields {
						if len(field.SelectionEffects) == 0 {
							continue
						}
						visit(instance{
							field:       field,
							key:         key,
							topGroup:    q.ID,
							parentRowID: row.ID,
							rowID:       subRow.ID,
							row:         subRow.Values,
							container:   container,
						})
					}
				}
			}
		}
	}
}

func dependsOn(field model.QuestionDefinition, fieldID string) bool {
	for _, effect := range field.SelectionEffects {
		for _, id := range effect.DependsOn {
			if id == fieldID {
				return true
			}
		}
	}
	return false
}

func (o *Orchestrator) newBatch(state State) *effects.Batch {
	return effects.NewBatch(state.LineItems, o.ids.NewID)
}

func (o *Orchestrator) dispatch(batch *effects.Batch, inst instance, reset bool) {
	opts := effects.Options{ForceContextReset: reset, RowValues: inst.row, Values: inst.container}
	value := inst.container.Get(inst.field.ID)
	if inst.rowID != "" {
		value = inst.row.Get(inst.field.ID)
		opts.ContextID = strings.Join([]string{inst.key, inst.rowID, inst.field.ID}, effects.ContextSeparator)
		if inst.parentRowID == "" {
			opts.GroupKey = o.subGroupKey(inst.topGroup, inst.rowID)
		}
	}
	effects.Dispatch(inst.field, value, batch, opts)
	o.logger.Debug("selection effects dispatched", "field", inst.field.ID, "group", inst.key, "row", inst.rowID, "reset", reset)
}

// subGroupKey routes effects of a group row that target one of the group's
// own sub-groups to that row's instance.
func (o *Orchestrator) subGroupKey(groupID, rowID string) func(string) string {
	return func(target string) string {
		if _, ok := o.def.SubGroup(groupID, target); ok {
			return model.InstanceKey(groupID, rowID, target)
		}
		return target
	}
}

func (o *Orchestrator) commit(state State, batch *effects.Batch, out *Outcome) State {
	items, changed := batch.Commit()
	if !changed {
		return state
	}
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !reflect.DeepEqual(state.LineItems[key], items[key]) {
			out.touch(key)
		}
	}
	return State{Values: state.Values, LineItems: items}
}
