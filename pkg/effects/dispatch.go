// Package effects fans out the selection effects declared on a field when
// its value changes. Effects reach line-item groups only through the
// Capabilities the caller supplies, and every row they create is tagged with
// a context id so the same trigger can later be retracted without touching
// rows that other triggers own.
package effects

import (
	"strconv"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// ContextSeparator joins the parts of an effect context id.
const ContextSeparator = "|"

// Capabilities are the group mutations an effect may perform. groupKey is
// the line-item instance key of the target group.
type Capabilities interface {
	AddRowToGroup(groupKey string, preset model.Values, contextID string)
	// ClearGroup removes the rows owned by contextID (see Owns). An empty
	// contextID clears every row of the group.
	ClearGroup(groupKey, contextID string)
}

// Options scope one dispatch.
type Options struct {
	// ContextID identifies the (field, row) instance firing the effects.
	// Empty defaults to the field id.
	ContextID string
	// ForceContextReset retracts every effect of the field regardless of
	// newValue, e.g. when the triggering row is removed.
	ForceContextReset bool
	// RowValues are the values of the triggering row; Values the top-level
	// form values. Both feed completeness checks and preset substitution.
	RowValues model.Values
	Values    model.Values
	// GroupKey maps an effect's target group id to an instance key. Nil
	// uses the group id unchanged.
	GroupKey func(groupID string) string
}

// EffectKey returns the stable key of the effect at index idx of a field.
func EffectKey(fieldID string, idx int, effect model.SelectionEffect) string {
	if effect.ID != "" {
		return effect.ID
	}
	return fieldID + "#" + strconv.Itoa(idx)
}

// ContextID builds the context id of one effect of a dispatch.
func ContextID(opts Options, fieldID, effectKey string) string {
	base := opts.ContextID
	if base == "" {
		base = fieldID
	}
	return base + ContextSeparator + effectKey
}

// Owns reports whether a row tagged rowContext belongs to contextID: either
// the exact id or one of its per-value children.
func Owns(rowContext, contextID string) bool {
	if rowContext == "" || contextID == "" {
		return false
	}
	return rowContext == contextID || strings.HasPrefix(rowContext, contextID+ContextSeparator)
}

// Dispatch applies the selection effects of field for newValue.
//
// Add effects first retract everything their context owns, then add one row
// per triggering value; multi-select values get their own child context.
// When the triggering row is incomplete (a DependsOn field is empty) or
// ForceContextReset is set, the value is treated as nil and only the
// retraction runs. Clear effects empty their whole target group when
// triggered.
func Dispatch(field model.QuestionDefinition, newValue any, caps Capabilities, opts Options) {
	if caps == nil || len(field.SelectionEffects) == 0 {
		return
	}

	value := newValue
	if opts.ForceContextReset {
		value = nil
	}
	lookup := model.Chain(opts.RowValues, opts.Values)
	multi := field.Type == model.QuestionTypeCheckbox || isList(newValue)

	for idx, effect := range field.SelectionEffects {
		if effect.GroupID == "" {
			continue
		}
		key := groupKey(opts, effect.GroupID)
		contextID := ContextID(opts, field.ID, EffectKey(field.ID, idx, effect))

		effective := value
		if !complete(effect.DependsOn, lookup) {
			effective = nil
		}
		members := triggering(effect, effective)

		switch effect.Type {
		case model.EffectAddLineItems:
			caps.ClearGroup(key, contextID)
			for _, member := range members {
				rowContext := contextID
				if multi {
					rowContext += ContextSeparator + member
				}
				caps.AddRowToGroup(key, preset(effect.Preset, member, lookup), rowContext)
			}
		case model.EffectClearLineItems:
			if len(members) > 0 {
				caps.ClearGroup(key, "")
			}
		}
	}
}

func groupKey(opts Options, groupID string) string {
	if opts.GroupKey == nil {
		return groupID
	}
	if key := opts.GroupKey(groupID); key != "" {
		return key
	}
	return groupID
}

func complete(dependsOn []string, lookup model.Lookup) bool {
	for _, id := range dependsOn {
		if model.IsEmpty(lookup(id)) {
			return false
		}
	}
	return true
}

// triggering returns the members of value that fire effect, in selection
// order.
func triggering(effect model.SelectionEffect, value any) []string {
	members := model.Dedupe(model.ToStrings(value))
	if len(effect.TriggerValues) == 0 {
		return members
	}
	out := members[:0:0]
	for _, member := range members {
		for _, trigger := range effect.TriggerValues {
			if strings.EqualFold(strings.TrimSpace(trigger), member) {
				out = append(out, member)
				break
			}
		}
	}
	return out
}

const (
	valuePlaceholder     = "$value"
	rowPlaceholderPrefix = "$row."
)

func preset(template model.Values, member string, lookup model.Lookup) model.Values {
	out := make(model.Values, len(template)+1)
	for key, raw := range template {
		s, ok := raw.(string)
		switch {
		case ok && s == valuePlaceholder:
			out[key] = member
		case ok && strings.HasPrefix(s, rowPlaceholderPrefix):
			out[key] = lookup(strings.TrimPrefix(s, rowPlaceholderPrefix))
		default:
			out[key] = raw
		}
	}
	out[model.RowSourceKey] = model.RowSourceEffect
	return out
}

func isList(value any) bool {
	switch value.(type) {
	case []any, []string:
		return true
	}
	return false
}
