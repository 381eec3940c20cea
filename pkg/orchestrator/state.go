package orchestrator

import (
	"fmt"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// target is a resolved line-item instance key.
type target struct {
	key         string
	groupID     string
	subID       string
	parentRowID string
	cfg         *model.LineItemGroupConfig
}

func (o *Orchestrator) target(state State, key string) (target, error) {
	if groupID, parentRowID, subID, ok := model.ParseInstanceKey(key); ok {
		cfg, found := o.def.SubGroup(groupID, subID)
		if !found {
			return target{}, fmt.Errorf("%w: %s", ErrUnknownGroup, key)
		}
		if findRow(state.LineItems[groupID], parentRowID) < 0 {
			return target{}, fmt.Errorf("%w: %s[%s]", ErrUnknownRow, groupID, parentRowID)
		}
		return target{key: key, groupID: groupID, subID: subID, parentRowID: parentRowID, cfg: cfg}, nil
	}
	cfg, found := o.def.Group(key)
	if !found {
		return target{}, fmt.Errorf("%w: %s", ErrUnknownGroup, key)
	}
	return target{key: key, groupID: key, cfg: cfg}, nil
}

// container returns the values a row of t sees above itself: the parent row
// layered over the top level for sub-groups, the top level otherwise.
func (t target) container(state State) model.Values {
	if t.subID == "" {
		return state.Values
	}
	rows := state.LineItems[t.groupID]
	if idx := findRow(rows, t.parentRowID); idx >= 0 {
		return overlay(rows[idx].Values, state.Values)
	}
	return state.Values
}

func (o *Orchestrator) write(state *State, change Change) error {
	if change.GroupKey == "" {
		q, ok := o.def.Question(change.FieldID)
		if !ok || q.IsGroup() {
			return fmt.Errorf("%w: %s", ErrUnknownField, change.FieldID)
		}
		state.Values[change.FieldID] = change.Value
		return nil
	}

	t, err := o.target(*state, change.GroupKey)
	if err != nil {
		return err
	}
	if change.RowID == "" {
		// Section selectors live in the container, not in the rows.
		sel := t.cfg.SectionSelector
		if sel == nil || sel.ID != change.FieldID {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, change.GroupKey, change.FieldID)
		}
		if t.subID == "" {
			state.Values[sel.ID] = change.Value
			return nil
		}
		return setRowValue(state.LineItems, t.groupID, t.parentRowID, sel.ID, change.Value)
	}

	if !hasField(t.cfg.Fields, change.FieldID) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, change.GroupKey, change.FieldID)
	}
	return setRowValue(state.LineItems, change.GroupKey, change.RowID, change.FieldID, change.Value)
}

// setRowValue writes into a copy of the row; items must already be a clone.
func setRowValue(items model.LineItems, key, rowID, fieldID string, value any) error {
	rows := items[key]
	idx := findRow(rows, rowID)
	if idx < 0 {
		return fmt.Errorf("%w: %s[%s]", ErrUnknownRow, key, rowID)
	}
	row := rows[idx].Clone()
	row.Values[fieldID] = value
	rows[idx] = row
	return nil
}

func findRow(rows []model.Row, id string) int {
	for idx, row := range rows {
		if row.ID == id {
			return idx
		}
	}
	return -1
}

func hasField(fields []model.QuestionDefinition, id string) bool {
	for _, field := range fields {
		if field.ID == id {
			return true
		}
	}
	return false
}

// overlay copies base and writes the non-empty values of top over it.
func overlay(top, base model.Values) model.Values {
	out := base.Clone()
	for key, value := range top {
		if !model.IsEmpty(value) {
			out[key] = value
		}
	}
	return out
}
