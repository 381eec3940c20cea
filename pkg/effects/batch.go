package effects

import (
	"reflect"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Batch applies Capabilities calls to a line-items snapshot as one
// transaction. ClearGroup only marks rows; an AddRowToGroup for the same
// context id revives the marked row, keeping its id. Commit drops whatever
// is still marked. Re-dispatching an unchanged trigger therefore leaves
// row identities intact.
type Batch struct {
	items   model.LineItems
	newID   func() string
	marked  map[string]map[string]struct{}
	changed bool
}

var _ Capabilities = (*Batch)(nil)

// NewBatch starts a batch over a copy of items; newID mints ids for created
// rows.
func NewBatch(items model.LineItems, newID func() string) *Batch {
	if items == nil {
		items = model.LineItems{}
	}
	return &Batch{
		items:  items.Clone(),
		newID:  newID,
		marked: make(map[string]map[string]struct{}),
	}
}

// ClearGroup marks the rows of groupKey owned by contextID, or every row
// when contextID is empty.
func (b *Batch) ClearGroup(groupKey, contextID string) {
	for _, row := range b.items[groupKey] {
		if contextID != "" && !Owns(row.EffectContextID, contextID) {
			continue
		}
		if b.marked[groupKey] == nil {
			b.marked[groupKey] = make(map[string]struct{})
		}
		b.marked[groupKey][row.ID] = struct{}{}
	}
}

// AddRowToGroup revives or updates the row tagged contextID, or appends a
// new effect row.
func (b *Batch) AddRowToGroup(groupKey string, preset model.Values, contextID string) {
	rows := b.items[groupKey]
	for idx, row := range rows {
		if contextID == "" || row.EffectContextID != contextID {
			continue
		}
		delete(b.marked[groupKey], row.ID)
		if merged, changed := applyPreset(row.Values, preset); changed {
			updated := row
			updated.Values = merged
			b.items[groupKey][idx] = updated
			b.changed = true
		}
		return
	}

	values := preset.Clone()
	values[model.RowSourceKey] = model.RowSourceEffect
	b.items[groupKey] = append(b.items[groupKey], model.Row{
		ID:              b.newID(),
		Values:          values,
		EffectContextID: contextID,
	})
	b.changed = true
}

// Commit drops marked rows and returns the resulting snapshot and whether it
// differs from the input.
func (b *Batch) Commit() (model.LineItems, bool) {
	for key, marked := range b.marked {
		if len(marked) == 0 {
			continue
		}
		rows := b.items[key]
		kept := make([]model.Row, 0, len(rows))
		for _, row := range rows {
			if _, drop := marked[row.ID]; drop {
				b.changed = true
				continue
			}
			kept = append(kept, row)
		}
		b.items[key] = kept
	}
	b.marked = make(map[string]map[string]struct{})
	return b.items, b.changed
}

func applyPreset(current, preset model.Values) (model.Values, bool) {
	changed := false
	for key, value := range preset {
		if !reflect.DeepEqual(current.Get(key), value) {
			changed = true
			break
		}
	}
	if !changed {
		return current, false
	}
	out := current.Clone()
	for key, value := range preset {
		out[key] = value
	}
	return out, true
}
