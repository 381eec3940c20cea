package expr

import "github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"

// Context resolves field values for condition evaluation.
type Context interface {
	GetValue(fieldID string) any
}

// LineContext additionally resolves values scoped to a line-item row.
type LineContext interface {
	Context
	GetLineValue(rowID, fieldID string) any
}

// RowScope marks the row a condition is evaluated for. Field ids listed in
// Fields belong to the row's group and resolve through GetLineValue; every
// other id falls back to the top-level GetValue.
type RowScope struct {
	RowID  string
	Fields map[string]struct{}
}

// NewRowScope builds a scope for the row of a group config.
func NewRowScope(rowID string, cfg *model.LineItemGroupConfig) *RowScope {
	return &RowScope{RowID: rowID, Fields: cfg.FieldIDs()}
}

// Scoped wraps ctx so lookups honour scope. A nil scope returns ctx as-is.
func Scoped(ctx Context, scope *RowScope) Context {
	if scope == nil || ctx == nil {
		return ctx
	}
	return scopedContext{base: ctx, scope: scope}
}

type scopedContext struct {
	base  Context
	scope *RowScope
}

func (c scopedContext) GetValue(fieldID string) any {
	if _, ok := c.scope.Fields[fieldID]; ok {
		if line, ok := c.base.(LineContext); ok {
			return line.GetLineValue(c.scope.RowID, fieldID)
		}
	}
	return c.base.GetValue(fieldID)
}

// ValuesContext is a LineContext over plain snapshots: top-level Values plus
// row values keyed by row id.
type ValuesContext struct {
	Values model.Values
	Rows   map[string]model.Values
}

// GetValue returns the top-level value.
func (c ValuesContext) GetValue(fieldID string) any {
	return c.Values.Get(fieldID)
}

// GetLineValue returns the value of a field inside the row with rowID.
func (c ValuesContext) GetLineValue(rowID, fieldID string) any {
	if c.Rows == nil {
		return nil
	}
	return c.Rows[rowID].Get(fieldID)
}

// LookupContext adapts a model.Lookup into a Context.
type LookupContext model.Lookup

// GetValue delegates to the lookup function.
func (fn LookupContext) GetValue(fieldID string) any {
	if fn == nil {
		return nil
	}
	return fn(fieldID)
}
