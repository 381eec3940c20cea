package lineitems

import (
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// ReconcileConfig carries what ReconcileAutoRows needs besides the rows.
type ReconcileConfig struct {
	TargetKey     string
	AnchorFieldID string
	// SectionSelectorID and SectionSelectorValue backfill the shared
	// selector into rows that lack it.
	SectionSelectorID    string
	SectionSelectorValue any
	IDs                  IDGenerator
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Rows    []model.Row
	Changed bool
	Added   int
	Updated int
	Removed int
	// Dropped holds the ids of removed rows in input order.
	Dropped []string
}

// ReconcileAutoRows diffs rows against desired. Rows outside this target's
// territory pass through untouched and in place. In-territory rows whose
// anchor is still desired are kept (the first one per anchor value), stale
// or duplicate ones are dropped, and missing anchor values get new rows
// appended in desired order. Unchanged rows keep their identity; Changed is
// false when the output equals the input. A pending desired set leaves the
// rows untouched.
func ReconcileAutoRows(rows []model.Row, desired Desired, cfg ReconcileConfig) Result {
	if desired.Pending {
		return Result{Rows: rows}
	}
	remaining := make(map[string]struct{}, len(desired.Values))
	for _, value := range desired.Values {
		remaining[value] = struct{}{}
	}
	prefix := ContextPrefix(cfg.TargetKey)

	result := Result{Rows: make([]model.Row, 0, len(rows)+len(desired.Values))}
	for _, row := range rows {
		if !inTerritory(row, prefix) {
			result.Rows = append(result.Rows, row)
			continue
		}
		anchor := strings.TrimSpace(model.ValueString(row.Values.Get(cfg.AnchorFieldID)))
		if _, ok := remaining[anchor]; !ok || anchor == "" {
			result.Removed++
			result.Dropped = append(result.Dropped, row.ID)
			continue
		}
		delete(remaining, anchor)

		normalized, changed := normalizeRow(row, anchor, desired.ContextID, cfg)
		if changed {
			result.Updated++
		}
		result.Rows = append(result.Rows, normalized)
	}

	for _, value := range desired.Values {
		if _, ok := remaining[value]; !ok {
			continue
		}
		delete(remaining, value)
		result.Rows = append(result.Rows, newAutoRow(value, desired.ContextID, cfg))
		result.Added++
	}

	result.Changed = result.Added > 0 || result.Updated > 0 || result.Removed > 0
	if !result.Changed {
		result.Rows = rows
	}
	return result
}

// inTerritory reports whether the reconciler of the target with prefix owns
// row: tagged auto with one of its context ids, or carrying the auto
// provenance marker (which survives a reload that loses the tag).
func inTerritory(row model.Row, prefix string) bool {
	if row.AutoGenerated && strings.HasPrefix(row.EffectContextID, prefix) {
		return true
	}
	return row.Source() == model.RowSourceAuto
}

func normalizeRow(row model.Row, anchor, contextID string, cfg ReconcileConfig) (model.Row, bool) {
	values := row.Values
	cloned := false
	set := func(key string, value any) {
		if !cloned {
			values = values.Clone()
			cloned = true
		}
		values[key] = value
	}

	if model.ValueString(values.Get(cfg.AnchorFieldID)) != anchor {
		set(cfg.AnchorFieldID, anchor)
	}
	if values.Get(model.RowSourceKey) != model.RowSourceAuto {
		set(model.RowSourceKey, model.RowSourceAuto)
	}
	if cfg.SectionSelectorID != "" && model.IsEmpty(values.Get(cfg.SectionSelectorID)) && !model.IsEmpty(cfg.SectionSelectorValue) {
		set(cfg.SectionSelectorID, cfg.SectionSelectorValue)
	}

	changed := cloned || !row.AutoGenerated || row.EffectContextID != contextID
	if !changed {
		return row, false
	}
	out := row
	out.Values = values
	out.AutoGenerated = true
	out.EffectContextID = contextID
	return out, true
}

func newAutoRow(anchor, contextID string, cfg ReconcileConfig) model.Row {
	values := model.Values{
		cfg.AnchorFieldID:  anchor,
		model.RowSourceKey: model.RowSourceAuto,
	}
	if cfg.SectionSelectorID != "" && !model.IsEmpty(cfg.SectionSelectorValue) {
		values[cfg.SectionSelectorID] = cfg.SectionSelectorValue
	}
	ids := cfg.IDs
	if ids == nil {
		ids = NewUUIDs()
	}
	return model.Row{
		ID:              ids.NewID(),
		Values:          values,
		AutoGenerated:   true,
		EffectContextID: contextID,
	}
}
