package lineitems

import (
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// OverlayConfig configures AddOverlayRows.
type OverlayConfig struct {
	AnchorFieldID        string
	SectionSelectorID    string
	SectionSelectorValue any
	IDs                  IDGenerator
}

// AddOverlayRows appends one manual row per selected anchor value that no
// row of the instance carries yet, in selection order. Existing rows are
// never modified; selecting an already present value is a no-op.
func AddOverlayRows(rows []model.Row, selected []string, cfg OverlayConfig) Result {
	present := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if anchor := strings.TrimSpace(model.ValueString(row.Values.Get(cfg.AnchorFieldID))); anchor != "" {
			present[anchor] = struct{}{}
		}
	}
	ids := cfg.IDs
	if ids == nil {
		ids = NewUUIDs()
	}

	result := Result{Rows: rows}
	for _, value := range selected {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := present[value]; ok {
			continue
		}
		present[value] = struct{}{}
		values := model.Values{
			cfg.AnchorFieldID:  value,
			model.RowSourceKey: model.RowSourceManual,
		}
		if cfg.SectionSelectorID != "" && !model.IsEmpty(cfg.SectionSelectorValue) {
			values[cfg.SectionSelectorID] = cfg.SectionSelectorValue
		}
		if result.Added == 0 {
			result.Rows = append([]model.Row(nil), rows...)
		}
		result.Rows = append(result.Rows, model.Row{ID: ids.NewID(), Values: values})
		result.Added++
	}
	result.Changed = result.Added > 0
	return result
}
