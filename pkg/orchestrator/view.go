package orchestrator

import (
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/expr"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/options"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/validation"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/visibility"
)

// FieldView is the presentation state of one field instance. Paths match
// the paths of validation errors.
type FieldView struct {
	Path     string
	FieldID  string
	GroupKey string
	RowID    string
	Label    string
	Hidden   bool
	// ReadOnly is set for read-only and derived fields.
	ReadOnly bool
	Value    any
	// Options lists the allowed options of choice and checkbox fields,
	// including the current selection even when it is no longer allowed.
	Options []options.Option
}

// View lists field instances in form order.
type View struct {
	Fields []FieldView
}

// Field returns the instance at path.
func (v View) Field(path string) (FieldView, bool) {
	for _, field := range v.Fields {
		if field.Path == path {
			return field, true
		}
	}
	return FieldView{}, false
}

// View computes visibility and allowed options for every field instance.
// Rows of a hidden group are reported hidden.
func (o *Orchestrator) View(state State) (View, error) {
	if err := o.ready(); err != nil {
		return View{}, err
	}
	b := viewBuilder{o: o, state: state}
	ctx := expr.ValuesContext{Values: state.Values}
	for _, q := range o.def.Questions {
		hidden := visibility.Hidden(q, ctx, nil)
		if !q.IsGroup() {
			b.field(q, "", "", "", nil, state.Values, hidden)
			continue
		}
		b.add(FieldView{Path: q.ID, FieldID: q.ID, Label: b.label(q), Hidden: hidden})
		b.group(q.ID, q.ID, q.LineItemConfig, "", state.Values, ctx, hidden)
	}
	return View{Fields: b.fields}, nil
}

type viewBuilder struct {
	o      *Orchestrator
	state  State
	fields []FieldView
}

func (b *viewBuilder) add(field FieldView) {
	b.fields = append(b.fields, field)
}

func (b *viewBuilder) label(q model.QuestionDefinition) string {
	if label := options.ResolveText(q.Label, b.o.language, b.o.def.Language()); label != "" {
		return label
	}
	return q.ID
}

func (b *viewBuilder) group(groupID, key string, cfg *model.LineItemGroupConfig, prefix string, container model.Values, containerCtx expr.Context, hidden bool) {
	groupPath := validation.FieldPath(prefix, groupID)
	if sel := cfg.SectionSelector; sel != nil {
		selHidden := hidden || visibility.Hidden(*sel, containerCtx, nil)
		b.field(*sel, groupPath, key, "", nil, container, selHidden)
	}

	for _, row := range b.state.LineItems[key] {
		ctx := expr.ValuesContext{Values: container, Rows: map[string]model.Values{row.ID: row.Values}}
		scope := expr.NewRowScope(row.ID, cfg)
		rowPath := validation.RowPath(prefix, groupID, row.ID)
		for _, field := range cfg.Fields {
			fieldHidden := hidden || visibility.Hidden(field, ctx, scope)
			b.field(field, rowPath, key, row.ID, row.Values, container, fieldHidden)
		}
		for i := range cfg.SubGroups {
			sub := &cfg.SubGroups[i]
			subKey := model.InstanceKey(groupID, row.ID, sub.ID)
			b.group(sub.ID, subKey, &sub.LineItemGroupConfig, rowPath, overlay(row.Values, container), expr.Scoped(ctx, scope), hidden)
		}
	}
}

func (b *viewBuilder) field(q model.QuestionDefinition, prefix, key, rowID string, row, container model.Values, hidden bool) {
	lookup := model.Chain(row, container)
	value := container.Get(q.ID)
	if rowID != "" {
		value = row.Get(q.ID)
	}
	view := FieldView{
		Path:     validation.FieldPath(prefix, q.ID),
		FieldID:  q.ID,
		GroupKey: key,
		RowID:    rowID,
		Label:    b.label(q),
		Hidden:   hidden,
		ReadOnly: q.ReadOnly || q.ValueMap != nil,
		Value:    value,
	}
	if q.Type.HasOptions() {
		set := b.o.optionSet(q, key)
		var deps []any
		if q.OptionFilter != nil {
			for _, id := range q.OptionFilter.DependsOn {
				deps = append(deps, lookup(id))
			}
		}
		allowed := options.WithSelection(options.ComputeAllowedOptions(q.OptionFilter, set, deps), value)
		view.Options = options.BuildLocalizedOptions(set, allowed, b.o.language, b.o.def.Language())
	}
	b.add(view)
}
