package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/options"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/validation"
)

// Filler walks a form in definition order and asks for every visible,
// editable field.
type Filler struct {
	orch   *orchestrator.Orchestrator
	driver Driver
}

// Option customises a Filler.
type Option func(*Filler)

// WithDriver replaces the terminal driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		f.driver = driver
	}
}

// New returns a Filler for orch using the survey driver by default.
func New(orch *orchestrator.Orchestrator, opts ...Option) (*Filler, error) {
	if orch == nil {
		return nil, errors.New("prompt: orchestrator is required")
	}
	f := &Filler{orch: orch}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(os.Stdout)
	}
	return f, nil
}

// Fill settles state, then prompts field by field. Change-phase validation
// messages are shown after each answer.
func (f *Filler) Fill(ctx context.Context, state orchestrator.State) (orchestrator.State, error) {
	if ctx == nil {
		return state, errors.New("prompt: context is required")
	}
	state, _, err := f.orch.Load(state)
	if err != nil && !errors.Is(err, orchestrator.ErrNotConverged) {
		return state, err
	}

	for _, q := range f.orch.Definition().Questions {
		if q.IsGroup() {
			state, err = f.fillGroup(ctx, state, q.ID, q.ID, q.LineItemConfig, q.Label, "")
		} else {
			state, err = f.fillField(ctx, state, q, q.ID, orchestrator.Change{FieldID: q.ID})
		}
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

func (f *Filler) view(state orchestrator.State, path string) (orchestrator.FieldView, bool, error) {
	view, err := f.orch.View(state)
	if err != nil {
		return orchestrator.FieldView{}, false, err
	}
	field, ok := view.Field(path)
	return field, ok, nil
}

func (f *Filler) fillField(ctx context.Context, state orchestrator.State, q model.QuestionDefinition, path string, change orchestrator.Change) (orchestrator.State, error) {
	fv, ok, err := f.view(state, path)
	if err != nil || !ok || fv.Hidden || fv.ReadOnly {
		return state, err
	}

	value, ok, err := f.ask(ctx, q, fv)
	if err != nil || !ok {
		return state, err
	}
	change.Value = value
	next, _, err := f.orch.SetValue(state, change)
	if err != nil && !errors.Is(err, orchestrator.ErrNotConverged) {
		return state, err
	}

	errs, err := f.orch.Validate(next, model.PhaseChange)
	if err != nil {
		return next, err
	}
	for _, verr := range errs {
		if verr.Path != path || verr.Kind != validation.KindRule {
			continue
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("%s: %s", fv.Label, verr.Message)); err != nil {
			return next, err
		}
	}
	return next, nil
}

func (f *Filler) fillGroup(ctx context.Context, state orchestrator.State, groupID, key string, cfg *model.LineItemGroupConfig, label model.LocalizedText, prefix string) (orchestrator.State, error) {
	groupPath := validation.FieldPath(prefix, groupID)
	if prefix == "" {
		if fv, ok, err := f.view(state, groupPath); err != nil || (ok && fv.Hidden) {
			return state, err
		}
	}
	title := options.ResolveText(label, f.orch.Language(), f.orch.Definition().Language())
	if title == "" {
		title = groupID
	}

	var err error
	if sel := cfg.SectionSelector; sel != nil {
		path := validation.FieldPath(groupPath, sel.ID)
		if state, err = f.fillField(ctx, state, *sel, path, orchestrator.Change{GroupKey: key, FieldID: sel.ID}); err != nil {
			return state, err
		}
	}

	switch cfg.AddMode {
	case model.AddModeOverlay:
		if state, err = f.addOverlay(ctx, state, key, cfg, title); err != nil {
			return state, err
		}
	case model.AddModeManual, "":
		for {
			more, err := f.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add a row to %s?", title)})
			if err != nil {
				return state, err
			}
			if !more {
				break
			}
			if state, _, _, err = f.orch.AddRow(state, key, nil); err != nil && !errors.Is(err, orchestrator.ErrNotConverged) {
				return state, err
			}
		}
	}

	for _, row := range state.LineItems[key] {
		rowPath := validation.RowPath(prefix, groupID, row.ID)
		auto := row.AutoGenerated || row.Source() == model.RowSourceAuto
		for _, field := range cfg.Fields {
			if auto && field.ID == cfg.AnchorFieldID {
				continue
			}
			change := orchestrator.Change{GroupKey: key, RowID: row.ID, FieldID: field.ID}
			if state, err = f.fillField(ctx, state, field, validation.FieldPath(rowPath, field.ID), change); err != nil {
				return state, err
			}
		}
		if prefix != "" {
			continue
		}
		for i := range cfg.SubGroups {
			sub := &cfg.SubGroups[i]
			subKey := model.InstanceKey(groupID, row.ID, sub.ID)
			if state, err = f.fillGroup(ctx, state, sub.ID, subKey, &sub.LineItemGroupConfig, sub.Label, rowPath); err != nil {
				return state, err
			}
		}
	}
	return state, nil
}

func (f *Filler) addOverlay(ctx context.Context, state orchestrator.State, key string, cfg *model.LineItemGroupConfig, title string) (orchestrator.State, error) {
	anchor, ok := cfg.Anchor()
	if !ok {
		return state, nil
	}
	set := anchor.Options
	if stored, found := f.orch.OptionStore().Get(anchor.ID, key); found {
		set = &stored
	}
	if set.Empty() {
		return state, f.driver.Info(ctx, fmt.Sprintf("No options available for %s yet.", title))
	}
	opts := options.BuildLocalizedOptions(set, set.Values, f.orch.Language(), f.orch.Definition().Language())
	picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: fmt.Sprintf("Add rows to %s", title), Options: labels(opts)})
	if err != nil {
		return state, err
	}
	var values []string
	for _, idx := range picked {
		if idx >= 0 && idx < len(opts) {
			values = append(values, opts[idx].Value)
		}
	}
	next, _, err := f.orch.AddRows(state, key, values)
	if err != nil && !errors.Is(err, orchestrator.ErrNotConverged) {
		return state, err
	}
	return next, nil
}

// ask prompts for one field. ok is false when nothing was asked, for
// example when a choice field has no options yet.
func (f *Filler) ask(ctx context.Context, q model.QuestionDefinition, fv orchestrator.FieldView) (any, bool, error) {
	current := model.ValueString(fv.Value)
	switch q.Type {
	case model.QuestionTypeChoice:
		if len(fv.Options) == 0 {
			return nil, false, f.driver.Info(ctx, fmt.Sprintf("No options available for %s yet.", fv.Label))
		}
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      fv.Label,
			Options:      labels(fv.Options),
			DefaultIndex: optionIndex(fv.Options, current),
		})
		if err != nil || idx < 0 || idx >= len(fv.Options) {
			return nil, false, err
		}
		return fv.Options[idx].Value, true, nil

	case model.QuestionTypeCheckbox:
		if len(fv.Options) == 0 {
			return nil, false, f.driver.Info(ctx, fmt.Sprintf("No options available for %s yet.", fv.Label))
		}
		var defaults []int
		for _, selected := range model.ToStrings(fv.Value) {
			if idx := optionIndex(fv.Options, selected); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: fv.Label, Options: labels(fv.Options), Defaults: defaults})
		if err != nil {
			return nil, false, err
		}
		values := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(fv.Options) {
				values = append(values, fv.Options[idx].Value)
			}
		}
		return values, true, nil

	case model.QuestionTypeNumber:
		for {
			input, err := f.driver.Input(ctx, InputConfig{Message: fv.Label, Default: current})
			if err != nil {
				return nil, false, err
			}
			input = strings.TrimSpace(input)
			if input == "" {
				return nil, true, nil
			}
			parsed, err := strconv.ParseFloat(input, 64)
			if err != nil {
				if err := f.driver.Info(ctx, fmt.Sprintf("Invalid %s: %q is not a number", fv.Label, input)); err != nil {
					return nil, false, err
				}
				continue
			}
			return parsed, true, nil
		}

	case model.QuestionTypeParagraph:
		text, err := f.driver.TextArea(ctx, TextAreaConfig{Message: fv.Label, Default: current})
		if err != nil {
			return nil, false, err
		}
		return text, true, nil

	default:
		text, err := f.driver.Input(ctx, InputConfig{Message: fv.Label, Default: current})
		if err != nil {
			return nil, false, err
		}
		return strings.TrimSpace(text), true, nil
	}
}

func labels(opts []options.Option) []string {
	out := make([]string, 0, len(opts))
	for _, opt := range opts {
		out = append(out, opt.Label)
	}
	return out
}

func optionIndex(opts []options.Option, value string) int {
	for i, opt := range opts {
		if opt.Value == value {
			return i
		}
	}
	return -1
}
