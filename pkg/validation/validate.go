package validation

import (
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/expr"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/options"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/visibility"
)

// Context is what a validation pass reads: field values plus the hidden
// state of each field.
type Context interface {
	expr.Context
	IsHidden(fieldID string) bool
}

type config struct {
	phase     model.RulePhase
	language  string
	fallback  string
	formatter *Formatter
	labels    map[string]model.LocalizedText
}

// Option customises a validation pass.
type Option func(*config)

// WithPhase selects the rule phase. Validate defaults to PhaseSubmit.
func WithPhase(phase model.RulePhase) Option {
	return func(c *config) {
		c.phase = phase
	}
}

// WithLanguage selects the message language and its fallback.
func WithLanguage(language, fallback string) Option {
	return func(c *config) {
		c.language = language
		c.fallback = fallback
	}
}

// WithFormatter replaces the message formatter.
func WithFormatter(f *Formatter) Option {
	return func(c *config) {
		c.formatter = f
	}
}

// WithLabels supplies field labels used by message templates.
func WithLabels(fields ...model.QuestionDefinition) Option {
	return func(c *config) {
		if c.labels == nil {
			c.labels = make(map[string]model.LocalizedText, len(fields))
		}
		for _, field := range fields {
			c.labels[field.ID] = field.Label
		}
	}
}

var defaultFormatter = NewFormatter()

func newConfig(opts []Option) *config {
	cfg := &config{language: "en"}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.formatter == nil {
		cfg.formatter = defaultFormatter
	}
	return cfg
}

func (c *config) label(fieldID string) string {
	if text := options.ResolveText(c.labels[fieldID], c.language, c.fallback); text != "" {
		return text
	}
	return fieldID
}

// RunsIn reports whether a rule declared for rulePhase runs in phase. The
// change phase skips submit-only rules; the submit phase runs every rule.
func RunsIn(rulePhase, phase model.RulePhase) bool {
	if rulePhase == model.PhaseSubmit {
		return phase == model.PhaseSubmit
	}
	return true
}

// ValidateRules evaluates rules against ctx and returns one error per rule
// whose When matches. Rules targeting a hidden field are skipped, as are
// rules gated to another phase. Malformed conditions never fire.
func ValidateRules(rules []model.ValidationRule, ctx Context, phase model.RulePhase, opts ...Option) []ValidationError {
	cfg := newConfig(opts)
	cfg.phase = phase
	return cfg.rules(rules, "", ctx, location{})
}

// CheckRequired reports every visible required field that is empty. Groups
// are skipped; their rows are checked by Validate.
func CheckRequired(fields []model.QuestionDefinition, ctx Context, opts ...Option) []ValidationError {
	cfg := newConfig(opts)
	return cfg.required(fields, ctx, location{})
}

// Validate sweeps the whole form: top-level fields, every row of every
// visible group and every sub-group row. Rows of a hidden group are never
// validated.
func Validate(def *model.FormDefinition, values model.Values, lineItems model.LineItems, opts ...Option) []ValidationError {
	if def == nil {
		return nil
	}
	cfg := newConfig(append([]Option{WithPhase(model.PhaseSubmit), WithLanguage(def.Language(), def.Language())}, opts...))
	if cfg.labels == nil {
		WithLabels(collectFields(def)...)(cfg)
	}

	ctx := visibility.NewEvaluator(expr.ValuesContext{Values: values}, nil, def.Questions)

	var errs []ValidationError
	for _, q := range def.Questions {
		if !q.IsGroup() {
			errs = append(errs, cfg.required([]model.QuestionDefinition{q}, ctx, location{})...)
			errs = append(errs, cfg.rules(q.ValidationRules, q.ID, ctx, location{})...)
			continue
		}
		if ctx.IsHidden(q.ID) {
			continue
		}
		errs = append(errs, cfg.rules(q.ValidationRules, q.ID, ctx, location{})...)
		errs = append(errs, cfg.group(q.ID, q.LineItemConfig, values, lineItems[q.ID], lineItems, location{}, ctx)...)
	}
	return errs
}

type location struct {
	prefix  string
	groupID string
	rowID   string
}

func (c *config) group(groupID string, group *model.LineItemGroupConfig, container model.Values, rows []model.Row, lineItems model.LineItems, at location, containerCtx Context) []ValidationError {
	var errs []ValidationError
	if sel := group.SectionSelector; sel != nil {
		selAt := location{prefix: FieldPath(at.prefix, groupID), groupID: groupID}
		hidden := visibility.ShouldHideField(sel.Visibility, containerCtx, nil)
		if !hidden && sel.Required && model.IsEmpty(container.Get(sel.ID)) {
			errs = append(errs, c.requiredError(*sel, selAt))
		}
	}

	for _, row := range rows {
		ctx := visibility.NewEvaluator(
			expr.ValuesContext{Values: container, Rows: map[string]model.Values{row.ID: row.Values}},
			expr.NewRowScope(row.ID, group),
			group.Fields,
		)
		rowAt := location{prefix: RowPath(at.prefix, groupID, row.ID), groupID: groupID, rowID: row.ID}
		errs = append(errs, c.required(group.Fields, ctx, rowAt)...)
		for _, field := range group.Fields {
			errs = append(errs, c.rules(field.ValidationRules, field.ID, ctx, rowAt)...)
		}

		for i := range group.SubGroups {
			sub := &group.SubGroups[i]
			key := model.InstanceKey(groupID, row.ID, sub.ID)
			parent := mergeLayers(row.Values, container)
			errs = append(errs, c.group(sub.ID, &sub.LineItemGroupConfig, parent, lineItems[key], lineItems, rowAt, ctx)...)
		}
	}
	return errs
}

func (c *config) required(fields []model.QuestionDefinition, ctx Context, at location) []ValidationError {
	var errs []ValidationError
	for _, field := range fields {
		if field.IsGroup() || !field.Required {
			continue
		}
		if ctx.IsHidden(field.ID) {
			continue
		}
		if !model.IsEmpty(ctx.GetValue(field.ID)) {
			continue
		}
		errs = append(errs, c.requiredError(field, at))
	}
	return errs
}

func (c *config) requiredError(field model.QuestionDefinition, at location) ValidationError {
	label := options.ResolveText(field.Label, c.language, c.fallback)
	if label == "" {
		label = c.label(field.ID)
	}
	return ValidationError{
		Kind:    KindRequired,
		FieldID: field.ID,
		GroupID: at.groupID,
		RowID:   at.rowID,
		Path:    FieldPath(at.prefix, field.ID),
		Message: c.formatter.Required(c.language, c.fallback, MessageData{FieldID: field.ID, Label: label}),
	}
}

func (c *config) rules(rules []model.ValidationRule, owner string, ctx Context, at location) []ValidationError {
	var errs []ValidationError
	for _, rule := range rules {
		if !RunsIn(rule.Phase, c.phase) {
			continue
		}
		target := rule.Then.FieldID
		if target == "" {
			target = owner
		}
		if target != "" && ctx.IsHidden(target) {
			continue
		}
		if rule.When == nil {
			continue
		}
		fired, err := expr.Check(rule.When, ctx)
		if err != nil || !fired {
			continue
		}
		errs = append(errs, ValidationError{
			Kind:    KindRule,
			FieldID: target,
			GroupID: at.groupID,
			RowID:   at.rowID,
			RuleID:  rule.ID,
			Path:    FieldPath(at.prefix, target),
			Message: c.formatter.Message(rule.Then.Message, c.language, c.fallback, MessageData{
				FieldID: target,
				Label:   c.label(target),
				Value:   ctx.GetValue(target),
			}),
		})
	}
	return errs
}

// mergeLayers overlays the non-empty values of top onto a copy of base so
// lookups see row values before container values.
func mergeLayers(top, base model.Values) model.Values {
	out := base.Clone()
	for key, value := range top {
		if !model.IsEmpty(value) {
			out[key] = value
		}
	}
	return out
}

func collectFields(def *model.FormDefinition) []model.QuestionDefinition {
	var fields []model.QuestionDefinition
	var walk func(cfg *model.LineItemGroupConfig)
	walk = func(cfg *model.LineItemGroupConfig) {
		if cfg.SectionSelector != nil {
			fields = append(fields, *cfg.SectionSelector)
		}
		fields = append(fields, cfg.Fields...)
		for i := range cfg.SubGroups {
			walk(&cfg.SubGroups[i].LineItemGroupConfig)
		}
	}
	for _, q := range def.Questions {
		fields = append(fields, q)
		if q.LineItemConfig != nil {
			walk(q.LineItemConfig)
		}
	}
	return fields
}
