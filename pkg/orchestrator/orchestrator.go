package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/expr"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/lineitems"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/validation"
)

const defaultMaxPasses = 2

var (
	// ErrNotConverged is returned with the last computed state when the
	// final allowed pass still changed it.
	ErrNotConverged = errors.New("orchestrator: state did not settle within the pass limit")
	ErrUnknownField = errors.New("orchestrator: unknown field")
	ErrUnknownGroup = errors.New("orchestrator: unknown group")
	ErrUnknownRow   = errors.New("orchestrator: unknown row")
	// ErrAutoRow rejects removing rows the reconciler owns; they would be
	// recreated on the next pass.
	ErrAutoRow  = errors.New("orchestrator: auto rows are managed by the reconciler")
	ErrNoAnchor = errors.New("orchestrator: group has no anchor field")
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithIDGenerator sets the generator used for new row ids. Defaults to UUIDs.
func WithIDGenerator(ids lineitems.IDGenerator) Option {
	return func(o *Orchestrator) {
		o.ids = ids
	}
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithOptionStore supplies externally loaded option sets. Sets may be added
// to the store at any time; the next pass picks them up.
func WithOptionStore(store *optionsource.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithLanguage selects the language used for labels and messages. The
// definition's default language stays the fallback.
func WithLanguage(language string) Option {
	return func(o *Orchestrator) {
		o.language = language
	}
}

// WithMaxPasses bounds the settle loop. Values below one keep the default.
func WithMaxPasses(n int) Option {
	return func(o *Orchestrator) {
		o.maxPasses = n
	}
}

// WithFormatter overrides the validation message formatter.
func WithFormatter(f *validation.Formatter) Option {
	return func(o *Orchestrator) {
		o.formatter = f
	}
}

// WithDecorators registers decorators that run against the definition after
// shorthand conditions are compiled.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// Orchestrator applies events to form state. It holds no state of its own
// beyond configuration; every operation takes a snapshot and returns a new
// one, so a single Orchestrator may serve many sessions.
type Orchestrator struct {
	def           *model.FormDefinition
	ids           lineitems.IDGenerator
	logger        *slog.Logger
	store         *optionsource.Store
	language      string
	maxPasses     int
	formatter     *validation.Formatter
	decorators    []model.Decorator
	initialiseErr error
}

// New constructs an Orchestrator for def. Shorthand conditions of def are
// compiled in place. Configuration errors surface on the first operation.
func New(def *model.FormDefinition, options ...Option) *Orchestrator {
	o := &Orchestrator{def: def}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.def == nil {
		o.initialiseErr = errors.New("orchestrator: definition is required")
		return
	}
	if o.ids == nil {
		o.ids = lineitems.NewUUIDs()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.store == nil {
		o.store = optionsource.NewStore()
	}
	if o.language == "" {
		o.language = o.def.Language()
	}
	if o.maxPasses <= 0 {
		o.maxPasses = defaultMaxPasses
	}
	if o.formatter == nil {
		o.formatter = validation.NewFormatter()
	}

	decorators := append([]model.Decorator{expr.Decorator()}, o.decorators...)
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(o.def); err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: decorate definition: %w", err)
			return
		}
	}
}

// Definition returns the definition the orchestrator runs.
func (o *Orchestrator) Definition() *model.FormDefinition {
	return o.def
}

// OptionStore returns the store consulted for externally loaded options.
func (o *Orchestrator) OptionStore() *optionsource.Store {
	return o.store
}

// Language returns the active language.
func (o *Orchestrator) Language() string {
	return o.language
}

// State is one snapshot of the caller-owned form state.
type State struct {
	Values    model.Values    `json:"values"`
	LineItems model.LineItems `json:"lineItems"`
}

func (s State) clone() State {
	return State{Values: s.Values.Clone(), LineItems: s.LineItems.Clone()}
}

// Change is a value write. Top-level fields leave GroupKey empty. Row fields
// name the group instance key and the row. A section selector is written
// with GroupKey set and RowID empty.
type Change struct {
	FieldID  string
	GroupKey string
	RowID    string
	Value    any
}

// Outcome summarises what an operation did beyond the direct write.
type Outcome struct {
	// Passes is the number of settle passes that ran.
	Passes int
	// Targets lists the line-item instance keys that effects, the reconciler
	// or row removal changed, in first-seen order.
	Targets []string
}

func (out *Outcome) touch(keys ...string) {
	for _, key := range keys {
		seen := false
		for _, existing := range out.Targets {
			if existing == key {
				seen = true
				break
			}
		}
		if !seen {
			out.Targets = append(out.Targets, key)
		}
	}
}

func (o *Orchestrator) ready() error {
	if o == nil {
		return errors.New("orchestrator: nil orchestrator")
	}
	return o.initialiseErr
}

// Load settles a freshly loaded record: auto groups are reconciled and
// derived fields refreshed without any effect dispatch.
func (o *Orchestrator) Load(state State) (State, Outcome, error) {
	if err := o.ready(); err != nil {
		return state, Outcome{}, err
	}
	var out Outcome
	next, err := o.settle(state.clone(), &out)
	return next, out, err
}

// SetValue writes change, dispatches the selection effects it triggers and
// settles the result. The input state is never mutated.
func (o *Orchestrator) SetValue(state State, change Change) (State, Outcome, error) {
	if err := o.ready(); err != nil {
		return state, Outcome{}, err
	}
	next := state.clone()
	if err := o.write(&next, change); err != nil {
		return state, Outcome{}, err
	}

	var out Outcome
	batch := o.newBatch(next)
	o.walkEffects(next, func(inst instance) {
		self := inst.field.ID == change.FieldID && inst.key == change.GroupKey && inst.rowID == change.RowID
		if !self && !dependsOn(inst.field, change.FieldID) {
			return
		}
		o.dispatch(batch, inst, false)
	})
	next = o.commit(next, batch, &out)

	settled, err := o.settle(next, &out)
	return settled, out, err
}

// AddRow appends a manual row to the group instance groupKey and returns its
// id.
func (o *Orchestrator) AddRow(state State, groupKey string, preset model.Values) (State, string, Outcome, error) {
	if err := o.ready(); err != nil {
		return state, "", Outcome{}, err
	}
	next := state.clone()
	if _, err := o.target(next, groupKey); err != nil {
		return state, "", Outcome{}, err
	}

	values := preset.Clone()
	values[model.RowSourceKey] = model.RowSourceManual
	row := model.Row{ID: o.ids.NewID(), Values: values}
	next.LineItems[groupKey] = append(next.LineItems[groupKey], row)

	out := Outcome{}
	out.touch(groupKey)
	settled, err := o.settle(next, &out)
	return settled, row.ID, out, err
}

// AddRows implements overlay adds: one manual row per selected anchor value
// not yet present in the instance.
func (o *Orchestrator) AddRows(state State, groupKey string, anchorValues []string) (State, Outcome, error) {
	if err := o.ready(); err != nil {
		return state, Outcome{}, err
	}
	next := state.clone()
	t, err := o.target(next, groupKey)
	if err != nil {
		return state, Outcome{}, err
	}
	if t.cfg.AnchorFieldID == "" {
		return state, Outcome{}, fmt.Errorf("%w: %s", ErrNoAnchor, groupKey)
	}

	cfg := lineitems.OverlayConfig{AnchorFieldID: t.cfg.AnchorFieldID, IDs: o.ids}
	if sel := t.cfg.SectionSelector; sel != nil {
		cfg.SectionSelectorID = sel.ID
		cfg.SectionSelectorValue = t.container(next).Get(sel.ID)
	}
	res := lineitems.AddOverlayRows(next.LineItems[groupKey], anchorValues, cfg)

	var out Outcome
	if res.Changed {
		next.LineItems[groupKey] = res.Rows
		out.touch(groupKey)
		o.logger.Debug("overlay rows added", "group", groupKey, "added", res.Added)
	}
	settled, err := o.settle(next, &out)
	return settled, out, err
}

// RemoveRow removes a manual or effect row. Effects fired from the row are
// retracted first and the row's sub-group instances go with it.
func (o *Orchestrator) RemoveRow(state State, groupKey, rowID string) (State, Outcome, error) {
	if err := o.ready(); err != nil {
		return state, Outcome{}, err
	}
	next := state.clone()
	t, err := o.target(next, groupKey)
	if err != nil {
		return state, Outcome{}, err
	}
	idx := findRow(next.LineItems[groupKey], rowID)
	if idx < 0 {
		return state, Outcome{}, fmt.Errorf("%w: %s[%s]", ErrUnknownRow, groupKey, rowID)
	}
	row := next.LineItems[groupKey][idx]
	if row.AutoGenerated || row.Source() == model.RowSourceAuto {
		return state, Outcome{}, fmt.Errorf("%w: %s[%s]", ErrAutoRow, groupKey, rowID)
	}

	var out Outcome
	batch := o.newBatch(next)
	o.walkEffects(next, func(inst instance) {
		owned := inst.key == groupKey && inst.rowID == rowID
		child := t.subID == "" && inst.topGroup == t.groupID && inst.parentRowID == rowID
		if owned || child {
			o.dispatch(batch, inst, true)
		}
	})
	next = o.commit(next, batch, &out)

	rows := next.LineItems[groupKey]
	if idx = findRow(rows, rowID); idx >= 0 {
		kept := make([]model.Row, 0, len(rows)-1)
		kept = append(kept, rows[:idx]...)
		next.LineItems[groupKey] = append(kept, rows[idx+1:]...)
	}
	out.touch(groupKey)
	if t.subID == "" {
		for i := range t.cfg.SubGroups {
			key := model.InstanceKey(t.groupID, rowID, t.cfg.SubGroups[i].ID)
			if _, ok := next.LineItems[key]; ok {
				delete(next.LineItems, key)
				out.touch(key)
			}
		}
	}

	settled, err := o.settle(next, &out)
	return settled, out, err
}

// Validate runs the full sweep in phase. An empty phase means submit.
func (o *Orchestrator) Validate(state State, phase model.RulePhase) ([]validation.ValidationError, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	if phase == "" {
		phase = model.PhaseSubmit
	}
	return validation.Validate(o.def, state.Values, state.LineItems,
		validation.WithPhase(phase),
		validation.WithLanguage(o.language, o.def.Language()),
		validation.WithFormatter(o.formatter),
	), nil
}

// optionSet prefers externally loaded sets over inline ones. nil means no
// options have arrived yet.
func (o *Orchestrator) optionSet(field model.QuestionDefinition, instanceKey string) *model.OptionSet {
	if set, ok := o.store.Get(field.ID, instanceKey); ok {
		return &set
	}
	return field.Options
}
