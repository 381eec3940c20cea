// Package kitchenforms is the top-level entry point of the form rule engine.
// It re-exports the state types of pkg/orchestrator and wires definition
// loading, option sources and the orchestrator together for callers that
// just want a ready engine for one form.
package kitchenforms

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/definition"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/validation"
)

// State is the value snapshot of one form session.
type State = orchestrator.State

// Change addresses one field write.
type Change = orchestrator.Change

// Outcome reports which line-item instances an operation touched.
type Outcome = orchestrator.Outcome

// ValidationError aliases validation.ValidationError for callers presenting
// submit results.
type ValidationError = validation.ValidationError

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(def *model.FormDefinition, options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(def, options...)
}

// Open loads the definitions in forms (rejecting lint issues), fetches the
// option sources of form id in language and returns an orchestrator bound to
// the loaded option store. options resolves "fs" option sources and may be
// nil. Option sources that fail to load are reported in the returned error
// alongside a usable orchestrator.
func Open(ctx context.Context, forms, options fs.FS, id, language string, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	store, err := LoadDefinitions(forms, definition.WithLint())
	if err != nil {
		return nil, err
	}
	def, ok := store.Definition(id)
	if !ok {
		return nil, fmt.Errorf("kitchenforms: form %q not found", id)
	}
	if language == "" {
		language = def.Language()
	}

	sets := optionsource.NewStore()
	fetchErr := optionsource.Fetch(ctx, NewSourceLoader(optionsource.WithFileSystem(options)), sets, language, def)

	all := append([]orchestrator.Option{
		orchestrator.WithOptionStore(sets),
		orchestrator.WithLanguage(language),
	}, opts...)
	return orchestrator.New(def, all...), fetchErr
}

// OpenBuiltin opens one of the forms shipped with the module.
func OpenBuiltin(ctx context.Context, id, language string, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return Open(ctx, FormsFS(), OptionsFS(), id, language, opts...)
}
