package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/hmaldonadovilla/community-kitchen-sub000/internal/prompt"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/definition"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
)

func main() {
	formsDir := flag.String("forms", "forms", "directory holding form definitions")
	optionsDir := flag.String("options", "options", "directory serving fs option sources")
	formID := flag.String("form", "", "form id to fill (defaults to the only form in -forms)")
	language := flag.String("lang", "", "display language (defaults to the form's default language)")
	input := flag.String("state", "", "saved state JSON to start from")
	output := flag.String("output", "", "file receiving the final state JSON (stdout if empty)")
	batch := flag.Bool("batch", false, "settle and validate -state without prompting")
	httpTimeout := flag.Duration("http-timeout", 10*time.Second, "timeout for url option sources")
	verbose := flag.Bool("v", false, "log engine passes to stderr")
	flag.Parse()

	ctx := context.Background()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	forms, err := definition.LoadFS(os.DirFS(*formsDir), definition.WithLint())
	if err != nil {
		log.Fatalf("Failed to load forms: %v", err)
	}
	def, err := pickForm(forms, *formID)
	if err != nil {
		log.Fatalf("Failed to select form: %v", err)
	}

	lang := strings.ToLower(strings.TrimSpace(*language))
	if lang == "" {
		lang = def.Language()
	}

	store := optionsource.NewStore()
	loader := optionsource.New(
		optionsource.WithFileSystem(os.DirFS(*optionsDir)),
		optionsource.WithHTTPFallback(*httpTimeout),
	)
	if err := optionsource.Fetch(ctx, loader, store, lang, def); err != nil {
		logger.Warn("option sources failed to load", "form", def.ID, "error", err)
	}

	orch := orchestrator.New(def,
		orchestrator.WithLogger(logger),
		orchestrator.WithOptionStore(store),
		orchestrator.WithLanguage(lang),
	)

	state, err := readState(*input)
	if err != nil {
		log.Fatalf("Failed to read state: %v", err)
	}

	if *batch {
		state, _, err = orch.Load(state)
	} else {
		var filler *prompt.Filler
		filler, err = prompt.New(orch)
		if err != nil {
			log.Fatalf("Failed to start prompts: %v", err)
		}
		state, err = filler.Fill(ctx, state)
	}
	switch {
	case errors.Is(err, prompt.ErrAborted):
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(1)
	case errors.Is(err, orchestrator.ErrNotConverged):
		logger.Warn("state did not settle", "form", def.ID)
	case err != nil:
		log.Fatalf("Failed to fill form: %v", err)
	}

	view, err := orch.View(state)
	if err != nil {
		log.Fatalf("Failed to build view: %v", err)
	}
	errs, err := orch.Validate(state, model.PhaseSubmit)
	if err != nil {
		log.Fatalf("Failed to validate: %v", err)
	}
	fmt.Fprintln(os.Stderr, prompt.ValueTable(view))
	fmt.Fprintln(os.Stderr, prompt.ErrorTable(errs))

	if err := writeState(*output, state); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	if len(errs) > 0 {
		os.Exit(2)
	}
}

func pickForm(forms *definition.Store, id string) (*model.FormDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		ids := forms.IDs()
		if len(ids) != 1 {
			return nil, fmt.Errorf("found %d forms, pass -form (available: %s)", len(ids), strings.Join(ids, ", "))
		}
		id = ids[0]
	}
	def, ok := forms.Definition(id)
	if !ok {
		return nil, fmt.Errorf("form %q not found", id)
	}
	return def, nil
}

func readState(path string) (orchestrator.State, error) {
	var state orchestrator.State
	if strings.TrimSpace(path) == "" {
		return state, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("decode %s: %w", path, err)
	}
	return state, nil
}

func writeState(path string, state orchestrator.State) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println(string(raw))
		return nil
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "State written to %s\n", path)
	return nil
}
