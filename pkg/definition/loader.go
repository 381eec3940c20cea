// Package definition loads form definitions from JSON or YAML documents,
// runs decorators over them (shorthand compilation, defaults) and lints them
// for authoring mistakes.
package definition

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/expr"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Store holds the definitions loaded from a filesystem, keyed by form id.
type Store struct {
	forms   map[string]*model.FormDefinition
	sources map[string]string
}

type config struct {
	decorators []model.Decorator
	lint       bool
}

// Option customises Parse and LoadFS.
type Option func(*config)

// WithDecorators appends decorators that run after the built-in ones.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(c *config) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// WithLint rejects definitions that report lint issues.
func WithLint() Option {
	return func(c *config) {
		c.lint = true
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{decorators: []model.Decorator{Defaults(), expr.Decorator()}}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// Parse decodes one definition document, trying JSON first and YAML second,
// then runs the decorators.
func Parse(data []byte, source string, opts ...Option) (*model.FormDefinition, error) {
	cfg := newConfig(opts)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("definition: file %s is empty", source)
	}

	var def model.FormDefinition
	if err := json.Unmarshal(trimmed, &def); err != nil {
		def = model.FormDefinition{}
		if yerr := yaml.Unmarshal(trimmed, &def); yerr != nil {
			return nil, fmt.Errorf("definition: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}

	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return nil, fmt.Errorf("definition: file %s does not declare an id", source)
	}

	for _, decorator := range cfg.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&def); err != nil {
			return nil, fmt.Errorf("definition: %s: %w", source, err)
		}
	}

	if cfg.lint {
		if issues := Lint(&def); len(issues) > 0 {
			return nil, &LintError{Source: source, Issues: issues}
		}
	}
	return &def, nil
}

// LoadFS walks fsys and parses every JSON/YAML file into the store. A nil
// filesystem yields an empty store.
func LoadFS(fsys fs.FS, opts ...Option) (*Store, error) {
	store := &Store{
		forms:   make(map[string]*model.FormDefinition),
		sources: make(map[string]string),
	}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		def, err := Parse(data, path, opts...)
		if err != nil {
			return err
		}
		if previous, exists := store.sources[def.ID]; exists {
			return fmt.Errorf("definition: duplicate form %q (files %s and %s)", def.ID, previous, path)
		}
		store.forms[def.ID] = def
		store.sources[def.ID] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Definition returns the form with the supplied id.
func (s *Store) Definition(id string) (*model.FormDefinition, bool) {
	if s == nil {
		return nil, false
	}
	def, ok := s.forms[id]
	return def, ok
}

// Source returns the file a form was loaded from.
func (s *Store) Source(id string) string {
	if s == nil {
		return ""
	}
	return s.sources[id]
}

// IDs lists the loaded form ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
