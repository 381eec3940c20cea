// Package testsupport holds fixture and golden-file helpers shared by the
// engine tests. Goldens are rewritten when UPDATE_GOLDENS is set.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/definition"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
)

// MustLoadDefinition parses a definition fixture with the default
// decorators and lint enabled.
func MustLoadDefinition(t *testing.T, path string) *model.FormDefinition {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	def, err := definition.Parse(data, filepath.Base(path), definition.WithLint())
	if err != nil {
		t.Fatalf("parse definition: %v", err)
	}
	return def
}

// LoadState reads a JSON state snapshot, returning an error for callers
// managing setup outside of *testing.T.
func LoadState(path string) (orchestrator.State, error) {
	if path == "" {
		return orchestrator.State{}, errors.New("testsupport: state path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return orchestrator.State{}, fmt.Errorf("testsupport: read state: %w", err)
	}
	var out orchestrator.State
	if err := json.Unmarshal(data, &out); err != nil {
		return orchestrator.State{}, fmt.Errorf("testsupport: unmarshal state: %w", err)
	}
	return out, nil
}

// MustLoadState loads a JSON state snapshot.
func MustLoadState(t *testing.T, path string) orchestrator.State {
	t.Helper()

	state, err := LoadState(path)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return state
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
// Returns true if the golden was written.
func WriteGolden(t *testing.T, path string, value any) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareState returns a diff between two snapshots. Nil and empty maps
// compare equal since they do not survive a JSON round trip alike.
func CompareState(want, got orchestrator.State) string {
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}

// AssertGoldenState compares got with the snapshot at path after a JSON round
// trip, so numbers and lists are compared in their decoded form.
func AssertGoldenState(t *testing.T, path string, got orchestrator.State) {
	t.Helper()

	if WriteGolden(t, path, got) {
		return
	}
	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var decoded orchestrator.State
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	want := MustLoadState(t, path)
	if diff := CompareState(want, decoded); diff != "" {
		t.Fatalf("state mismatch with %s (-want +got):\n%s", path, diff)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
