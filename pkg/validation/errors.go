// Package validation evaluates required-field checks and conditional
// validation rules. Hidden fields never fail validation, and every violation
// is returned in one pass.
package validation

import (
	"strings"
)

// Kind classifies a validation error.
type Kind string

const (
	KindRequired Kind = "required"
	KindRule     Kind = "rule"
)

// ValidationError is one violation, keyed by a stable path:
// "field", "group[row].field" or "group[row].sub[row].field".
type ValidationError struct {
	Kind    Kind   `json:"kind"`
	FieldID string `json:"fieldId"`
	GroupID string `json:"groupId,omitempty"`
	RowID   string `json:"rowId,omitempty"`
	RuleID  string `json:"ruleId,omitempty"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return "validation: " + e.Path + ": " + e.Message
}

// RowPath renders the path segment of a row inside a group instance.
func RowPath(prefix, groupID, rowID string) string {
	segment := groupID + "[" + rowID + "]"
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

// FieldPath joins a row path and a field id.
func FieldPath(prefix, fieldID string) string {
	if prefix == "" {
		return fieldID
	}
	return prefix + "." + fieldID
}

// GroupByPath collects messages per path for presentation. Messages are
// trimmed and deduplicated, keeping first-seen order.
func GroupByPath(errs []ValidationError) map[string][]string {
	if len(errs) == 0 {
		return nil
	}
	grouped := make(map[string][]string)
	for _, err := range errs {
		grouped[err.Path] = append(grouped[err.Path], err.Message)
	}
	for path, messages := range grouped {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			delete(grouped, path)
			continue
		}
		grouped[path] = normalized
	}
	if len(grouped) == 0 {
		return nil
	}
	return grouped
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
