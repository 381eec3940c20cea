package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// RowSourceKey is the reserved row value that records row provenance so it
// survives a save/reload cycle where AutoGenerated/EffectContextID are lost.
const RowSourceKey = "__rowSource"

// Row provenance markers stored under RowSourceKey.
const (
	RowSourceAuto   = "auto"
	RowSourceEffect = "effect"
	RowSourceManual = "manual"
)

// Values maps a field id to its current value.
type Values map[string]any

// Clone returns a shallow copy of the map.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Get returns the value stored under id (nil when absent).
func (v Values) Get(id string) any {
	if v == nil {
		return nil
	}
	return v[id]
}

// Row is one instance of a line-item group.
type Row struct {
	ID              string `json:"id" yaml:"id"`
	Values          Values `json:"values" yaml:"values"`
	AutoGenerated   bool   `json:"autoGenerated,omitempty" yaml:"autoGenerated,omitempty"`
	EffectContextID string `json:"effectContextId,omitempty" yaml:"effectContextId,omitempty"`
}

// Source returns the provenance marker of the row.
func (r Row) Source() string {
	return ValueString(r.Values.Get(RowSourceKey))
}

// Clone returns a copy of the row with its own values map.
func (r Row) Clone() Row {
	out := r
	out.Values = r.Values.Clone()
	return out
}

// LineItems maps a group instance key to the rows of that instance.
type LineItems map[string][]Row

// Clone copies the map and each row slice; row values maps are shared and
// must be cloned before mutation.
func (l LineItems) Clone() LineItems {
	out := make(LineItems, len(l))
	for key, rows := range l {
		out[key] = append([]Row(nil), rows...)
	}
	return out
}

const instanceKeySeparator = "::"

// InstanceKey identifies the rows of subGroupID that belong to parentRowID of
// parentGroupID. Top-level groups use their own id as instance key.
func InstanceKey(parentGroupID, parentRowID, subGroupID string) string {
	return parentGroupID + instanceKeySeparator + parentRowID + instanceKeySeparator + subGroupID
}

// ParseInstanceKey splits a sub-group instance key. ok is false for top-level
// group keys.
func ParseInstanceKey(key string) (parentGroupID, parentRowID, subGroupID string, ok bool) {
	parts := strings.Split(key, instanceKeySeparator)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// IsEmpty reports whether a value counts as empty: nil, a string that is
// blank after trimming, or an empty slice/map. Zero numbers and false are
// values, not emptiness.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ValueString renders a scalar value the way option values and dependency
// keys are written: whole floats lose their decimals, nil becomes "".
func ValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(value)
	}
}

// ToStrings flattens a value into its non-empty string members. Lists yield
// one entry per element; scalars yield at most one entry.
func ToStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, ToStrings(item)...)
		}
		return out
	}
	if s := strings.TrimSpace(ValueString(value)); s != "" {
		return []string{s}
	}
	return nil
}

// DependencyKeySeparator joins the values of multi-field dependency keys.
const DependencyKeySeparator = "||"

// WildcardKey matches any dependency key.
const WildcardKey = "*"

// DependencyKeys builds the lookup keys for a list of dependency values. Each
// dependency contributes its flattened members; multi-field dependencies
// produce the cartesian product joined with DependencyKeySeparator. Any empty
// dependency yields no keys.
func DependencyKeys(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	keys := []string{""}
	for idx, value := range values {
		members := ToStrings(value)
		if len(members) == 0 {
			return nil
		}
		next := make([]string, 0, len(keys)*len(members))
		for _, prefix := range keys {
			for _, member := range members {
				if idx == 0 {
					next = append(next, member)
					continue
				}
				next = append(next, prefix+DependencyKeySeparator+member)
			}
		}
		keys = next
	}
	return dedupe(keys)
}

// NormalizeDependencyKey lower-cases and trims each part of a dependency key
// so option maps match case-insensitively.
func NormalizeDependencyKey(key string) string {
	parts := strings.Split(key, DependencyKeySeparator)
	for i, part := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return strings.Join(parts, DependencyKeySeparator)
}

// Lookup resolves a field id to its current value.
type Lookup func(fieldID string) any

// Chain returns a Lookup that consults each layer in order and returns the
// first non-empty value. Callers pass the row values first, then the parent
// row, then the top-level form values.
func Chain(layers ...Values) Lookup {
	return func(fieldID string) any {
		for _, layer := range layers {
			if layer == nil {
				continue
			}
			if value, ok := layer[fieldID]; ok && !IsEmpty(value) {
				return value
			}
		}
		return nil
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// Dedupe removes duplicate strings while preserving first-seen order.
func Dedupe(values []string) []string {
	return dedupe(values)
}
