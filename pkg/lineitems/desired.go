// Package lineitems keeps the rows of auto-add line-item groups in step with
// the options currently allowed for their anchor field. Manual rows are
// never touched; auto rows are matched by anchor value, updated, dropped or
// created so that each allowed anchor value has exactly one row.
package lineitems

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/options"
)

const contextPrefix = "auto"

// AutoInput describes one reconciliation target.
type AutoInput struct {
	// TargetKey is the line-item instance key of the target.
	TargetKey string
	Anchor    model.QuestionDefinition
	// DependencyValues holds one value per Anchor.OptionFilter.DependsOn
	// entry, resolved row first, then parent row, then top level.
	DependencyValues []any
	// Options is the anchor's base option set; nil means none loaded yet.
	Options          *model.OptionSet
	Language         string
	FallbackLanguage string
}

// Desired is the computed anchor value set of a target.
type Desired struct {
	Values    []string
	ContextID string
	// Valid is false when a dependency value is missing; Values is then
	// empty so existing auto rows are torn down.
	Valid bool
	// Pending is set when the dependencies are present but the anchor's
	// option set has not arrived. Existing rows are left as they are.
	Pending bool
}

// ComputeAutoDesired resolves the anchor values a target should have rows
// for. Identical inputs always produce identical results.
func ComputeAutoDesired(in AutoInput) Desired {
	var dependsOn []string
	if in.Anchor.OptionFilter != nil {
		dependsOn = in.Anchor.OptionFilter.DependsOn
	}
	deps := make([]any, len(dependsOn))
	copy(deps, in.DependencyValues)

	desired := Desired{ContextID: ContextID(in.TargetKey, deps)}
	for _, value := range deps {
		if model.IsEmpty(value) {
			return desired
		}
	}
	desired.Valid = true
	if in.Options == nil {
		desired.Pending = true
		return desired
	}

	allowed := options.ComputeAllowedOptions(in.Anchor.OptionFilter, in.Options, deps)
	localized := options.BuildLocalizedOptions(in.Options, allowed, in.Language, in.FallbackLanguage)
	values := make([]string, 0, len(localized))
	for _, opt := range localized {
		values = append(values, opt.Value)
	}
	desired.Values = model.Dedupe(values)
	return desired
}

// ContextPrefix is shared by every context id of targetKey.
func ContextPrefix(targetKey string) string {
	return contextPrefix + "|" + targetKey + "|"
}

// ContextID serializes the target key and dependency values.
func ContextID(targetKey string, deps []any) string {
	encoded, err := json.Marshal(deps)
	if err != nil {
		encoded = []byte(fmt.Sprint(deps))
	}
	return ContextPrefix(targetKey) + string(encoded)
}
