package optionsource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

const (
	labelsExtensionKey   = "x-labels"
	tooltipsExtensionKey = "x-tooltips"
)

// enumOptions reads the enum of components.schemas.<Schema> (or of its
// <Property>) as an option set. Localized labels come from x-labels, keyed
// by language and aligned with the enum; tooltips from x-tooltips, keyed by
// value then language.
func enumOptions(ctx context.Context, raw []byte, desc model.SourceDescriptor) (model.OptionSet, error) {
	if strings.TrimSpace(desc.Schema) == "" {
		return model.OptionSet{}, errors.New("optionsource: openapi source requires a schema name")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.OptionSet{}, fmt.Errorf("optionsource: load openapi document %s: %w", desc.Location, err)
	}
	if doc.Components == nil {
		return model.OptionSet{}, fmt.Errorf("optionsource: openapi document %s has no components", desc.Location)
	}

	ref, ok := doc.Components.Schemas[desc.Schema]
	if !ok || ref == nil || ref.Value == nil {
		return model.OptionSet{}, fmt.Errorf("optionsource: schema %q not found in %s", desc.Schema, desc.Location)
	}
	schema := ref.Value
	path := desc.Schema
	if prop := strings.TrimSpace(desc.Property); prop != "" {
		propRef, ok := schema.Properties[prop]
		if !ok || propRef == nil || propRef.Value == nil {
			return model.OptionSet{}, fmt.Errorf("optionsource: property %q not found in schema %q", prop, desc.Schema)
		}
		schema = propRef.Value
		path += "." + prop
	}
	// Multi-select properties carry the enum on their items.
	if len(schema.Enum) == 0 && schema.Items != nil && schema.Items.Value != nil {
		schema = schema.Items.Value
	}
	if len(schema.Enum) == 0 {
		return model.OptionSet{}, fmt.Errorf("optionsource: schema %s declares no enum", path)
	}

	set := model.OptionSet{}
	for _, value := range schema.Enum {
		if s := strings.TrimSpace(model.ValueString(value)); s != "" {
			set.Values = append(set.Values, s)
		}
	}
	set.Values = model.Dedupe(set.Values)
	set.Labels = extensionLabels(schema.Extensions[labelsExtensionKey], len(set.Values))
	set.Tooltips = extensionTooltips(schema.Extensions[tooltipsExtensionKey])
	return set, nil
}

func extensionLabels(raw any, size int) map[string][]string {
	byLang, ok := raw.(map[string]any)
	if !ok || len(byLang) == 0 {
		return nil
	}
	out := make(map[string][]string, len(byLang))
	for lang, entries := range byLang {
		list, ok := entries.([]any)
		if !ok {
			continue
		}
		labels := make([]string, size)
		for idx := 0; idx < size && idx < len(list); idx++ {
			labels[idx] = model.ValueString(list[idx])
		}
		out[lang] = labels
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func extensionTooltips(raw any) map[string]model.LocalizedText {
	byValue, ok := raw.(map[string]any)
	if !ok || len(byValue) == 0 {
		return nil
	}
	out := make(map[string]model.LocalizedText, len(byValue))
	for value, entry := range byValue {
		switch typed := entry.(type) {
		case string:
			out[value] = model.LocalizedText{"en": typed}
		case map[string]any:
			text := make(model.LocalizedText, len(typed))
			for lang, tip := range typed {
				text[lang] = model.ValueString(tip)
			}
			out[value] = text
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
