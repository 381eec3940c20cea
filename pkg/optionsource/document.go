package optionsource

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// documentFile is the on-disk option document. It accepts either the
// column layout of model.OptionSet or a list of option entries.
type documentFile struct {
	Values   []string                       `json:"values" yaml:"values"`
	Labels   map[string][]string            `json:"labels" yaml:"labels"`
	Tooltips map[string]model.LocalizedText `json:"tooltips" yaml:"tooltips"`
	Options  []optionEntry                  `json:"options" yaml:"options"`
}

type optionEntry struct {
	Value   string              `json:"value" yaml:"value"`
	Label   model.LocalizedText `json:"label" yaml:"label"`
	Tooltip model.LocalizedText `json:"tooltip" yaml:"tooltip"`
}

func parseDocument(data []byte, source string) (model.OptionSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.OptionSet{}, fmt.Errorf("optionsource: document %s is empty", source)
	}

	var doc documentFile
	if err := decode(trimmed, &doc); err == nil {
		set := doc.optionSet()
		if set.Empty() {
			return model.OptionSet{}, fmt.Errorf("optionsource: document %s defines no options", source)
		}
		return set, nil
	}

	var list []string
	if err := decode(trimmed, &list); err == nil && len(list) > 0 {
		return model.OptionSet{Values: model.Dedupe(trimAll(list))}, nil
	}

	return model.OptionSet{}, fmt.Errorf("optionsource: parse %s: invalid JSON or YAML option document", source)
}

func decode(data []byte, target any) error {
	if data[0] == '{' || data[0] == '[' {
		if err := json.Unmarshal(data, target); err == nil {
			return nil
		}
	}
	return yaml.Unmarshal(data, target)
}

func (d documentFile) optionSet() model.OptionSet {
	if len(d.Options) == 0 {
		return model.OptionSet{
			Values:   trimEach(d.Values),
			Labels:   d.Labels,
			Tooltips: d.Tooltips,
		}
	}

	set := model.OptionSet{
		Labels:   make(map[string][]string),
		Tooltips: make(map[string]model.LocalizedText),
	}
	seen := make(map[string]struct{}, len(d.Options))
	for _, entry := range d.Options {
		value := strings.TrimSpace(entry.Value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		idx := len(set.Values)
		set.Values = append(set.Values, value)
		for lang, label := range entry.Label {
			labels := set.Labels[lang]
			for len(labels) < idx {
				labels = append(labels, "")
			}
			set.Labels[lang] = append(labels, label)
		}
		if len(entry.Tooltip) > 0 {
			set.Tooltips[value] = entry.Tooltip
		}
	}
	for lang, labels := range set.Labels {
		for len(labels) < len(set.Values) {
			labels = append(labels, "")
		}
		set.Labels[lang] = labels
	}
	if len(set.Labels) == 0 {
		set.Labels = nil
	}
	if len(set.Tooltips) == 0 {
		set.Tooltips = nil
	}
	return set
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func trimEach(values []string) []string {
	out := make([]string, len(values))
	for idx, value := range values {
		out[idx] = strings.TrimSpace(value)
	}
	return out
}
