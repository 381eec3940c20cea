package options

import (
	"sort"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Option is one entry of a localized option list.
type Option struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Tooltip string `json:"tooltip,omitempty"`
}

// BuildLocalizedOptions filters set down to allowed, keeping the declared
// order, and resolves labels for language with fallback to fallbackLanguage,
// then "en", then any available language, then the value itself. Allowed
// values missing from the base set (for example a legacy selection appended
// by WithSelection) are appended with their value as label.
func BuildLocalizedOptions(set *model.OptionSet, allowed []string, language, fallbackLanguage string) []Option {
	if len(allowed) == 0 {
		return nil
	}
	permitted := make(map[string]struct{}, len(allowed))
	for _, value := range allowed {
		permitted[value] = struct{}{}
	}

	var out []Option
	seen := make(map[string]struct{}, len(allowed))
	if set != nil {
		labels := resolveLabels(set, language, fallbackLanguage)
		for idx, value := range set.Values {
			if _, ok := permitted[value]; !ok {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			label := value
			if idx < len(labels) {
				if candidate := sanitizeLabel(labels[idx]); candidate != "" {
					label = candidate
				}
			}
			out = append(out, Option{
				Value:   value,
				Label:   label,
				Tooltip: sanitizeTooltip(ResolveText(set.Tooltips[value], language, fallbackLanguage)),
			})
		}
	}

	for _, value := range allowed {
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, Option{Value: value, Label: sanitizeLabel(value)})
	}
	return out
}

// ResolveText picks the text for language from a LocalizedText, falling back
// to fallbackLanguage, then "en", then the first language in sorted order.
func ResolveText(text model.LocalizedText, language, fallbackLanguage string) string {
	if len(text) == 0 {
		return ""
	}
	for _, lang := range languageChain(language, fallbackLanguage) {
		if value := strings.TrimSpace(lookupLanguage(text, lang)); value != "" {
			return value
		}
	}
	keys := make([]string, 0, len(text))
	for key := range text {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value := strings.TrimSpace(text[key]); value != "" {
			return value
		}
	}
	return ""
}

func resolveLabels(set *model.OptionSet, language, fallbackLanguage string) []string {
	if len(set.Labels) == 0 {
		return nil
	}
	for _, lang := range languageChain(language, fallbackLanguage) {
		for key, labels := range set.Labels {
			if strings.EqualFold(key, lang) && len(labels) > 0 {
				return labels
			}
		}
	}
	keys := make([]string, 0, len(set.Labels))
	for key := range set.Labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if len(set.Labels[key]) > 0 {
			return set.Labels[key]
		}
	}
	return nil
}

func languageChain(language, fallbackLanguage string) []string {
	chain := make([]string, 0, 3)
	for _, lang := range []string{language, fallbackLanguage, "en"} {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		chain = append(chain, lang)
	}
	return model.Dedupe(chain)
}

func lookupLanguage(text model.LocalizedText, lang string) string {
	if value, ok := text[lang]; ok {
		return value
	}
	for key, value := range text {
		if strings.EqualFold(key, lang) {
			return value
		}
	}
	return ""
}
