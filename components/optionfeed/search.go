package optionfeed

import (
	"sort"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Entry is one option as served by the feed.
type Entry struct {
	Value   string              `json:"value"`
	Label   model.LocalizedText `json:"label,omitempty"`
	Tooltip model.LocalizedText `json:"tooltip,omitempty"`
}

// Entries flattens set into feed entries. A non-empty language keeps only
// the labels of that language.
func Entries(set model.OptionSet, language string) []Entry {
	language = strings.ToLower(strings.TrimSpace(language))
	out := make([]Entry, 0, len(set.Values))
	for idx, value := range set.Values {
		entry := Entry{Value: value}
		for lang, labels := range set.Labels {
			lang = strings.ToLower(lang)
			if language != "" && lang != language {
				continue
			}
			if idx < len(labels) && labels[idx] != "" {
				if entry.Label == nil {
					entry.Label = model.LocalizedText{}
				}
				entry.Label[lang] = labels[idx]
			}
		}
		if tip, ok := set.Tooltips[value]; ok {
			entry.Tooltip = narrow(tip, language)
		}
		out = append(out, entry)
	}
	return out
}

func narrow(text model.LocalizedText, language string) model.LocalizedText {
	if language == "" {
		return text
	}
	for lang, value := range text {
		if strings.EqualFold(lang, language) {
			return model.LocalizedText{language: value}
		}
	}
	return nil
}

// Search filters entries whose value or label contains query. Prefix
// matches come first; otherwise the set order is kept.
func Search(entries []Entry, query string, limit int, opts Options) []Entry {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode == EmptySearchNone {
			return nil
		}
		if len(entries) <= limit {
			return append([]Entry{}, entries...)
		}
		return append([]Entry{}, entries[:limit]...)
	}

	q := strings.ToLower(query)
	matches := make([]matchedEntry, 0, 32)
	for _, entry := range entries {
		contains, prefix := matchEntry(entry, q)
		if !contains {
			continue
		}
		matches = append(matches, matchedEntry{entry: entry, isPrefix: prefix})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Entry, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.entry)
	}
	return out
}

func matchEntry(entry Entry, q string) (contains, prefix bool) {
	candidates := []string{entry.Value}
	for _, label := range entry.Label {
		candidates = append(candidates, label)
	}
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, q) {
			return true, true
		}
		if strings.Contains(lower, q) {
			contains = true
		}
	}
	return contains, false
}

type matchedEntry struct {
	entry    Entry
	isPrefix bool
}
