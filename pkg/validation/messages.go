package validation

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/flosch/pongo2/v6"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/options"
)

// DefaultRequiredMessages are the built-in required-field messages.
var DefaultRequiredMessages = model.LocalizedText{
	"en": "{{ label }} is required.",
	"fr": "{{ label }} est obligatoire.",
	"nl": "{{ label }} is verplicht.",
}

var registerFiltersOnce sync.Once

func registerFilters() {
	registerFiltersOnce.Do(func() {
		if !pongo2.FilterExists("number") {
			_ = pongo2.RegisterFilter("number", filterNumber)
		}
	})
}

// filterNumber groups thousands; the optional parameter sets the decimals
// kept for fractional values (default 2).
func filterNumber(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	value, ok := toFloat(in.Interface())
	if !ok {
		return in, nil
	}
	if value == math.Trunc(value) && math.Abs(value) < math.MaxInt64 {
		return pongo2.AsSafeValue(humanize.Comma(int64(value))), nil
	}
	digits := 2
	if param != nil && !param.IsNil() && param.IsInteger() {
		digits = param.Integer()
	}
	return pongo2.AsSafeValue(humanize.CommafWithDigits(value, digits)), nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		parsed, err := strconv.ParseFloat(trimmed, 64)
		return parsed, err == nil
	}
	return 0, false
}

// Formatter renders localized message templates. Templates use pongo2
// syntax with the variables label, field and value.
type Formatter struct {
	set      *pongo2.TemplateSet
	required model.LocalizedText

	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

// FormatterOption customises a Formatter.
type FormatterOption func(*Formatter)

// WithRequiredMessages overrides the required-field templates per language.
func WithRequiredMessages(messages model.LocalizedText) FormatterOption {
	return func(f *Formatter) {
		if len(messages) == 0 {
			return
		}
		merged := make(model.LocalizedText, len(f.required)+len(messages))
		for lang, text := range f.required {
			merged[lang] = text
		}
		for lang, text := range messages {
			merged[lang] = text
		}
		f.required = merged
	}
}

// NewFormatter builds a Formatter with the built-in required messages.
func NewFormatter(opts ...FormatterOption) *Formatter {
	registerFilters()
	f := &Formatter{
		set:      pongo2.NewSet("validation", pongo2.MustNewLocalFileSystemLoader("")),
		required: DefaultRequiredMessages,
		cache:    make(map[string]*pongo2.Template),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// MessageData is the template context of one message.
type MessageData struct {
	FieldID string
	Label   string
	Value   any
}

// Message resolves text for language and renders it.
func (f *Formatter) Message(text model.LocalizedText, language, fallback string, data MessageData) string {
	return f.Render(options.ResolveText(text, language, fallback), data)
}

// Required renders the required-field message for language.
func (f *Formatter) Required(language, fallback string, data MessageData) string {
	return f.Message(f.required, language, fallback, data)
}

// Render executes a template string. Text without template markup, or that
// fails to parse or execute, is returned unchanged.
func (f *Formatter) Render(text string, data MessageData) string {
	if !strings.Contains(text, "{{") && !strings.Contains(text, "{%") {
		return text
	}
	tpl, err := f.template(text)
	if err != nil {
		return text
	}
	label := data.Label
	if label == "" {
		label = data.FieldID
	}
	ctx := pongo2.Context{
		"field": pongo2.AsSafeValue(data.FieldID),
		"label": pongo2.AsSafeValue(label),
		"value": safeValue(data.Value),
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(ctx, &buf); err != nil {
		return text
	}
	return strings.TrimSpace(buf.String())
}

func (f *Formatter) template(text string) (*pongo2.Template, error) {
	f.mu.RLock()
	tpl, ok := f.cache[text]
	f.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	tpl, err := f.set.FromString(text)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.cache[text] = tpl
	f.mu.Unlock()
	return tpl, nil
}

func safeValue(value any) *pongo2.Value {
	switch v := value.(type) {
	case string:
		return pongo2.AsSafeValue(v)
	case []any, []string:
		return pongo2.AsSafeValue(strings.Join(model.ToStrings(v), ", "))
	}
	return pongo2.AsSafeValue(value)
}
