package optionfeed

import (
	"net/http"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
)

type EmptySearchMode string

const (
	EmptySearchAll  EmptySearchMode = "all"
	EmptySearchNone EmptySearchMode = "none"
)

type GuardFunc func(r *http.Request) error

// LookupFunc resolves a feed name to its option set.
type LookupFunc func(name string) (model.OptionSet, bool)

type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	LanguageParam   string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc

	Lookup LookupFunc
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api/options",
		SearchParam:     "q",
		LimitParam:      "limit",
		LanguageParam:   "lang",
		DefaultLimit:    200,
		MaxLimit:        1000,
		EmptySearchMode: EmptySearchAll,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 200
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 1000
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = EmptySearchAll
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/options"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	if opts.LanguageParam == "" {
		opts.LanguageParam = "lang"
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.EmptySearchMode = mode
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithSets serves a fixed copy of sets.
func WithSets(sets map[string]model.OptionSet) OptionFn {
	copied := make(map[string]model.OptionSet, len(sets))
	for name, set := range sets {
		copied[name] = set
	}
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Lookup = func(name string) (model.OptionSet, bool) {
			set, ok := copied[name]
			return set, ok
		}
	}
}

// WithStore serves the sets of store saved under an empty instance key,
// using the feed name as the field id. Later additions to the store are
// visible immediately.
func WithStore(store *optionsource.Store) OptionFn {
	return func(o *Options) {
		if o == nil || store == nil {
			return
		}
		o.Lookup = func(name string) (model.OptionSet, bool) {
			return store.Get(name, "")
		}
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
