// Package optionsource loads option sets that live outside a form
// definition: JSON/YAML option documents on disk, inside an fs.FS or behind a
// URL, and enum schemas of OpenAPI documents.
package optionsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Loader resolves a SourceDescriptor into an option set. language is a hint
// forwarded to remote sources; the returned set keeps every language it
// carries.
type Loader interface {
	LoadOptions(ctx context.Context, desc model.SourceDescriptor, language string) (model.OptionSet, error)
}

// LoaderOptions configures how a SourceLoader reaches its sources.
type LoaderOptions struct {
	// FileSystem serves "fs" sources and relative OpenAPI locations.
	FileSystem fs.FS

	// HTTPClient enables "url" sources. Nil disables remote loading unless
	// AllowHTTPFallback is set.
	HTTPClient *http.Client

	AllowHTTPFallback bool

	// RequestTimeout caps remote fetches.
	RequestTimeout time.Duration
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects the fs.FS used for "fs" sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for "url" sources.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables remote loading through a default client with the
// supplied timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// SourceLoader implements Loader with file, fs.FS, HTTP and OpenAPI
// strategies.
type SourceLoader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ Loader = (*SourceLoader)(nil)

// New constructs a SourceLoader. HTTP stays disabled unless a client or the
// fallback is configured.
func New(options ...LoaderOption) *SourceLoader {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var httpClient *http.Client
	switch {
	case cfg.HTTPClient != nil:
		clone := *cfg.HTTPClient
		if cfg.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = cfg.RequestTimeout
		}
		httpClient = &clone
	case cfg.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &SourceLoader{
		fs:        cfg.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   cfg.RequestTimeout,
	}
}

// LoadOptions fetches and decodes the option set described by desc.
func (l *SourceLoader) LoadOptions(ctx context.Context, desc model.SourceDescriptor, language string) (model.OptionSet, error) {
	location := strings.TrimSpace(desc.Location)
	if location == "" {
		return model.OptionSet{}, errors.New("optionsource: location is required")
	}

	switch desc.Kind {
	case model.SourceKindFile, model.SourceKindFS, model.SourceKindURL:
		data, err := l.fetch(ctx, desc.Kind, location, language)
		if err != nil {
			return model.OptionSet{}, fmt.Errorf("optionsource: load %s: %w", location, err)
		}
		return parseDocument(data, location)
	case model.SourceKindOpenAPI:
		data, err := l.fetch(ctx, l.openAPIKind(location), location, "")
		if err != nil {
			return model.OptionSet{}, fmt.Errorf("optionsource: load %s: %w", location, err)
		}
		return enumOptions(ctx, data, desc)
	default:
		return model.OptionSet{}, fmt.Errorf("optionsource: unsupported source kind %q", desc.Kind)
	}
}

func (l *SourceLoader) fetch(ctx context.Context, kind model.SourceKind, location, language string) ([]byte, error) {
	switch kind {
	case model.SourceKindFile:
		return loadFile(ctx, location)
	case model.SourceKindFS:
		return loadFromFS(ctx, l.fs, location)
	case model.SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("http support disabled")
		}
		return loadHTTP(ctx, l.http, withLanguage(location, language), l.timeout)
	}
	return nil, fmt.Errorf("unsupported source kind %q", kind)
}

// openAPIKind picks the transport for an OpenAPI location: URLs go over
// HTTP, other locations resolve against the configured fs.FS when present
// and the local disk otherwise.
func (l *SourceLoader) openAPIKind(location string) model.SourceKind {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return model.SourceKindURL
	case l.fs != nil:
		return model.SourceKindFS
	default:
		return model.SourceKindFile
	}
}

func withLanguage(raw, language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	if query.Get("lang") == "" {
		query.Set("lang", language)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
