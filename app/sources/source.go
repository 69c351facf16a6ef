package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// ErrSourceUnavailable signals a transient platform failure. The engine
// retries these and eventually skips the platform for the cycle.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceError wraps a failure from one platform so the engine can log the
// platform and keyword without unpacking the message.
type SourceError struct {
	Platform string
	Keyword  string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: keyword %q: %v", e.Platform, e.Keyword, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Source searches one marketplace platform. Implementations return the
// listings currently visible for the keyword, newest first, and never
// mutate shared state.
type Source interface {
	Name() string
	Search(ctx context.Context, keyword, location string) ([]listing.Listing, error)
}

// Registry holds the sources enabled at startup, keyed by platform name.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Names returns registered platform names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
