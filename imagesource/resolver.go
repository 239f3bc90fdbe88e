package imagesource

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Resolver maps a source identifier to a Source.
type Resolver interface {
	Resolve(id string) (Source, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id string) (Source, error)

// Resolve calls f(id).
func (f ResolverFunc) Resolve(id string) (Source, error) { return f(id) }

// Registry resolves identifiers registered with Add first, then by scheme:
// "http://" and "https://" become Remote, "file://" and scheme-less
// identifiers become File. Other schemes fail with ErrUnknownSource.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source

	// Client is passed to Remote sources.
	Client *http.Client

	// NoFiles disables resolution of plain paths.
	NoFiles bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Add registers src under id, replacing any earlier registration.
func (r *Registry) Add(id string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sources == nil {
		r.sources = make(map[string]Source)
	}
	r.sources[id] = src
}

// Remove drops an explicit registration.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, id)
}

// Resolve returns the source for id.
func (r *Registry) Resolve(id string) (Source, error) {
	r.mu.RLock()
	src, ok := r.sources[id]
	r.mu.RUnlock()
	if ok {
		return src, nil
	}

	switch scheme, _, found := strings.Cut(id, "://"); {
	case id == "":
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownSource)
	case !found || scheme == "file":
		if r.NoFiles {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, id)
		}
		return NewFile(id), nil
	case scheme == "http" || scheme == "https":
		return Remote{URL: id, Client: r.Client}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q in %q", ErrUnknownSource, scheme, id)
	}
}
