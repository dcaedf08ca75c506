package candidates

import (
	"context"
	"fmt"
	"strings"
)

// Loader kinds.
const (
	KindFile = "file"
	KindHTML = "html"
)

// Request carries all parameters required to load a worklist.
type Request struct {
	Source   string
	Selector string
}

// Kind picks the loader for a source: http(s) URLs are HTML pages,
// everything else is a newline-delimited file.
func (r Request) Kind() string {
	lower := strings.ToLower(r.Source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return KindHTML
	}
	return KindFile
}

// Loader reads candidate titles from one kind of source.
type Loader interface {
	Name() string
	Load(ctx context.Context, req Request) ([]string, error)
}

// Registry keeps a mapping from loader kinds to their implementations.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: map[string]Loader{}}
}

// Register adds or replaces a loader implementation.
func (r *Registry) Register(loader Loader) {
	if r.loaders == nil {
		r.loaders = map[string]Loader{}
	}
	r.loaders[loader.Name()] = loader
}

// Resolve returns a loader by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Loader, error) {
	if loader, ok := r.loaders[kind]; ok {
		return loader, nil
	}
	return nil, fmt.Errorf("candidate loader %s is not registered", kind)
}

// Normalize trims titles, drops blanks and duplicates, keeps first-seen order.
func Normalize(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}
