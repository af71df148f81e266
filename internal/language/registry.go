// Package language maps internal language identifiers onto the runtime
// name/version pairs understood by the execution backend.
package language

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLanguage indicates the identifier is not in the registry.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Spec describes one supported runtime. Version strings are opaque here;
// the execution backend owns their meaning.
type Spec struct {
	ID             string
	RuntimeName    string
	RuntimeVersion string
}

// Registry is an immutable language catalogue built once at startup.
// It is safe for concurrent use without locking.
type Registry struct {
	specs map[string]Spec
}

// New builds a registry from the given specs. Duplicate identifiers are
// rejected so a bad snapshot fails at boot instead of at first lookup.
func New(specs ...Spec) (*Registry, error) {
	index := make(map[string]Spec, len(specs))
	for _, spec := range specs {
		id := strings.ToLower(strings.TrimSpace(spec.ID))
		if id == "" {
			return nil, fmt.Errorf("language spec with empty id")
		}
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("duplicate language id %q", id)
		}
		spec.ID = id
		index[id] = spec
	}

	return &Registry{specs: index}, nil
}

// Default returns the registry snapshot shipped with the service.
func Default() *Registry {
	registry, err := New(
		Spec{ID: "python", RuntimeName: "python", RuntimeVersion: "3.10.0"},
		Spec{ID: "javascript", RuntimeName: "node", RuntimeVersion: "18.15.0"},
		Spec{ID: "go", RuntimeName: "go", RuntimeVersion: "1.16.2"},
		Spec{ID: "java", RuntimeName: "java", RuntimeVersion: "15.0.2"},
		Spec{ID: "cpp", RuntimeName: "gcc", RuntimeVersion: "10.2.0"},
	)
	if err != nil {
		// The built-in snapshot is static; a failure here is a programming error.
		panic(err)
	}
	return registry
}

// Resolve looks up a language by identifier.
func (r *Registry) Resolve(id string) (Spec, error) {
	spec, ok := r.specs[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, id)
	}
	return spec, nil
}

// IDs returns the supported identifiers, useful for editor pickers.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	return ids
}
