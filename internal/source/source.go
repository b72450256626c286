// Package source defines where resource listings come from. Implementations
// live in the subpackages: fixture (YAML inventory files), sqlite (inventory
// snapshots) and wsfeed (a remote inventory agent).
package source

import (
	"context"
	"errors"

	"github.com/artpar/awsbrowse/internal/fetch"
	"github.com/artpar/awsbrowse/internal/resources"
)

// Common errors.
var (
	ErrUnknownKind = resources.ErrUnknownKind
	ErrNotFound    = errors.New("resource not found")
	ErrClosed      = errors.New("source is closed")
)

// Source lists resources of a kind and the children of one of them.
type Source interface {
	// List returns the top-level resources of a listing kind.
	List(ctx context.Context, kind resources.Kind) ([]resources.Resource, error)

	// Children returns the children of the resource with the given key,
	// in the order the provider returns them.
	Children(ctx context.Context, kind resources.Kind, key string) ([]resources.Resource, error)

	// Close releases the source.
	Close() error
}

// ChildrenFunc adapts a source to the lookup used for one listing kind.
func ChildrenFunc(src Source, kind resources.Kind) fetch.Func[string, resources.Resource] {
	return func(ctx context.Context, key string) ([]resources.Resource, error) {
		return src.Children(ctx, kind, key)
	}
}

// CheckKind returns ErrUnknownKind unless kind is a listing kind.
func CheckKind(kind resources.Kind) error {
	_, err := resources.ParseKind(string(kind))
	return err
}
