// Package resources defines the AWS resource payloads shown by the browser
// and the per-kind capabilities that tell the browser how to key, filter,
// sort and draw them.
package resources

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownKind is returned for a kind name that is not a listing kind.
var ErrUnknownKind = errors.New("unknown resource kind")

// Kind names a type of resource.
type Kind string

// Listing kinds. Each has its own tab.
const (
	KindBucket   Kind = "bucket"
	KindStack    Kind = "stack"
	KindFunction Kind = "function"
	KindRole     Kind = "role"
)

// Child kinds, only reached by expanding a listing.
const (
	KindPrefix        Kind = "prefix"
	KindObject        Kind = "object"
	KindStackResource Kind = "stack-resource"
	KindVersion       Kind = "version"
	KindAlias         Kind = "alias"
	KindPolicy        Kind = "policy"
)

// Resource is one row of a listing or one fetched child.
type Resource struct {
	Kind        Kind              `yaml:"kind" json:"kind"`
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Region      string            `yaml:"region,omitempty" json:"region,omitempty"`
	Status      string            `yaml:"status,omitempty" json:"status,omitempty"`
	Size        int64             `yaml:"size,omitempty" json:"size,omitempty"`
	Modified    time.Time         `yaml:"modified,omitempty" json:"modified,omitempty"`
	Attrs       map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	HasChildren bool              `yaml:"hasChildren,omitempty" json:"hasChildren,omitempty"`
}

// Attr returns the named attribute or "".
func (r Resource) Attr(name string) string {
	return r.Attrs[name]
}

// Label is the text shown in the name column.
func (r Resource) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// ParseKind resolves a listing kind name, accepting plurals.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "s")
	for _, k := range ListingKinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ListingKinds returns the listing kinds in tab order.
func ListingKinds() []Kind {
	return []Kind{KindBucket, KindStack, KindFunction, KindRole}
}
