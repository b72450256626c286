// Package fixture serves resource listings from a YAML inventory file. Each
// node may carry an error or a delay that applies when its children are
// fetched, which makes it handy for demos and for exercising failure paths.
package fixture

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/awsbrowse/internal/resources"
)

// Node is one resource of an inventory together with its children.
type Node struct {
	resources.Resource `yaml:",inline"`

	// Error, if set, is returned when the children of this node are fetched.
	Error string `yaml:"error,omitempty"`

	// Delay is slept before the children of this node are returned.
	Delay time.Duration `yaml:"delay,omitempty"`

	Children []Node `yaml:"children,omitempty"`
}

// Inventory maps each listing kind to its top-level nodes.
type Inventory map[resources.Kind][]Node

// Parse decodes and normalizes an inventory document.
func Parse(data []byte) (Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	if inv == nil {
		inv = Inventory{}
	}
	if err := inv.normalize(); err != nil {
		return nil, err
	}
	return inv, nil
}

// ReadFile reads and parses the inventory at path.
func ReadFile(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the inventory as YAML.
func (inv Inventory) Marshal() ([]byte, error) {
	return yaml.Marshal(inv)
}

// Walk calls fn for every node, parents before children. parent is "" for
// top-level nodes.
func (inv Inventory) Walk(fn func(listing resources.Kind, parent string, n *Node) error) error {
	for _, kind := range resources.ListingKinds() {
		if err := walk(inv[kind], kind, "", fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(nodes []Node, listing resources.Kind, parent string, fn func(resources.Kind, string, *Node) error) error {
	for i := range nodes {
		n := &nodes[i]
		if err := fn(listing, parent, n); err != nil {
			return err
		}
		if err := walk(n.Children, listing, n.ID, fn); err != nil {
			return err
		}
	}
	return nil
}

// normalize fills in defaulted fields and rejects unknown kinds and
// duplicate IDs.
func (inv Inventory) normalize() error {
	for kind := range inv {
		if _, ok := resources.Lookup(kind); !ok {
			return fmt.Errorf("%w: %q", resources.ErrUnknownKind, kind)
		}
	}
	ids := make(map[resources.Kind]map[string]bool)
	return inv.Walk(func(listing resources.Kind, parent string, n *Node) error {
		if n.ID == "" && n.Name == "" {
			return fmt.Errorf("%s node under %q has neither id nor name", listing, parent)
		}
		if n.ID == "" {
			n.ID = n.Name
			switch {
			case parent == "":
			case strings.HasSuffix(parent, "/"):
				n.ID = parent + n.Name
			default:
				n.ID = parent + "/" + n.Name
			}
		}
		if ids[listing] == nil {
			ids[listing] = make(map[string]bool)
		}
		if ids[listing][n.ID] {
			return fmt.Errorf("duplicate %s id %q", listing, n.ID)
		}
		ids[listing][n.ID] = true

		if n.Kind == "" {
			n.Kind = defaultKind(listing, parent, len(n.Children) > 0)
		}
		if len(n.Children) > 0 || n.Error != "" {
			n.HasChildren = true
		}
		return nil
	})
}

func defaultKind(listing resources.Kind, parent string, hasChildren bool) resources.Kind {
	if parent == "" {
		return listing
	}
	switch listing {
	case resources.KindBucket:
		if hasChildren {
			return resources.KindPrefix
		}
		return resources.KindObject
	case resources.KindStack:
		return resources.KindStackResource
	case resources.KindFunction:
		return resources.KindVersion
	default:
		return resources.KindPolicy
	}
}
