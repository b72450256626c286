package resources

import (
	"cmp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/artpar/awsbrowse/internal/browser"
)

// Sort keys understood by Capability.Compare. Any other key compares the
// attribute of that name.
const (
	SortName     = "name"
	SortRegion   = "region"
	SortStatus   = "status"
	SortSize     = "size"
	SortModified = "modified"
)

// Descriptor describes how one listing kind is presented.
type Descriptor struct {
	Kind        Kind
	Title       string
	Columns     []browser.Column[Resource]
	SortKeys    []string
	DefaultSort string
	// FilterAttrs are the attributes searched by the filter besides the
	// name, id and status.
	FilterAttrs []string
}

var (
	nameColumn     = browser.Column[Resource]{ID: SortName, Title: "NAME", Width: 40, Value: Resource.Label}
	regionColumn   = browser.Column[Resource]{ID: SortRegion, Title: "REGION", Width: 14, Value: func(r Resource) string { return r.Region }}
	statusColumn   = browser.Column[Resource]{ID: SortStatus, Title: "STATUS", Width: 22, Value: func(r Resource) string { return r.Status }}
	sizeColumn     = browser.Column[Resource]{ID: SortSize, Title: "SIZE", Width: 10, Value: formatSize}
	modifiedColumn = browser.Column[Resource]{ID: SortModified, Title: "MODIFIED", Width: 16, Value: formatModified}
)

func attrColumn(id, title string, width int) browser.Column[Resource] {
	return browser.Column[Resource]{ID: id, Title: title, Width: width, Value: func(r Resource) string { return r.Attr(id) }}
}

var descriptors = map[Kind]Descriptor{
	KindBucket: {
		Kind:        KindBucket,
		Title:       "Buckets",
		Columns:     []browser.Column[Resource]{nameColumn, regionColumn, sizeColumn, modifiedColumn},
		SortKeys:    []string{SortName, SortRegion, SortSize, SortModified},
		DefaultSort: SortName,
		FilterAttrs: []string{"storageClass"},
	},
	KindStack: {
		Kind:        KindStack,
		Title:       "Stacks",
		Columns:     []browser.Column[Resource]{nameColumn, statusColumn, attrColumn("type", "TYPE", 28), modifiedColumn},
		SortKeys:    []string{SortName, SortStatus, SortModified},
		DefaultSort: SortName,
		FilterAttrs: []string{"type", "logicalId"},
	},
	KindFunction: {
		Kind:        KindFunction,
		Title:       "Functions",
		Columns:     []browser.Column[Resource]{nameColumn, attrColumn("runtime", "RUNTIME", 14), sizeColumn, modifiedColumn},
		SortKeys:    []string{SortName, "runtime", SortSize, SortModified},
		DefaultSort: SortName,
		FilterAttrs: []string{"runtime", "handler"},
	},
	KindRole: {
		Kind:        KindRole,
		Title:       "Roles",
		Columns:     []browser.Column[Resource]{nameColumn, attrColumn("path", "PATH", 20), attrColumn("arn", "ARN", 50), modifiedColumn},
		SortKeys:    []string{SortName, "path", SortModified},
		DefaultSort: SortName,
		FilterAttrs: []string{"arn", "path"},
	},
}

// Lookup returns the descriptor of a listing kind.
func Lookup(kind Kind) (Descriptor, bool) {
	d, ok := descriptors[kind]
	return d, ok
}

// Descriptors returns every listing descriptor in tab order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, k := range ListingKinds() {
		out = append(out, descriptors[k])
	}
	return out
}

// NextSortKey returns the sort key after current in the descriptor's cycle.
func (d Descriptor) NextSortKey(current string) string {
	if len(d.SortKeys) == 0 {
		return ""
	}
	for i, k := range d.SortKeys {
		if k == current {
			return d.SortKeys[(i+1)%len(d.SortKeys)]
		}
	}
	return d.SortKeys[0]
}

// Capability makes Resources browsable for one listing kind.
type Capability struct {
	desc Descriptor
}

// NewCapability returns the capability for d.
func NewCapability(d Descriptor) Capability {
	return Capability{desc: d}
}

// Descriptor returns the descriptor the capability was built from.
func (c Capability) Descriptor() Descriptor {
	return c.desc
}

// KeyOf returns the resource ID.
func (Capability) KeyOf(r Resource) string {
	return r.ID
}

// IsExpandable reports whether the resource has children to fetch.
func (Capability) IsExpandable(r Resource) bool {
	return r.HasChildren
}

// MatchesFilter matches the name, ID, status and the kind's filter
// attributes.
func (c Capability) MatchesFilter(r Resource, filter string) bool {
	fields := make([]string, 0, 3+len(c.desc.FilterAttrs))
	fields = append(fields, r.Name, r.ID, r.Status)
	for _, a := range c.desc.FilterAttrs {
		fields = append(fields, r.Attr(a))
	}
	return browser.MatchSubstring(filter, fields...)
}

// Compare orders by sortKey and then by ID so that ties are stable across
// listings.
func (Capability) Compare(a, b Resource, sortKey string) int {
	var c int
	switch sortKey {
	case SortName:
		c = cmp.Compare(strings.ToLower(a.Label()), strings.ToLower(b.Label()))
	case SortRegion:
		c = cmp.Compare(a.Region, b.Region)
	case SortStatus:
		c = cmp.Compare(a.Status, b.Status)
	case SortSize:
		c = cmp.Compare(a.Size, b.Size)
	case SortModified:
		c = a.Modified.Compare(b.Modified)
	default:
		c = cmp.Compare(a.Attr(sortKey), b.Attr(sortKey))
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Columns returns the kind's columns.
func (c Capability) Columns() []browser.Column[Resource] {
	return c.desc.Columns
}

func formatSize(r Resource) string {
	switch r.Kind {
	case KindPrefix, KindStack, KindStackResource, KindRole, KindPolicy, KindAlias:
		return ""
	}
	if r.Size <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(r.Size))
}

func formatModified(r Resource) string {
	if r.Modified.IsZero() {
		return ""
	}
	if time.Since(r.Modified) > 30*24*time.Hour {
		return r.Modified.Format(time.DateOnly)
	}
	return humanize.Time(r.Modified)
}
