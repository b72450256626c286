package browser

import (
	"cmp"
	"fmt"
	"testing"
)

// node is a minimal payload: folders expand, files do not.
type node struct {
	ID     string
	Name   string
	Folder bool
	Size   int
}

type nodeCap struct{}

func (nodeCap) KeyOf(n node) string      { return n.ID }
func (nodeCap) IsExpandable(n node) bool { return n.Folder }
func (nodeCap) MatchesFilter(n node, f string) bool {
	return MatchSubstring(f, n.Name, n.ID)
}
func (nodeCap) Compare(a, b node, key string) int {
	switch key {
	case "size":
		return cmp.Compare(a.Size, b.Size)
	default:
		return cmp.Compare(a.Name, b.Name)
	}
}
func (nodeCap) Columns() []Column[node] {
	return []Column[node]{
		{ID: "name", Title: "Name", Width: 20, Value: func(n node) string { return n.Name }},
	}
}

func folder(id string) node { return node{ID: id, Name: id, Folder: true} }
func file(id string) node   { return node{ID: id, Name: id} }

func items(n int, prefix string) []node {
	out := make([]node, n)
	for i := range out {
		out[i] = file(fmt.Sprintf("%s-%02d", prefix, i))
	}
	return out
}

func newTestBrowser(t *testing.T, top []node, opts ...Option) *Browser[node, string] {
	t.Helper()
	b := New[node, string](nodeCap{}, opts...)
	b.SetItems(top)
	return b
}

func rowNames(rows []Row[node, string]) []string {
	var out []string
	for _, r := range rows {
		if r.Kind == RowError {
			out = append(out, "!"+r.Message)
			continue
		}
		out = append(out, r.Item.Name)
	}
	return out
}

func selectableCount(rows []Row[node, string]) int {
	n := 0
	for _, r := range rows {
		if r.Selectable {
			n++
		}
	}
	return n
}
