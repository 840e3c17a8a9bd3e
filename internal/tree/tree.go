// Package tree derives the folder hierarchy of a session from a flat
// snapshot of bookmark records. A Tree never mutates its records.
package tree

import (
	"sort"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

// Tree is an immutable view over one session's records.
type Tree struct {
	byID     map[string]domain.Bookmark
	children map[string][]string // parent key -> sorted child ids
	records  []domain.Bookmark
}

// New indexes a snapshot. Records whose parent is missing stay reachable
// through Orphans but are not listed under Roots.
func New(records []domain.Bookmark) *Tree {
	t := &Tree{
		byID:     make(map[string]domain.Bookmark, len(records)),
		children: make(map[string][]string),
		records:  make([]domain.Bookmark, len(records)),
	}
	copy(t.records, records)
	for _, r := range records {
		t.byID[r.ID] = r
	}
	for _, r := range records {
		key := r.Parent.Key()
		t.children[key] = append(t.children[key], r.ID)
	}
	for key := range t.children {
		ids := t.children[key]
		sort.SliceStable(ids, func(i, j int) bool {
			return Less(t.byID[ids[i]], t.byID[ids[j]])
		})
	}
	return t
}

// Less orders siblings by order, then creation time, then id.
func Less(a, b domain.Bookmark) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Len returns the number of records in the snapshot.
func (t *Tree) Len() int { return len(t.records) }

// Records returns a copy of the snapshot.
func (t *Tree) Records() []domain.Bookmark {
	out := make([]domain.Bookmark, len(t.records))
	copy(out, t.records)
	return out
}

// Get returns the record with id.
func (t *Tree) Get(id string) (domain.Bookmark, bool) {
	b, ok := t.byID[id]
	return b, ok
}

// Has reports whether id is part of the snapshot.
func (t *Tree) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// Roots returns the root-level records sorted by order.
func (t *Tree) Roots() []domain.Bookmark {
	return t.Siblings(domain.Root())
}

// Children returns the direct children of id sorted by order.
func (t *Tree) Children(id string) []domain.Bookmark {
	if id == "" {
		return nil
	}
	return t.Siblings(domain.ChildOf(id))
}

// Siblings returns every record placed under parent, sorted by order.
func (t *Tree) Siblings(parent domain.Parent) []domain.Bookmark {
	ids := t.children[parent.Key()]
	out := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}

// IsContainer reports whether id has at least one child.
func (t *Tree) IsContainer(id string) bool {
	return id != "" && len(t.children[id]) > 0
}

// Descendants returns every transitive child of id in breadth-first order.
// The walk is iterative and guarded by a visited set, so malformed input
// with cycles terminates.
func (t *Tree) Descendants(id string) []domain.Bookmark {
	var out []domain.Bookmark
	visited := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range t.children[current] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			out = append(out, t.byID[child])
			queue = append(queue, child)
		}
	}
	return out
}

// Subtree returns the ids of id and all its descendants.
func (t *Tree) Subtree(id string) []string {
	ids := []string{id}
	for _, d := range t.Descendants(id) {
		ids = append(ids, d.ID)
	}
	return ids
}

// WouldCycle reports whether placing moving under newParent would make
// a record its own ancestor.
func (t *Tree) WouldCycle(moving string, newParent domain.Parent) bool {
	target, ok := newParent.ID()
	if !ok {
		return false
	}
	if target == moving {
		return true
	}
	for _, d := range t.Descendants(moving) {
		if d.ID == target {
			return true
		}
	}
	return false
}

// Orphans returns records whose parent is not in the snapshot.
func (t *Tree) Orphans() []domain.Bookmark {
	var out []domain.Bookmark
	for _, r := range t.records {
		if id, ok := r.Parent.ID(); ok && !t.Has(id) {
			out = append(out, r)
		}
	}
	return out
}

// NextOrder returns the order for a record appended under parent:
// one past the largest sibling order, or 0 for an empty group.
func (t *Tree) NextOrder(parent domain.Parent) int {
	next := 0
	for _, id := range t.children[parent.Key()] {
		if o := t.byID[id].Order + 1; o > next {
			next = o
		}
	}
	return next
}

// Groups returns the parent of every non-empty group in the snapshot.
func (t *Tree) Groups() []domain.Parent {
	keys := make([]string, 0, len(t.children))
	for key := range t.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]domain.Parent, 0, len(keys))
	for _, key := range keys {
		out = append(out, domain.ChildOf(key))
	}
	return out
}
