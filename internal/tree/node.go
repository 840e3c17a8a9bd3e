package tree

import "github.com/MrSnakeDoc/chatmark/internal/domain"

// Node is a nested view of a record and its children.
type Node struct {
	Bookmark domain.Bookmark `json:"bookmark"`
	Children []Node          `json:"children,omitempty"`
}

// Nodes returns the root-level records nested with their descendants.
// Orphans are not included.
func (t *Tree) Nodes() []Node {
	visited := map[string]struct{}{}
	return t.nodes(domain.Root(), visited)
}

func (t *Tree) nodes(parent domain.Parent, visited map[string]struct{}) []Node {
	siblings := t.Siblings(parent)
	out := make([]Node, 0, len(siblings))
	for _, b := range siblings {
		if _, seen := visited[b.ID]; seen {
			continue
		}
		visited[b.ID] = struct{}{}
		out = append(out, Node{
			Bookmark: b,
			Children: t.nodes(domain.ChildOf(b.ID), visited),
		})
	}
	return out
}
