package anchor

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrRangeNotFound is returned when offsets cannot be mapped onto
// selectable text nodes.
var ErrRangeNotFound = errors.New("range not found")

// Position is a point inside a text node.
type Position struct {
	Node   *html.Node
	Offset int
}

// Range spans from Start to End, both inside text nodes.
type Range struct {
	Start Position
	End   Position
}

// NodePath represents the traversal steps from a root to a target node.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3]
type NodePath []int

// Locate maps flattened offsets [start, end) under root onto a Range.
func Locate(root *html.Node, start, end int) (Range, error) {
	if start < 0 || end < start {
		return Range{}, fmt.Errorf("%w: invalid offsets [%d, %d)", ErrRangeNotFound, start, end)
	}
	segs, text := flatten(root)
	if len(segs) == 0 || len(text) < end {
		return Range{}, fmt.Errorf("%w: offset %d beyond text length %d", ErrRangeNotFound, end, len(text))
	}

	var (
		startPos, endPos *Position
	)
	for _, s := range segs {
		if startPos == nil && s.end() > start {
			startPos = &Position{Node: s.node, Offset: start - s.start}
			if start == end {
				endPos = startPos
				break
			}
		}
		if startPos != nil && s.start < end && end <= s.end() {
			endPos = &Position{Node: s.node, Offset: end - s.start}
			break
		}
	}
	if startPos == nil {
		// start == end == len(text): collapse at the end of the last node.
		last := segs[len(segs)-1]
		startPos = &Position{Node: last.node, Offset: len(last.node.Data)}
		endPos = startPos
	}
	if endPos == nil {
		return Range{}, fmt.Errorf("%w: end offset %d", ErrRangeNotFound, end)
	}
	if !renderable(startPos.Node) || !renderable(endPos.Node) {
		return Range{}, fmt.Errorf("%w: boundary inside non-renderable content", ErrRangeNotFound)
	}
	return Range{Start: *startPos, End: *endPos}, nil
}

// IsCollapsed reports whether the range is empty.
func (r Range) IsCollapsed() bool {
	return r.Start.Node == r.End.Node && r.Start.Offset == r.End.Offset
}

// Text returns the flattened text covered by the range.
func (r Range) Text() string {
	if r.Start.Node == nil || r.End.Node == nil {
		return ""
	}
	if r.Start.Node == r.End.Node {
		return clip(r.Start.Node.Data, r.Start.Offset, r.End.Offset)
	}
	var b strings.Builder
	b.WriteString(clip(r.Start.Node.Data, r.Start.Offset, len(r.Start.Node.Data)))
	for n := following(r.Start.Node); n != nil; n = following(n) {
		if n == r.End.Node {
			b.WriteString(clip(n.Data, 0, r.End.Offset))
			return b.String()
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	// End is not after Start in document order.
	return ""
}

// CommonAncestor returns the deepest node containing both boundaries.
func (r Range) CommonAncestor() *html.Node {
	seen := map[*html.Node]struct{}{}
	for n := r.Start.Node; n != nil; n = n.Parent {
		seen[n] = struct{}{}
	}
	for n := r.End.Node; n != nil; n = n.Parent {
		if _, ok := seen[n]; ok {
			return n
		}
	}
	return nil
}

// Path returns the child-index path from root to the position's node.
func (p Position) Path(root *html.Node) (NodePath, error) {
	return PathOf(root, p.Node)
}

// PathOf finds the path from root to the target node.
func PathOf(root, target *html.Node) (NodePath, error) {
	var path NodePath
	for current := target; current != root; {
		parent := current.Parent
		if parent == nil {
			return nil, errors.New("target node is not a descendant of root")
		}
		index := childIndex(parent, current)
		if index == -1 {
			return nil, errors.New("integrity error: child not found in parent's list")
		}
		path = append(path, index)
		current = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// NodeAt traverses root along path.
func NodeAt(root *html.Node, path NodePath) (*html.Node, error) {
	current := root
	for step, index := range path {
		child := current.FirstChild
		for i := 0; child != nil && i < index; i++ {
			child = child.NextSibling
		}
		if index < 0 || child == nil {
			return nil, fmt.Errorf("node not found at path %v (failed at index %d, step %d)", path, index, step)
		}
		current = child
	}
	return current, nil
}

func childIndex(parent, child *html.Node) int {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return count
		}
		count++
	}
	return -1
}

// following returns the next node in document order.
func following(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func clip(s string, from, to int) string {
	from = max(0, min(from, len(s)))
	to = max(from, min(to, len(s)))
	return s[from:to]
}
