// Package anchor captures text selections as re-locatable anchors and
// resolves them back to node ranges after the document has re-rendered.
//
// Offsets index the concatenation of every text node under a root in
// document order, measured in UTF-8 bytes.
package anchor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// segment is one text node and its offset in the flattened text.
type segment struct {
	node  *html.Node
	start int
}

func (s segment) end() int { return s.start + len(s.node.Data) }

// flatten returns the text nodes under root in document order together
// with their concatenated content.
func flatten(root *html.Node) ([]segment, string) {
	var (
		segs []segment
		b    strings.Builder
	)
	walkText(root, func(n *html.Node) {
		segs = append(segs, segment{node: n, start: b.Len()})
		b.WriteString(n.Data)
	})
	return segs, b.String()
}

// walkText visits text nodes under root in document order.
// An explicit stack keeps deep trees off the call stack.
func walkText(root *html.Node, visit func(*html.Node)) {
	if root == nil {
		return
	}
	if root.Type == html.TextNode {
		visit(root)
		return
	}
	stack := []*html.Node{}
	for c := root.LastChild; c != nil; c = c.PrevSibling {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type == html.TextNode {
			visit(n)
			continue
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
}

// Text returns the flattened text of root, the equivalent of textContent.
func Text(root *html.Node) string {
	_, text := flatten(root)
	return text
}

// renderable reports whether text in n can be displayed and selected.
func renderable(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return false
		}
	}
	return true
}

// attr returns the value of the named attribute.
func attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// topOf returns the outermost ancestor of n.
func topOf(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// elements visits element nodes under root in document order, stopping
// when visit returns false.
func elements(root *html.Node, visit func(*html.Node) bool) {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type == html.ElementNode && !visit(n) {
			return
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
}

// Parse parses an HTML document or fragment into a node tree.
func Parse(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}
