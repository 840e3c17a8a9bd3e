package anchor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

// Selection is a user selection inside a document.
type Selection Range

// Range returns the selection as a Range.
func (s Selection) Range() Range { return Range(s) }

// SelectText builds a selection from flattened offsets under root.
func SelectText(root *html.Node, start, end int) (Selection, error) {
	r, err := Locate(root, start, end)
	if err != nil {
		return Selection{}, err
	}
	return Selection(r), nil
}

// SelectNeedle selects the first occurrence of needle under root.
func SelectNeedle(root *html.Node, needle string) (Selection, error) {
	if needle == "" {
		return Selection{}, domain.ErrEmptySelection
	}
	idx := strings.Index(Text(root), needle)
	if idx < 0 {
		return Selection{}, fmt.Errorf("%w: %q", ErrRangeNotFound, needle)
	}
	return SelectText(root, idx, idx+len(needle))
}

// Capture turns a selection into an anchor that can be resolved after
// the surrounding markup re-renders.
func Capture(sel Selection, finder ContainerFinder) (domain.Anchor, error) {
	r := sel.Range()
	if r.Start.Node == nil || r.IsCollapsed() {
		return domain.Anchor{}, domain.ErrEmptySelection
	}
	selected := strings.TrimSpace(r.Text())
	if selected == "" {
		return domain.Anchor{}, domain.ErrEmptySelection
	}

	key, container := enclosing(r.Start.Node, finder)
	if container == nil {
		return domain.Anchor{}, domain.ErrNoContainer
	}

	full := Text(container)
	idx := strings.Index(full, selected)
	if idx < 0 {
		return domain.Anchor{}, domain.ErrTextNotFound
	}

	a := domain.Anchor{
		ContainerKey:  key,
		Text:          selected,
		ContextBefore: lastRunes(full[:idx], domain.ContextWindow),
		ContextAfter:  firstRunes(full[idx+len(selected):], domain.ContextWindow),
	}
	if offsets, ok := domOffsets(r); ok {
		a.DOMOffsets = &offsets
	}
	return a, nil
}

// enclosing walks up from n until the finder recognizes a container.
func enclosing(n *html.Node, finder ContainerFinder) (string, *html.Node) {
	for cur := n; cur != nil; cur = cur.Parent {
		if key, ok := finder.KeyOf(cur); ok {
			return key, cur
		}
	}
	return "", nil
}

// domOffsets derives advisory offsets from data-start annotations some
// providers render around message spans.
func domOffsets(r Range) (domain.Offsets, bool) {
	start, ok := dataStart(r.Start.Node)
	if !ok {
		return domain.Offsets{}, false
	}
	end, ok := dataStart(r.End.Node)
	if !ok {
		return domain.Offsets{}, false
	}
	return domain.Offsets{Start: start + r.Start.Offset, End: end + r.End.Offset}, true
}

func dataStart(n *html.Node) (int, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		raw, ok := attr(cur, "data-start")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func lastRunes(s string, n int) string {
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func firstRunes(s string, n int) string {
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
