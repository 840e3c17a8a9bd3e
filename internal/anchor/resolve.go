package anchor

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

// Layer names the matching strategy that located an anchor.
type Layer string

const (
	LayerContext Layer = "context"
	LayerText    Layer = "text"
)

// Resolution is the outcome of resolving an anchor against a document.
type Resolution struct {
	ContainerKey string
	Container    *html.Node

	// Start and End are flattened offsets inside the container.
	Start int
	End   int

	// Range is nil when the text was found but could not be mapped onto
	// selectable nodes. Callers then scroll to the container only.
	Range *Range

	Layer Layer
}

// Degraded reports whether only the container could be located.
func (r Resolution) Degraded() bool { return r.Range == nil }

// Resolve locates an anchor inside doc. A miss never implies the record
// should be removed.
func Resolve(doc *html.Node, a domain.Anchor, finder ContainerFinder) (Resolution, error) {
	container, ok := finder.Lookup(doc, a.ContainerKey)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", domain.ErrContainerGone, a.ContainerKey)
	}
	if a.Text == "" {
		return Resolution{}, domain.ErrTargetTextGone
	}

	full := Text(container)
	res := Resolution{ContainerKey: a.ContainerKey, Container: container}

	if idx := strings.Index(full, a.ContextBefore+a.Text+a.ContextAfter); idx >= 0 {
		res.Start, res.Layer = idx+len(a.ContextBefore), LayerContext
	} else if idx := bestOccurrence(full, a); idx >= 0 {
		res.Start, res.Layer = idx, LayerText
	} else {
		return Resolution{}, domain.ErrTargetTextGone
	}
	res.End = res.Start + len(a.Text)

	r, err := Locate(container, res.Start, res.End)
	if err != nil {
		if errors.Is(err, ErrRangeNotFound) {
			return res, nil
		}
		return Resolution{}, err
	}
	res.Range = &r
	return res, nil
}

// bestOccurrence picks the occurrence of the anchor text whose
// surroundings agree most with the captured context. Ties keep the
// earliest occurrence.
func bestOccurrence(full string, a domain.Anchor) int {
	best, bestScore := -1, -1
	for from := 0; from <= len(full)-len(a.Text); {
		i := strings.Index(full[from:], a.Text)
		if i < 0 {
			break
		}
		idx := from + i
		score := commonSuffix(full[:idx], a.ContextBefore) + commonPrefix(full[idx+len(a.Text):], a.ContextAfter)
		if score > bestScore {
			best, bestScore = idx, score
		}
		from = idx + 1
	}
	return best
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
