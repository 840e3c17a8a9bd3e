// Package reorder turns drag-and-drop gestures into update batches that
// keep every sibling group contiguously numbered.
package reorder

import (
	"fmt"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

// Position is where a record is dropped relative to its target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
	Nest   Position = "nest"
)

// ParsePosition validates a position name.
func ParsePosition(raw string) (Position, error) {
	switch p := Position(raw); p {
	case Before, After, Nest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown drop position %q", raw)
	}
}

// Gesture is a classified drop. An empty Target means the root drop zone.
type Gesture struct {
	Moving   string   `json:"moving"`
	Target   string   `json:"target,omitempty"`
	Position Position `json:"position,omitempty"`
}

// Batch is the set of updates a gesture produces. Expand names a folder
// the UI should open after applying it.
type Batch struct {
	Updates []domain.Update `json:"updates"`
	Expand  string          `json:"expand,omitempty"`
}

// IsEmpty reports whether the batch changes nothing.
func (b Batch) IsEmpty() bool { return len(b.Updates) == 0 }

// Apply returns the records with the batch applied.
func (b Batch) Apply(records []domain.Bookmark) ([]domain.Bookmark, error) {
	return domain.ApplyUpdates(records, b.Updates)
}

// Classify maps the pointer offset inside a drop target of the given
// height to a position. Without nesting the target splits in half.
func Classify(offsetY, height float64, canNest bool) Position {
	if height <= 0 {
		return After
	}
	ratio := offsetY / height
	if !canNest {
		if ratio < 0.5 {
			return Before
		}
		return After
	}
	switch {
	case ratio < 0.2:
		return Before
	case ratio > 0.8:
		return After
	default:
		return Nest
	}
}

// Plan computes the batch for a gesture. Rejected gestures return an
// error wrapping domain.ErrTree and no batch.
func Plan(g Gesture, t *tree.Tree) (Batch, error) {
	moving, ok := t.Get(g.Moving)
	if !ok {
		return Batch{}, fmt.Errorf("%w: %s", domain.ErrUnknownRecord, g.Moving)
	}

	var (
		newParent domain.Parent
		anchorID  string
		expand    string
		offset    int
	)
	switch {
	case g.Target == "":
		newParent = domain.Root()
	case g.Target == g.Moving:
		return Batch{}, domain.ErrSelfDrop
	default:
		target, ok := t.Get(g.Target)
		if !ok {
			return Batch{}, fmt.Errorf("%w: %s", domain.ErrUnknownRecord, g.Target)
		}
		switch g.Position {
		case Nest:
			newParent = domain.ChildOf(target.ID)
			expand = target.ID
		case Before:
			newParent, anchorID = target.Parent, target.ID
		case After:
			newParent, anchorID, offset = target.Parent, target.ID, 1
		default:
			return Batch{}, fmt.Errorf("unknown drop position %q", g.Position)
		}
	}

	if t.WouldCycle(moving.ID, newParent) {
		return Batch{}, fmt.Errorf("%w: %s under %s", domain.ErrWouldCreateCycle, moving.ID, newParent)
	}

	dest := without(t.Siblings(newParent), moving.ID)
	at := len(dest)
	if anchorID != "" {
		for i, b := range dest {
			if b.ID == anchorID {
				at = i + offset
				break
			}
		}
	}
	dest = append(dest[:at], append([]domain.Bookmark{moving}, dest[at:]...)...)

	batch := Batch{Expand: expand}
	for i, b := range dest {
		p := domain.Placement(newParent, i)
		if b.ID != moving.ID {
			p = domain.Reordering(i)
		}
		batch.Updates = append(batch.Updates, domain.Update{ID: b.ID, Patch: p})
	}
	if moving.Parent != newParent {
		for i, b := range without(t.Siblings(moving.Parent), moving.ID) {
			batch.Updates = append(batch.Updates, domain.Update{ID: b.ID, Patch: domain.Reordering(i)})
		}
	}
	return batch, nil
}

// Normalize renumbers every group of the tree to 0..n-1, returning
// updates only for records whose order changes.
func Normalize(t *tree.Tree) []domain.Update {
	var updates []domain.Update
	for _, parent := range t.Groups() {
		for i, b := range t.Siblings(parent) {
			if b.Order != i {
				updates = append(updates, domain.Update{ID: b.ID, Patch: domain.Reordering(i)})
			}
		}
	}
	return updates
}

func without(records []domain.Bookmark, id string) []domain.Bookmark {
	out := make([]domain.Bookmark, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
