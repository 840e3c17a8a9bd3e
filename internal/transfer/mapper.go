package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

// Export converts a session tree into a document.
func Export(meta domain.SessionMeta, nodes []tree.Node) Document {
	return Document{
		Version: FormatVersion,
		Session: SessionEntry{
			ID:        meta.SessionID,
			Title:     meta.Title,
			Provider:  string(meta.Provider),
			UpdatedAt: meta.UpdatedAt.UTC(),
		},
		Bookmarks: exportNodes(nodes),
	}
}

func exportNodes(nodes []tree.Node) []Entry {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		b := n.Bookmark
		e := Entry{
			Name:     b.DisplayName,
			Note:     b.Note,
			Provider: string(b.Provider),
			Created:  b.CreatedAt.UTC(),
			Children: exportNodes(n.Children),
		}
		if a := b.Anchor; a != nil {
			e.Anchor = &AnchorEntry{
				Container: a.ContainerKey,
				Text:      a.Text,
				Before:    a.ContextBefore,
				After:     a.ContextAfter,
			}
			if a.DOMOffsets != nil {
				e.Anchor.Offsets = []int{a.DOMOffsets.Start, a.DOMOffsets.End}
			}
		}
		out = append(out, e)
	}
	return out
}

// Mapper converts documents back into records with fresh ids.
type Mapper struct {
	ids   domain.IDProvider
	clock func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper(ids domain.IDProvider, clock func() time.Time) *Mapper {
	if clock == nil {
		clock = time.Now
	}
	return &Mapper{ids: ids, clock: clock}
}

// MapEntries flattens doc into records of sessionID. Every group is
// numbered from zero in document order; entries without a name or anchor
// text fall back to the other.
func (m *Mapper) MapEntries(sessionID string, doc Document) ([]domain.Bookmark, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: empty session id", domain.ErrInvalidRecord)
	}

	var out []domain.Bookmark
	var walk func(entries []Entry, parent domain.Parent) error
	walk = func(entries []Entry, parent domain.Parent) error {
		for i, e := range entries {
			b, err := m.mapEntry(sessionID, e, parent, i)
			if err != nil {
				return err
			}
			out = append(out, b)
			if err := walk(e.Children, domain.ChildOf(b.ID)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc.Bookmarks, domain.Root()); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no bookmarks found in export")
	}
	return out, nil
}

func (m *Mapper) mapEntry(sessionID string, e Entry, parent domain.Parent, order int) (domain.Bookmark, error) {
	created := e.Created
	if created.IsZero() {
		created = m.clock()
	}
	created = created.UTC()

	if e.Anchor == nil {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return domain.Bookmark{}, fmt.Errorf("%w: folder without name", domain.ErrInvalidRecord)
		}
		return domain.NewFolder(m.ids, created, domain.NewFolderParams{
			SessionID:   sessionID,
			DisplayName: name,
			Parent:      parent,
			Order:       order,
		})
	}

	a := domain.Anchor{
		ContainerKey:  e.Anchor.Container,
		Text:          e.Anchor.Text,
		ContextBefore: e.Anchor.Before,
		ContextAfter:  e.Anchor.After,
	}
	if len(e.Anchor.Offsets) == 2 {
		a.DOMOffsets = &domain.Offsets{Start: e.Anchor.Offsets[0], End: e.Anchor.Offsets[1]}
	}
	provider, _ := domain.ParseProvider(e.Provider)

	b, err := domain.NewTextBookmark(m.ids, created, domain.NewTextBookmarkParams{
		SessionID:   sessionID,
		DisplayName: e.Name,
		Note:        e.Note,
		Anchor:      a,
		Provider:    provider,
		Parent:      parent,
		Order:       order,
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("bookmark %q: %w", e.Name, err)
	}
	return b, nil
}
