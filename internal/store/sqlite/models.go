package sqlite

import (
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

type bookmarkRow struct {
	SessionID     string  `gorm:"column:session_id;primaryKey;size:190;not null"`
	ID            string  `gorm:"column:id;primaryKey;size:190;not null"`
	DisplayName   string  `gorm:"column:display_name;not null"`
	Note          string  `gorm:"column:note"`
	Text          *string `gorm:"column:text"`
	ContextBefore string  `gorm:"column:context_before"`
	ContextAfter  string  `gorm:"column:context_after"`
	ContainerKey  string  `gorm:"column:container_key"`
	DOMStart      *int    `gorm:"column:dom_start"`
	DOMEnd        *int    `gorm:"column:dom_end"`
	ParentID      *string `gorm:"column:parent_id;index"`
	SortOrder     int     `gorm:"column:sort_order;not null"`
	Provider      string  `gorm:"column:provider"`
	CreatedAtNano int64   `gorm:"column:created_at_ns;not null"`
}

func (bookmarkRow) TableName() string {
	return "bookmarks"
}

type sessionRow struct {
	SessionID     string `gorm:"column:session_id;primaryKey;size:190;not null"`
	Title         string `gorm:"column:title"`
	Provider      string `gorm:"column:provider"`
	UpdatedAtNano int64  `gorm:"column:updated_at_ns;index;not null"`
}

func (sessionRow) TableName() string {
	return "sessions"
}

// settingsRow is a single-row table.
type settingsRow struct {
	ID             int    `gorm:"column:id;primaryKey"`
	HighlightColor string `gorm:"column:highlight_color;not null"`
	ScrollBehavior string `gorm:"column:scroll_behavior;not null"`
	ColorScheme    string `gorm:"column:color_scheme;not null"`
	Language       string `gorm:"column:language"`
}

func (settingsRow) TableName() string {
	return "settings"
}

const settingsRowID = 1

func toRow(b domain.Bookmark) bookmarkRow {
	row := bookmarkRow{
		SessionID:     b.SessionID,
		ID:            b.ID,
		DisplayName:   b.DisplayName,
		Note:          b.Note,
		SortOrder:     b.Order,
		Provider:      string(b.Provider),
		CreatedAtNano: b.CreatedAt.UnixNano(),
	}
	if parent, ok := b.Parent.ID(); ok {
		row.ParentID = &parent
	}
	if a := b.Anchor; a != nil {
		text := a.Text
		row.Text = &text
		row.ContextBefore = a.ContextBefore
		row.ContextAfter = a.ContextAfter
		row.ContainerKey = a.ContainerKey
		if a.DOMOffsets != nil {
			start, end := a.DOMOffsets.Start, a.DOMOffsets.End
			row.DOMStart, row.DOMEnd = &start, &end
		}
	}
	return row
}

func (row bookmarkRow) toDomain() domain.Bookmark {
	b := domain.Bookmark{
		ID:          row.ID,
		SessionID:   row.SessionID,
		DisplayName: row.DisplayName,
		Note:        row.Note,
		Provider:    domain.Provider(row.Provider),
		Order:       row.SortOrder,
		CreatedAt:   time.Unix(0, row.CreatedAtNano).UTC(),
	}
	if row.ParentID != nil {
		b.Parent = domain.ChildOf(*row.ParentID)
	}
	if row.Text != nil {
		b.Anchor = &domain.Anchor{
			ContainerKey:  row.ContainerKey,
			Text:          *row.Text,
			ContextBefore: row.ContextBefore,
			ContextAfter:  row.ContextAfter,
		}
		if row.DOMStart != nil && row.DOMEnd != nil {
			b.Anchor.DOMOffsets = &domain.Offsets{Start: *row.DOMStart, End: *row.DOMEnd}
		}
	}
	return b
}

func toSessionRow(m domain.SessionMeta) sessionRow {
	return sessionRow{
		SessionID:     m.SessionID,
		Title:         m.Title,
		Provider:      string(m.Provider),
		UpdatedAtNano: m.UpdatedAt.UnixNano(),
	}
}

func (row sessionRow) toDomain() domain.SessionMeta {
	return domain.SessionMeta{
		SessionID: row.SessionID,
		Title:     row.Title,
		Provider:  domain.Provider(row.Provider),
		UpdatedAt: time.Unix(0, row.UpdatedAtNano).UTC(),
	}
}
