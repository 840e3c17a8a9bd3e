package domain

import (
	"fmt"
	"strings"
	"time"
)

// ContextWindow is the number of runes kept on each side of an anchor.
const ContextWindow = 50

// Bookmark is the unit of both anchoring and hierarchy.
//
// A Bookmark with a nil Anchor is a pure container (folder).
// Records are only ever visible within their session.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is generated at capture time.
	ID string

	// SessionID identifies the conversation the record belongs to.
	SessionID string

	// ─────────────────────────────
	// User-editable metadata
	// ─────────────────────────────

	// DisplayName is independent of the anchored text.
	DisplayName string

	// Note is optional free text attached by the user.
	Note string

	// ─────────────────────────────
	// Target
	// ─────────────────────────────

	// Anchor is nil for folder-only records.
	Anchor *Anchor

	// Provider is the chat provider the anchor was captured on.
	// Example: ChatGPT
	Provider Provider

	// ─────────────────────────────
	// Hierarchy
	// ─────────────────────────────

	// Parent is Root or a record of the same session.
	Parent Parent

	// Order is unique and contiguous within the Parent group.
	Order int

	// CreatedAt is the capture timestamp.
	CreatedAt time.Time
}

// Anchor is the re-locatable reference to a text span.
type Anchor struct {
	// ContainerKey identifies the enclosing logical block (a message id).
	ContainerKey string `json:"containerKey"`

	// Text is the exact selected text at capture time. Never empty.
	Text string `json:"text"`

	// ContextBefore and ContextAfter hold up to ContextWindow runes
	// surrounding the selection at capture time.
	ContextBefore string `json:"contextBefore"`
	ContextAfter  string `json:"contextAfter"`

	// DOMOffsets are advisory provider-specific offsets, never ground truth.
	DOMOffsets *Offsets `json:"domOffsets,omitempty"`
}

// Offsets is a best-effort start/end pair.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsFolder reports whether the record has no text target.
func (b Bookmark) IsFolder() bool { return b.Anchor == nil }

// Validate checks the per-record invariants. Cross-record invariants
// (orphans, cycles, contiguity) live in the tree package.
func (b Bookmark) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if strings.TrimSpace(b.SessionID) == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidRecord)
	}
	if b.Order < 0 {
		return fmt.Errorf("%w: negative order %d", ErrInvalidRecord, b.Order)
	}
	if b.Parent.Is(b.ID) {
		return fmt.Errorf("%w: record %s is its own parent", ErrInvalidRecord, b.ID)
	}
	if b.Anchor != nil {
		if err := b.Anchor.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the anchor can be resolved later.
func (a Anchor) Validate() error {
	if a.Text == "" {
		return fmt.Errorf("%w: empty anchor text", ErrInvalidRecord)
	}
	if strings.TrimSpace(a.ContainerKey) == "" {
		return fmt.Errorf("%w: empty container key", ErrInvalidRecord)
	}
	return nil
}

// NewTextBookmarkParams holds parameters for creating a text bookmark.
type NewTextBookmarkParams struct {
	SessionID   string
	DisplayName string // defaults to the anchored text
	Note        string
	Anchor      Anchor
	Provider    Provider
	Parent      Parent
	Order       int
}

// NewTextBookmark creates a Bookmark targeting a text span.
func NewTextBookmark(ids IDProvider, now time.Time, params NewTextBookmarkParams) (Bookmark, error) {
	id, err := ids.NewID()
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to generate bookmark id: %w", err)
	}
	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		name = params.Anchor.Text
	}
	anchor := params.Anchor
	b := Bookmark{
		ID:          id,
		SessionID:   params.SessionID,
		DisplayName: name,
		Note:        params.Note,
		Anchor:      &anchor,
		Provider:    params.Provider,
		Parent:      params.Parent,
		Order:       params.Order,
		CreatedAt:   now,
	}
	return b, b.Validate()
}

// NewFolderParams holds parameters for creating a folder record.
type NewFolderParams struct {
	SessionID   string
	DisplayName string
	Parent      Parent
	Order       int
}

// NewFolder creates a container record with no text target.
func NewFolder(ids IDProvider, now time.Time, params NewFolderParams) (Bookmark, error) {
	id, err := ids.NewID()
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to generate folder id: %w", err)
	}
	b := Bookmark{
		ID:          id,
		SessionID:   params.SessionID,
		DisplayName: strings.TrimSpace(params.DisplayName),
		Parent:      params.Parent,
		Order:       params.Order,
		CreatedAt:   now,
	}
	return b, b.Validate()
}
