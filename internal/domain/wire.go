package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// bookmarkWire is the persisted record shape. Anchor fields are inlined
// at the top level when the record has a text target.
type bookmarkWire struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"sessionId"`
	DisplayName   string       `json:"displayName"`
	Text          string       `json:"text,omitempty"`
	ContextBefore *string      `json:"contextBefore,omitempty"`
	ContextAfter  *string      `json:"contextAfter,omitempty"`
	ContainerKey  string       `json:"containerKey,omitempty"`
	DOMOffsets    *offsetsWire `json:"domOffsets,omitempty"`
	ParentID      Parent       `json:"parentId"`
	Order         int          `json:"order"`
	CreatedAt     Timestamp    `json:"createdAt"`
	Note          string       `json:"note,omitempty"`
	Provider      Provider     `json:"provider,omitempty"`
}

type offsetsWire struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MarshalJSON writes the wire shape other tooling relies on.
func (b Bookmark) MarshalJSON() ([]byte, error) {
	w := bookmarkWire{
		ID:          b.ID,
		SessionID:   b.SessionID,
		DisplayName: b.DisplayName,
		ParentID:    b.Parent,
		Order:       b.Order,
		CreatedAt:   Timestamp(b.CreatedAt),
		Note:        b.Note,
		Provider:    b.Provider,
	}
	if a := b.Anchor; a != nil {
		before, after := a.ContextBefore, a.ContextAfter
		w.Text = a.Text
		w.ContainerKey = a.ContainerKey
		w.ContextBefore = &before
		w.ContextAfter = &after
		if a.DOMOffsets != nil {
			w.DOMOffsets = &offsetsWire{Start: a.DOMOffsets.Start, End: a.DOMOffsets.End}
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire shape. A record without text is a folder.
func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var w bookmarkWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Bookmark{
		ID:          w.ID,
		SessionID:   w.SessionID,
		DisplayName: w.DisplayName,
		Parent:      w.ParentID,
		Order:       w.Order,
		CreatedAt:   time.Time(w.CreatedAt),
		Note:        w.Note,
		Provider:    w.Provider,
	}
	if w.Text != "" {
		a := &Anchor{
			ContainerKey: w.ContainerKey,
			Text:         w.Text,
		}
		if w.ContextBefore != nil {
			a.ContextBefore = *w.ContextBefore
		}
		if w.ContextAfter != nil {
			a.ContextAfter = *w.ContextAfter
		}
		if w.DOMOffsets != nil {
			a.DOMOffsets = &Offsets{Start: w.DOMOffsets.Start, End: w.DOMOffsets.End}
		}
		b.Anchor = a
	}
	return nil
}

// Timestamp encodes as RFC 3339 and decodes from RFC 3339 strings or
// epoch milliseconds.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(tt.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = Timestamp{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*t = Timestamp(parsed)
		return nil
	}
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch millis %s: %w", data, err)
	}
	*t = Timestamp(time.UnixMilli(millis).UTC())
	return nil
}
