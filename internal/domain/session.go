package domain

import (
	"encoding/json"
	"time"
)

// SessionMeta describes a conversation that holds bookmarks.
type SessionMeta struct {
	SessionID string
	Title     string
	UpdatedAt time.Time
	Provider  Provider
}

type sessionMetaWire struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	UpdatedAt Timestamp `json:"updatedAt"`
	Provider  Provider  `json:"provider,omitempty"`
}

func (m SessionMeta) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionMetaWire{
		SessionID: m.SessionID,
		Title:     m.Title,
		UpdatedAt: Timestamp(m.UpdatedAt),
		Provider:  m.Provider,
	})
}

func (m *SessionMeta) UnmarshalJSON(data []byte) error {
	var w sessionMetaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = SessionMeta{
		SessionID: w.SessionID,
		Title:     w.Title,
		UpdatedAt: time.Time(w.UpdatedAt),
		Provider:  w.Provider,
	}
	return nil
}
