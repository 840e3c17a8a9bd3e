// Package store defines the persistence ports of the bookmark service and
// the snapshot helpers shared by list-oriented backends.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

// ErrNotFound is returned when a session meta does not exist.
var ErrNotFound = errors.New("not found")

// Repository persists bookmark records, scoped by session.
// Unknown record ids are reported as domain.ErrUnknownRecord.
type Repository interface {
	// GetAll returns every record of a session in no particular order.
	GetAll(ctx context.Context, sessionID string) ([]domain.Bookmark, error)
	Add(ctx context.Context, b domain.Bookmark) error
	Update(ctx context.Context, sessionID string, u domain.Update) (domain.Bookmark, error)
	// UpdateMany applies all updates or none.
	UpdateMany(ctx context.Context, sessionID string, updates []domain.Update) error
	Delete(ctx context.Context, sessionID, id string) error
	// DeleteCascade removes id and its descendants and returns the removed ids.
	DeleteCascade(ctx context.Context, sessionID, id string) ([]string, error)
	DeleteAllInSession(ctx context.Context, sessionID string) error
	DeleteAll(ctx context.Context) error
	// Sessions lists the ids of sessions holding at least one record.
	Sessions(ctx context.Context) ([]string, error)
}

// SessionStore persists session metadata.
type SessionStore interface {
	GetMeta(ctx context.Context, sessionID string) (domain.SessionMeta, error)
	SaveMeta(ctx context.Context, meta domain.SessionMeta) error
	// ListMetas returns metas newest first.
	ListMetas(ctx context.Context) ([]domain.SessionMeta, error)
	DeleteMeta(ctx context.Context, sessionID string) error
}

// SettingsStore persists the user preferences.
type SettingsStore interface {
	// GetSettings returns the defaults when nothing was saved yet.
	GetSettings(ctx context.Context) (domain.Settings, error)
	// UpdateSettings merges the patch over the current settings.
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
}

// Backend is a complete storage implementation.
type Backend interface {
	Repository
	SessionStore
	SettingsStore
	Ping(ctx context.Context) error
	Close() error
}
