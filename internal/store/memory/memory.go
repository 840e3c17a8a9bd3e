// Package memory is an in-process storage backend. It backs tests and
// single-instance deployments that do not need persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/store"
)

// Store keeps every session snapshot in memory.
type Store struct {
	mu        sync.RWMutex
	bookmarks map[string][]domain.Bookmark   // session ID -> records
	metas     map[string]domain.SessionMeta // session ID -> meta
	settings  *domain.Settings               // nil until first update
}

var _ store.Backend = (*Store)(nil)

// New creates an empty memory store.
func New() *Store {
	return &Store{
		bookmarks: make(map[string][]domain.Bookmark),
		metas:     make(map[string]domain.SessionMeta),
	}
}

// ─────────────────────────────────────────────────────────────────
// Bookmark methods
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetAll(_ context.Context, sessionID string) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.bookmarks[sessionID]
	out := make([]domain.Bookmark, len(records))
	copy(out, records)
	return out, nil
}

func (s *Store) Add(_ context.Context, b domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := store.Append(s.bookmarks[b.SessionID], b)
	if err != nil {
		return err
	}
	s.bookmarks[b.SessionID] = next
	return nil
}

func (s *Store) Update(_ context.Context, sessionID string, u domain.Update) (domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, updated, err := store.UpdateOne(s.bookmarks[sessionID], u)
	if err != nil {
		return domain.Bookmark{}, err
	}
	s.bookmarks[sessionID] = next
	return updated, nil
}

func (s *Store) UpdateMany(_ context.Context, sessionID string, updates []domain.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := domain.ApplyUpdates(s.bookmarks[sessionID], updates)
	if err != nil {
		return err
	}
	s.bookmarks[sessionID] = next
	return nil
}

func (s *Store) Delete(_ context.Context, sessionID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := store.Remove(s.bookmarks[sessionID], id)
	if err != nil {
		return err
	}
	s.set(sessionID, next)
	return nil
}

func (s *Store) DeleteCascade(_ context.Context, sessionID, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed, err := store.Cascade(s.bookmarks[sessionID], id)
	if err != nil {
		return nil, err
	}
	s.set(sessionID, next)
	return removed, nil
}

func (s *Store) DeleteAllInSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bookmarks, sessionID)
	return nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookmarks = make(map[string][]domain.Bookmark)
	return nil
}

func (s *Store) Sessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.bookmarks))
	for id := range s.bookmarks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// set stores a snapshot, dropping empty sessions.
func (s *Store) set(sessionID string, records []domain.Bookmark) {
	if len(records) == 0 {
		delete(s.bookmarks, sessionID)
		return
	}
	s.bookmarks[sessionID] = records
}

// ─────────────────────────────────────────────────────────────────
// Session methods
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetMeta(_ context.Context, sessionID string) (domain.SessionMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metas[sessionID]
	if !ok {
		return domain.SessionMeta{}, fmt.Errorf("%w: session %s", store.ErrNotFound, sessionID)
	}
	return meta, nil
}

func (s *Store) SaveMeta(_ context.Context, meta domain.SessionMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metas[meta.SessionID] = meta
	return nil
}

func (s *Store) ListMetas(_ context.Context) ([]domain.SessionMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metas := make([]domain.SessionMeta, 0, len(s.metas))
	for _, meta := range s.metas {
		metas = append(metas, meta)
	}
	store.SortMetas(metas)
	return metas, nil
}

func (s *Store) DeleteMeta(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.metas, sessionID)
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Settings methods
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return domain.DefaultSettings(), nil
	}
	return *s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := domain.DefaultSettings()
	if s.settings != nil {
		current = *s.settings
	}
	next, err := store.MergeSettings(current, patch)
	if err != nil {
		return current, err
	}
	s.settings = &next
	return next, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
