// Package service orchestrates capture, hierarchy edits and navigation on
// top of the storage ports. Writes to one session are serialized, and every
// write plans against a snapshot read inside the critical section.
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/store"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

type Config struct {
	Repository store.Repository
	Sessions   store.SessionStore
	Settings   store.SettingsStore
	IDProvider domain.IDProvider
	Events     events.Publisher
	Clock      func() time.Time
	Logger     logger.Logger
}

type Service struct {
	repo     store.Repository
	sessions store.SessionStore
	settings store.SettingsStore
	ids      domain.IDProvider
	events   events.Publisher
	clock    func() time.Time
	log      logger.Logger

	// global is held exclusively by operations spanning every session.
	global sync.RWMutex
	locks  keyedMutex
}

func New(cfg Config) (*Service, error) {
	if cfg.Repository == nil {
		return nil, newError(opNew, "missing_repository", errMissingRepository)
	}
	if cfg.Sessions == nil {
		return nil, newError(opNew, "missing_session_store", errMissingSessions)
	}
	if cfg.Settings == nil {
		return nil, newError(opNew, "missing_settings_store", errMissingSettings)
	}
	if cfg.IDProvider == nil {
		return nil, newError(opNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	pub := cfg.Events
	if pub == nil {
		pub = discard{}
	}

	return &Service{
		repo:     cfg.Repository,
		sessions: cfg.Sessions,
		settings: cfg.Settings,
		ids:      cfg.IDProvider,
		events:   pub,
		clock:    clock,
		log:      log,
		locks:    keyedMutex{locks: make(map[string]*refLock)},
	}, nil
}

type discard struct{}

func (discard) Publish(events.SessionChanged) {}

// ─────────────────────────────
// Per-session writer
// ─────────────────────────────

type refLock struct {
	sync.Mutex
	refs int
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// withSession runs fn while holding the writer lock of sessionID.
func (s *Service) withSession(sessionID string, fn func() error) error {
	s.global.RLock()
	defer s.global.RUnlock()
	unlock := s.locks.lock(sessionID)
	defer unlock()
	return fn()
}

// ─────────────────────────────
// Helpers
// ─────────────────────────────

func (s *Service) snapshot(ctx context.Context, sessionID string) (*tree.Tree, error) {
	records, err := s.repo.GetAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return tree.New(records), nil
}

func (s *Service) publish(sessionID string, kind events.Kind, ids ...string) {
	s.events.Publish(events.SessionChanged{
		SessionID: sessionID,
		Kind:      kind,
		IDs:       ids,
		At:        s.clock().UTC(),
	})
}

// resync refetches the canonical list after a failed write so that
// subscribers drop any optimistic state, then asks them to refresh.
func (s *Service) resync(ctx context.Context, operation, sessionID string, cause error) {
	if _, err := s.repo.GetAll(ctx, sessionID); err != nil {
		s.logError(operation, "refetch_failed", err, logger.String("session_id", sessionID))
	}
	s.logError(operation, "write_failed", cause, logger.String("session_id", sessionID))
	s.publish(sessionID, events.KindRefresh)
}

// touch bumps the session meta so recently edited sessions list first.
func (s *Service) touch(ctx context.Context, sessionID string, provider domain.Provider, title string) {
	meta, err := s.sessions.GetMeta(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logError(opSaveMeta, "meta_lookup_failed", err, logger.String("session_id", sessionID))
		return
	}
	meta.SessionID = sessionID
	meta.UpdatedAt = s.clock().UTC()
	if t := strings.TrimSpace(title); t != "" {
		meta.Title = t
	}
	if provider != "" {
		meta.Provider = provider
	}
	if err := s.sessions.SaveMeta(ctx, meta); err != nil {
		s.logError(opSaveMeta, "meta_save_failed", err, logger.String("session_id", sessionID))
	}
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		logger.String("operation", operation),
		logger.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, logger.Error(err))
	}
	attrs = append(attrs, fields...)
	s.log.Error("bookmark service error", attrs...)
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return invalid("session id is required")
	}
	return nil
}

func sorted(records []domain.Bookmark) []domain.Bookmark {
	out := append([]domain.Bookmark(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return tree.Less(out[i], out[j]) })
	return out
}

func idsOf(records []domain.Bookmark) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func updateIDs(updates []domain.Update) []string {
	seen := make(map[string]struct{}, len(updates))
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u.ID)
	}
	return out
}
