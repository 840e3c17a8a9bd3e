package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/store"
)

// Sessions lists session metas newest first. Sessions that hold records
// but were never described get a bare meta at the end. A non-empty
// provider keeps only matching metas.
func (s *Service) Sessions(ctx context.Context, provider domain.Provider) ([]domain.SessionMeta, error) {
	metas, err := s.sessions.ListMetas(ctx)
	if err != nil {
		s.logError(opSessions, "query_failed", err)
		return nil, newError(opSessions, "query_failed", err)
	}
	ids, err := s.repo.Sessions(ctx)
	if err != nil {
		s.logError(opSessions, "query_failed", err)
		return nil, newError(opSessions, "query_failed", err)
	}

	known := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		known[m.SessionID] = struct{}{}
	}
	var bare []domain.SessionMeta
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			bare = append(bare, domain.SessionMeta{SessionID: id})
		}
	}
	store.SortMetas(bare)
	metas = append(metas, bare...)

	if provider == "" {
		return metas, nil
	}
	out := metas[:0]
	for _, m := range metas {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) Meta(ctx context.Context, sessionID string) (domain.SessionMeta, error) {
	if err := requireSession(sessionID); err != nil {
		return domain.SessionMeta{}, newError(opGetMeta, "missing_session_id", err)
	}
	meta, err := s.sessions.GetMeta(ctx, sessionID)
	if err != nil {
		return domain.SessionMeta{}, newError(opGetMeta, "query_failed", err)
	}
	return meta, nil
}

// SaveMeta stores the title and provider of a session. UpdatedAt is
// stamped by the service.
func (s *Service) SaveMeta(ctx context.Context, meta domain.SessionMeta) (domain.SessionMeta, error) {
	meta.SessionID = strings.TrimSpace(meta.SessionID)
	if err := requireSession(meta.SessionID); err != nil {
		return domain.SessionMeta{}, newError(opSaveMeta, "missing_session_id", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.UpdatedAt = s.clock().UTC()

	if err := s.sessions.SaveMeta(ctx, meta); err != nil {
		s.logError(opSaveMeta, "save_failed", err, logger.String("session_id", meta.SessionID))
		return domain.SessionMeta{}, newError(opSaveMeta, "save_failed", err)
	}
	s.publish(meta.SessionID, events.KindMeta)
	return meta, nil
}

func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, newError(opGetSettings, "query_failed", err)
	}
	return settings, nil
}

// UpdateSettings merges a partial update and notifies every session.
func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	settings, err := s.settings.UpdateSettings(ctx, patch)
	if err != nil {
		return domain.Settings{}, newError(opUpdateSettings, "save_failed", err)
	}
	s.publish(events.SettingsSession, events.KindSettings)
	return settings, nil
}

// PruneSession deletes the meta of a session that holds no records and
// was last touched before staleBefore. It reports whether it deleted.
func (s *Service) PruneSession(ctx context.Context, sessionID string, staleBefore time.Time) (bool, error) {
	if err := requireSession(sessionID); err != nil {
		return false, newError(opPrune, "missing_session_id", err)
	}

	pruned := false
	err := s.withSession(sessionID, func() error {
		meta, err := s.sessions.GetMeta(ctx, sessionID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return newError(opPrune, "query_failed", err)
		}
		if meta.UpdatedAt.IsZero() || !meta.UpdatedAt.Before(staleBefore) {
			return nil
		}
		records, err := s.repo.GetAll(ctx, sessionID)
		if err != nil {
			return newError(opPrune, "query_failed", err)
		}
		if len(records) > 0 {
			return nil
		}
		if err := s.sessions.DeleteMeta(ctx, sessionID); err != nil {
			return newError(opPrune, "delete_failed", err)
		}
		pruned = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if pruned {
		s.publish(sessionID, events.KindMeta)
	}
	return pruned, nil
}
