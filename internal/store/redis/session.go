package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/store"
)

// GetMeta retrieves a session meta
func (s *Store) GetMeta(ctx context.Context, sessionID string) (domain.SessionMeta, error) {
	data, err := s.client.Get(ctx, SessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SessionMeta{}, fmt.Errorf("%w: session %s", store.ErrNotFound, sessionID)
		}
		return domain.SessionMeta{}, fmt.Errorf("failed to get session: %w", err)
	}

	var meta domain.SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.SessionMeta{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return meta, nil
}

// SaveMeta stores a session meta
func (s *Store) SaveMeta(ctx context.Context, meta domain.SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SessionKey(meta.SessionID), data, 0)
	pipe.SAdd(ctx, AllSessionsKey(), meta.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ListMetas retrieves all session metas, newest first
func (s *Store) ListMetas(ctx context.Context) ([]domain.SessionMeta, error) {
	ids, err := s.client.SMembers(ctx, AllSessionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}

	metas := make([]domain.SessionMeta, 0, len(ids))
	for _, id := range ids {
		meta, err := s.GetMeta(ctx, id)
		if err != nil {
			// Skip sessions that couldn't be retrieved
			continue
		}
		metas = append(metas, meta)
	}
	store.SortMetas(metas)
	return metas, nil
}

// DeleteMeta removes a session meta
func (s *Store) DeleteMeta(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, SessionKey(sessionID))
	pipe.SRem(ctx, AllSessionsKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
