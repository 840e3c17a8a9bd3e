// Package redis stores each session's bookmarks as one JSON list so that
// every mutation is a single optimistic transaction on one key.
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

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 16

// Store handles Redis operations for bookmarks, sessions and settings
type Store struct {
	client *redis.Client
}

var _ store.Backend = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// load reads a session list. A missing key is an empty session.
func load(ctx context.Context, c getter, key string) ([]domain.Bookmark, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Bookmark{}, nil
		}
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	var records []domain.Bookmark
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmarks: %w", err)
	}
	return records, nil
}

// mutate runs fn against the current list of a session inside a
// WATCH/MULTI transaction, retrying when another writer got there first.
func (s *Store) mutate(ctx context.Context, sessionID string, fn func([]domain.Bookmark) ([]domain.Bookmark, error)) error {
	key := BookmarksKey(sessionID)

	txf := func(tx *redis.Tx) error {
		records, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(records)
		if err != nil {
			return err
		}

		var data []byte
		if len(next) > 0 {
			if data, err = json.Marshal(next); err != nil {
				return fmt.Errorf("failed to marshal bookmarks: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(next) == 0 {
				pipe.Del(ctx, key)
				pipe.SRem(ctx, BookmarkSessionsKey(), sessionID)
				return nil
			}
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, BookmarkSessionsKey(), sessionID)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update session %s: transaction retries exhausted", sessionID)
}

// ─────────────────────────────────────────────────────────────────
// Bookmark methods
// ─────────────────────────────────────────────────────────────────

// GetAll retrieves every bookmark of a session
func (s *Store) GetAll(ctx context.Context, sessionID string) ([]domain.Bookmark, error) {
	return load(ctx, s.client, BookmarksKey(sessionID))
}

// Add stores a new bookmark
func (s *Store) Add(ctx context.Context, b domain.Bookmark) error {
	return s.mutate(ctx, b.SessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		return store.Append(records, b)
	})
}

// Update applies a single patch
func (s *Store) Update(ctx context.Context, sessionID string, u domain.Update) (domain.Bookmark, error) {
	var updated domain.Bookmark
	err := s.mutate(ctx, sessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		next, b, err := store.UpdateOne(records, u)
		updated = b
		return next, err
	})
	if err != nil {
		return domain.Bookmark{}, err
	}
	return updated, nil
}

// UpdateMany applies a batch atomically
func (s *Store) UpdateMany(ctx context.Context, sessionID string, updates []domain.Update) error {
	return s.mutate(ctx, sessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		return domain.ApplyUpdates(records, updates)
	})
}

// Delete removes a single bookmark
func (s *Store) Delete(ctx context.Context, sessionID, id string) error {
	return s.mutate(ctx, sessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		return store.Remove(records, id)
	})
}

// DeleteCascade removes a bookmark and everything nested under it
func (s *Store) DeleteCascade(ctx context.Context, sessionID, id string) ([]string, error) {
	var removed []string
	err := s.mutate(ctx, sessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		next, ids, err := store.Cascade(records, id)
		removed = ids
		return next, err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteAllInSession removes every bookmark of a session
func (s *Store) DeleteAllInSession(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, BookmarksKey(sessionID))
	pipe.SRem(ctx, BookmarkSessionsKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session bookmarks: %w", err)
	}
	return nil
}

// DeleteAll removes the bookmarks of every session
func (s *Store) DeleteAll(ctx context.Context) error {
	ids, err := s.Sessions(ctx)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, BookmarksKey(id))
	}
	pipe.Del(ctx, BookmarkSessionsKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bookmarks: %w", err)
	}
	return nil
}

// Sessions lists the sessions holding bookmarks
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, BookmarkSessionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}
	return ids, nil
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client
func (s *Store) Close() error {
	return s.client.Close()
}
