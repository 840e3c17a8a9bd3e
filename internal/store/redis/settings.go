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

func loadSettings(ctx context.Context, c getter) (domain.Settings, error) {
	data, err := c.Get(ctx, SettingsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	settings := domain.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings, nil
}

// GetSettings retrieves the user preferences
func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	return loadSettings(ctx, s.client)
}

// UpdateSettings merges a patch into the stored preferences
func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	var next domain.Settings
	txf := func(tx *redis.Tx) error {
		current, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if next, err = store.MergeSettings(current, patch); err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, SettingsKey(), data, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, SettingsKey())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Settings{}, err
		}
		return next, nil
	}
	return domain.Settings{}, errors.New("failed to update settings: transaction retries exhausted")
}
