// Package sqlite persists bookmarks in a SQLite database through gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/store"
)

// Store is a gorm-backed storage backend.
type Store struct {
	db *gorm.DB
}

var _ store.Backend = (*Store)(nil)

// Open establishes a SQLite connection and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, log logger.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&bookmarkRow{}, &sessionRow{}, &settingsRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if log != nil {
		log.Info("database initialized", logger.String("path", path))
	}

	return &Store{db: db}, nil
}

func loadRows(tx *gorm.DB, sessionID string) ([]domain.Bookmark, error) {
	var rows []bookmarkRow
	if err := tx.Where("session_id = ?", sessionID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}
	records := make([]domain.Bookmark, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}

// mutate loads a session inside a transaction, applies fn and writes
// back only the rows that changed.
func (s *Store) mutate(ctx context.Context, sessionID string, fn func([]domain.Bookmark) ([]domain.Bookmark, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := loadRows(tx, sessionID)
		if err != nil {
			return err
		}
		after, err := fn(before)
		if err != nil {
			return err
		}

		previous := make(map[string]bookmarkRow, len(before))
		for _, b := range before {
			previous[b.ID] = toRow(b)
		}
		for _, b := range after {
			row := toRow(b)
			old, existed := previous[b.ID]
			if !existed {
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to create bookmark %s: %w", b.ID, err)
				}
				continue
			}
			delete(previous, b.ID)
			if reflect.DeepEqual(old, row) {
				continue
			}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save bookmark %s: %w", b.ID, err)
			}
		}
		for id := range previous {
			if err := tx.Where("session_id = ? AND id = ?", sessionID, id).Delete(&bookmarkRow{}).Error; err != nil {
				return fmt.Errorf("failed to delete bookmark %s: %w", id, err)
			}
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────
// Bookmark methods
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetAll(ctx context.Context, sessionID string) ([]domain.Bookmark, error) {
	return loadRows(s.db.WithContext(ctx), sessionID)
}

func (s *Store) Add(ctx context.Context, b domain.Bookmark) error {
	return s.mutate(ctx, b.SessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		return store.Append(records, b)
	})
}

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

func (s *Store) UpdateMany(ctx context.Context, sessionID string, updates []domain.Update) error {
	return s.mutate(ctx, sessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		return domain.ApplyUpdates(records, updates)
	})
}

func (s *Store) Delete(ctx context.Context, sessionID, id string) error {
	return s.mutate(ctx, sessionID, func(records []domain.Bookmark) ([]domain.Bookmark, error) {
		return store.Remove(records, id)
	})
}

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

func (s *Store) DeleteAllInSession(ctx context.Context, sessionID string) error {
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&bookmarkRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete session bookmarks: %w", err)
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&bookmarkRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete bookmarks: %w", err)
	}
	return nil
}

func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&bookmarkRow{}).
		Distinct("session_id").
		Order("session_id").
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}
	return ids, nil
}

// ─────────────────────────────────────────────────────────────────
// Session methods
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetMeta(ctx context.Context, sessionID string) (domain.SessionMeta, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SessionMeta{}, fmt.Errorf("%w: session %s", store.ErrNotFound, sessionID)
		}
		return domain.SessionMeta{}, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) SaveMeta(ctx context.Context, meta domain.SessionMeta) error {
	row := toSessionRow(meta)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) ListMetas(ctx context.Context) ([]domain.SessionMeta, error) {
	var rows []sessionRow
	if err := s.db.WithContext(ctx).Order("updated_at_ns DESC, session_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	metas := make([]domain.SessionMeta, 0, len(rows))
	for _, row := range rows {
		metas = append(metas, row.toDomain())
	}
	return metas, nil
}

func (s *Store) DeleteMeta(ctx context.Context, sessionID string) error {
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&sessionRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Settings methods
// ─────────────────────────────────────────────────────────────────

func loadSettings(tx *gorm.DB) (domain.Settings, error) {
	var row settingsRow
	err := tx.Where("id = ?", settingsRowID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return domain.Settings{
		HighlightColor: row.HighlightColor,
		ScrollBehavior: row.ScrollBehavior,
		ColorScheme:    row.ColorScheme,
		Language:       row.Language,
	}, nil
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	return loadSettings(s.db.WithContext(ctx))
}

func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	var next domain.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadSettings(tx)
		if err != nil {
			return err
		}
		if next, err = store.MergeSettings(current, patch); err != nil {
			return err
		}
		row := settingsRow{
			ID:             settingsRowID,
			HighlightColor: next.HighlightColor,
			ScrollBehavior: next.ScrollBehavior,
			ColorScheme:    next.ColorScheme,
			Language:       next.Language,
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return next, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
