package store

import (
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

// Append validates b and returns records with b added.
func Append(records []domain.Bookmark, b domain.Bookmark) ([]domain.Bookmark, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == b.ID {
			return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidRecord, b.ID)
		}
	}
	out := make([]domain.Bookmark, 0, len(records)+1)
	out = append(out, records...)
	return append(out, b), nil
}

// Find returns the record with id.
func Find(records []domain.Bookmark, id string) (domain.Bookmark, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Bookmark{}, false
}

// Remove returns records without the given ids. It fails when any id is
// unknown.
func Remove(records []domain.Bookmark, ids ...string) ([]domain.Bookmark, error) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]domain.Bookmark, 0, len(records))
	for _, r := range records {
		if _, ok := drop[r.ID]; ok {
			delete(drop, r.ID)
			continue
		}
		out = append(out, r)
	}
	for id := range drop {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRecord, id)
	}
	return out, nil
}

// Cascade returns records without id and its descendants, and the
// removed ids.
func Cascade(records []domain.Bookmark, id string) ([]domain.Bookmark, []string, error) {
	t := tree.New(records)
	if !t.Has(id) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownRecord, id)
	}
	removed := t.Subtree(id)
	kept, err := Remove(records, removed...)
	if err != nil {
		return nil, nil, err
	}
	return kept, removed, nil
}

// UpdateOne applies a single update and returns the new snapshot and the
// updated record.
func UpdateOne(records []domain.Bookmark, u domain.Update) ([]domain.Bookmark, domain.Bookmark, error) {
	out, err := domain.ApplyUpdates(records, []domain.Update{u})
	if err != nil {
		return nil, domain.Bookmark{}, err
	}
	updated, _ := Find(out, u.ID)
	return out, updated, nil
}

// SortMetas orders metas newest first.
func SortMetas(metas []domain.SessionMeta) {
	sort.SliceStable(metas, func(i, j int) bool {
		if !metas[i].UpdatedAt.Equal(metas[j].UpdatedAt) {
			return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
		}
		return metas[i].SessionID < metas[j].SessionID
	})
}

// MergeSettings applies patch over current and validates the result.
func MergeSettings(current domain.Settings, patch domain.SettingsPatch) (domain.Settings, error) {
	next := current.Merge(patch)
	if err := next.Validate(); err != nil {
		return current, err
	}
	return next, nil
}
