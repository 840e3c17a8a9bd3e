package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/reorder"
	"github.com/MrSnakeDoc/chatmark/internal/search"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

// List returns the records of a session in sibling order.
func (s *Service) List(ctx context.Context, sessionID string) ([]domain.Bookmark, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, newError(opList, "missing_session_id", err)
	}
	records, err := s.repo.GetAll(ctx, sessionID)
	if err != nil {
		s.logError(opList, "query_failed", err, logger.String("session_id", sessionID))
		return nil, newError(opList, "query_failed", err)
	}
	return sorted(records), nil
}

// Tree returns the nested view of a session.
func (s *Service) Tree(ctx context.Context, sessionID string) ([]tree.Node, error) {
	records, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return tree.New(records).Nodes(), nil
}

// Orphans lists records whose parent no longer exists. They are reported,
// never repaired behind the user's back.
func (s *Service) Orphans(ctx context.Context, sessionID string) ([]domain.Bookmark, error) {
	records, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sorted(tree.New(records).Orphans()), nil
}

// Search ranks the records of a session against a free-text query.
func (s *Service) Search(ctx context.Context, sessionID, query string) ([]search.Candidate, error) {
	q := search.ParseQuery(query)
	if q.IsEmpty() {
		return nil, newError(opSearch, "empty_query", invalid("query is empty"))
	}
	records, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return search.Rank(q, tree.New(records)), nil
}

// AddParams describes a text bookmark to create from a captured anchor.
type AddParams struct {
	SessionID   string
	Anchor      domain.Anchor
	DisplayName string
	Note        string
	Provider    domain.Provider
	Parent      domain.Parent
	// SessionTitle updates the session meta when set.
	SessionTitle string
}

// AddBookmark appends a text bookmark to its parent group.
func (s *Service) AddBookmark(ctx context.Context, p AddParams) (domain.Bookmark, error) {
	if err := requireSession(p.SessionID); err != nil {
		return domain.Bookmark{}, newError(opAdd, "missing_session_id", err)
	}
	if err := p.Anchor.Validate(); err != nil {
		return domain.Bookmark{}, newError(opAdd, "invalid_anchor", err)
	}

	var created domain.Bookmark
	err := s.withSession(p.SessionID, func() error {
		t, err := s.snapshot(ctx, p.SessionID)
		if err != nil {
			return newError(opAdd, "query_failed", err)
		}
		if err := checkParent(t, p.Parent); err != nil {
			return newError(opAdd, "unknown_parent", err)
		}

		created, err = domain.NewTextBookmark(s.ids, s.clock().UTC(), domain.NewTextBookmarkParams{
			SessionID:   p.SessionID,
			DisplayName: p.DisplayName,
			Note:        p.Note,
			Anchor:      p.Anchor,
			Provider:    p.Provider,
			Parent:      p.Parent,
			Order:       t.NextOrder(p.Parent),
		})
		if err != nil {
			return newError(opAdd, "invalid_record", err)
		}
		if err := s.repo.Add(ctx, created); err != nil {
			s.resync(ctx, opAdd, p.SessionID, err)
			return newError(opAdd, "save_failed", err)
		}
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.touch(ctx, p.SessionID, p.Provider, p.SessionTitle)
	s.publish(p.SessionID, events.KindAdded, created.ID)
	return created, nil
}

// FolderParams describes a folder to create.
type FolderParams struct {
	SessionID   string
	DisplayName string
	Parent      domain.Parent
}

// CreateFolder appends an empty container to its parent group.
func (s *Service) CreateFolder(ctx context.Context, p FolderParams) (domain.Bookmark, error) {
	if err := requireSession(p.SessionID); err != nil {
		return domain.Bookmark{}, newError(opCreateFolder, "missing_session_id", err)
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return domain.Bookmark{}, newError(opCreateFolder, "missing_name", invalid("folder name is required"))
	}

	var created domain.Bookmark
	err := s.withSession(p.SessionID, func() error {
		t, err := s.snapshot(ctx, p.SessionID)
		if err != nil {
			return newError(opCreateFolder, "query_failed", err)
		}
		if err := checkParent(t, p.Parent); err != nil {
			return newError(opCreateFolder, "unknown_parent", err)
		}

		created, err = domain.NewFolder(s.ids, s.clock().UTC(), domain.NewFolderParams{
			SessionID:   p.SessionID,
			DisplayName: p.DisplayName,
			Parent:      p.Parent,
			Order:       t.NextOrder(p.Parent),
		})
		if err != nil {
			return newError(opCreateFolder, "invalid_record", err)
		}
		if err := s.repo.Add(ctx, created); err != nil {
			s.resync(ctx, opCreateFolder, p.SessionID, err)
			return newError(opCreateFolder, "save_failed", err)
		}
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.touch(ctx, p.SessionID, "", "")
	s.publish(p.SessionID, events.KindAdded, created.ID)
	return created, nil
}

// Update edits the label or note of one record. Hierarchy changes go
// through Move so that sibling orders stay contiguous.
func (s *Service) Update(ctx context.Context, sessionID string, u domain.Update) (domain.Bookmark, error) {
	if err := requireSession(sessionID); err != nil {
		return domain.Bookmark{}, newError(opUpdate, "missing_session_id", err)
	}
	if u.Patch.Parent != nil || u.Patch.Order != nil {
		return domain.Bookmark{}, newError(opUpdate, "hierarchy_change", invalid("use move to change parent or order"))
	}
	if u.Patch.IsEmpty() {
		return domain.Bookmark{}, newError(opUpdate, "empty_patch", invalid("nothing to update"))
	}
	if u.Patch.DisplayName != nil {
		name := strings.TrimSpace(*u.Patch.DisplayName)
		if name == "" {
			return domain.Bookmark{}, newError(opUpdate, "missing_name", invalid("display name cannot be blank"))
		}
		u.Patch.DisplayName = &name
	}

	var updated domain.Bookmark
	err := s.withSession(sessionID, func() error {
		var err error
		updated, err = s.repo.Update(ctx, sessionID, u)
		if err != nil {
			return newError(opUpdate, "save_failed", err)
		}
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.publish(sessionID, events.KindUpdated, updated.ID)
	return updated, nil
}

// UpdateMany applies a caller-computed batch atomically. The result must be
// acyclic and free of dangling parents; sibling groups the batch leaves
// with gaps are renumbered in the same write.
func (s *Service) UpdateMany(ctx context.Context, sessionID string, updates []domain.Update) ([]domain.Bookmark, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, newError(opUpdateMany, "missing_session_id", err)
	}
	if len(updates) == 0 {
		return s.List(ctx, sessionID)
	}

	var result []domain.Bookmark
	err := s.withSession(sessionID, func() error {
		t, err := s.snapshot(ctx, sessionID)
		if err != nil {
			return newError(opUpdateMany, "query_failed", err)
		}
		projected, err := domain.ApplyUpdates(t.Records(), updates)
		if err != nil {
			return newError(opUpdateMany, "rejected", err)
		}
		if err := checkHierarchy(projected, updates); err != nil {
			return newError(opUpdateMany, "rejected", err)
		}

		batch := append(append([]domain.Update(nil), updates...), reorder.Normalize(tree.New(projected))...)
		if err := s.repo.UpdateMany(ctx, sessionID, batch); err != nil {
			s.resync(ctx, opUpdateMany, sessionID, err)
			return newError(opUpdateMany, "save_failed", err)
		}
		result, err = domain.ApplyUpdates(t.Records(), batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(sessionID, events.KindUpdated, updateIDs(updates)...)
	return sorted(result), nil
}

// MoveResult is the applied batch and the refetched tree.
type MoveResult struct {
	Batch reorder.Batch `json:"batch"`
	Nodes []tree.Node   `json:"tree"`
}

// Move plans a drag-and-drop gesture against the current snapshot and
// persists the resulting batch atomically.
func (s *Service) Move(ctx context.Context, sessionID string, g reorder.Gesture) (MoveResult, error) {
	if err := requireSession(sessionID); err != nil {
		return MoveResult{}, newError(opMove, "missing_session_id", err)
	}
	if g.Target != "" {
		if _, err := reorder.ParsePosition(string(g.Position)); err != nil {
			return MoveResult{}, newError(opMove, "invalid_position", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		}
	}

	var result MoveResult
	err := s.withSession(sessionID, func() error {
		t, err := s.snapshot(ctx, sessionID)
		if err != nil {
			return newError(opMove, "query_failed", err)
		}
		batch, err := reorder.Plan(g, t)
		if err != nil {
			return newError(opMove, "rejected", err)
		}
		if err := s.repo.UpdateMany(ctx, sessionID, batch.Updates); err != nil {
			s.resync(ctx, opMove, sessionID, err)
			return newError(opMove, "save_failed", err)
		}

		fresh, err := s.snapshot(ctx, sessionID)
		if err != nil {
			return newError(opMove, "refetch_failed", err)
		}
		result = MoveResult{Batch: batch, Nodes: fresh.Nodes()}
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}

	s.publish(sessionID, events.KindMoved, updateIDs(result.Batch.Updates)...)
	return result, nil
}

// Delete removes a record and all its descendants, then closes the gap it
// left in its sibling group. It returns the removed ids.
func (s *Service) Delete(ctx context.Context, sessionID, id string) ([]string, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, newError(opDelete, "missing_session_id", err)
	}

	var removed []string
	err := s.withSession(sessionID, func() error {
		var err error
		removed, err = s.repo.DeleteCascade(ctx, sessionID, id)
		if err != nil {
			return newError(opDelete, "delete_failed", err)
		}

		t, err := s.snapshot(ctx, sessionID)
		if err != nil {
			return newError(opDelete, "refetch_failed", err)
		}
		if fix := reorder.Normalize(t); len(fix) > 0 {
			if err := s.repo.UpdateMany(ctx, sessionID, fix); err != nil {
				s.resync(ctx, opDelete, sessionID, err)
				return newError(opDelete, "renumber_failed", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("bookmarks deleted",
		logger.String("session_id", sessionID),
		logger.Int("count", len(removed)))
	s.publish(sessionID, events.KindDeleted, removed...)
	return removed, nil
}

// Normalize renumbers every sibling group of a session and returns the
// number of records whose order changed.
func (s *Service) Normalize(ctx context.Context, sessionID string) (int, error) {
	if err := requireSession(sessionID); err != nil {
		return 0, newError(opNormalize, "missing_session_id", err)
	}

	var fix []domain.Update
	err := s.withSession(sessionID, func() error {
		t, err := s.snapshot(ctx, sessionID)
		if err != nil {
			return newError(opNormalize, "query_failed", err)
		}
		fix = reorder.Normalize(t)
		if len(fix) == 0 {
			return nil
		}
		if err := s.repo.UpdateMany(ctx, sessionID, fix); err != nil {
			s.resync(ctx, opNormalize, sessionID, err)
			return newError(opNormalize, "save_failed", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(fix) > 0 {
		s.publish(sessionID, events.KindMoved, updateIDs(fix)...)
	}
	return len(fix), nil
}

// DeleteSession removes every record of a session and its meta.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return newError(opDeleteSession, "missing_session_id", err)
	}
	err := s.withSession(sessionID, func() error {
		if err := s.repo.DeleteAllInSession(ctx, sessionID); err != nil {
			return newError(opDeleteSession, "delete_failed", err)
		}
		if err := s.sessions.DeleteMeta(ctx, sessionID); err != nil {
			return newError(opDeleteSession, "meta_delete_failed", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(sessionID, events.KindRefresh)
	return nil
}

// DeleteAll removes every record and session meta. It waits for in-flight
// session writes and blocks new ones until it is done.
func (s *Service) DeleteAll(ctx context.Context) error {
	s.global.Lock()
	defer s.global.Unlock()

	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		return newError(opDeleteAll, "query_failed", err)
	}
	metas, err := s.sessions.ListMetas(ctx)
	if err != nil {
		return newError(opDeleteAll, "query_failed", err)
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return newError(opDeleteAll, "delete_failed", err)
	}
	notify := map[string]struct{}{}
	for _, id := range sessions {
		notify[id] = struct{}{}
	}
	for _, m := range metas {
		if err := s.sessions.DeleteMeta(ctx, m.SessionID); err != nil {
			return newError(opDeleteAll, "meta_delete_failed", err)
		}
		notify[m.SessionID] = struct{}{}
	}

	s.log.Info("all bookmarks deleted", logger.Int("sessions", len(notify)))
	for id := range notify {
		s.publish(id, events.KindRefresh)
	}
	return nil
}

// checkParent accepts Root or an existing record of the snapshot.
func checkParent(t *tree.Tree, parent domain.Parent) error {
	id, ok := parent.ID()
	if !ok || t.Has(id) {
		return nil
	}
	return fmt.Errorf("%w: parent %s", domain.ErrUnknownRecord, id)
}

// checkHierarchy rejects projected snapshots where a reparented record has
// a missing parent or ends up inside its own subtree.
func checkHierarchy(projected []domain.Bookmark, updates []domain.Update) error {
	after := tree.New(projected)
	for _, u := range updates {
		if u.Patch.Parent == nil {
			continue
		}
		if err := checkParent(after, *u.Patch.Parent); err != nil {
			return err
		}
		if after.WouldCycle(u.ID, *u.Patch.Parent) {
			return fmt.Errorf("%w: %s under %s", domain.ErrWouldCreateCycle, u.ID, *u.Patch.Parent)
		}
	}
	return nil
}
