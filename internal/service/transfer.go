package service

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/store"
	"github.com/MrSnakeDoc/chatmark/internal/transfer"
)

// Export returns the session tree as a transfer document.
func (s *Service) Export(ctx context.Context, sessionID string) (transfer.Document, error) {
	nodes, err := s.Tree(ctx, sessionID)
	if err != nil {
		return transfer.Document{}, err
	}
	meta, err := s.sessions.GetMeta(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return transfer.Document{}, newError(opGetMeta, "query_failed", err)
	}
	meta.SessionID = sessionID
	return transfer.Export(meta, nodes), nil
}

// Import appends the entries of doc after the existing roots of sessionID
// and returns the created records.
func (s *Service) Import(ctx context.Context, sessionID string, doc transfer.Document) ([]domain.Bookmark, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, newError(opImport, "missing_session_id", err)
	}
	records, err := transfer.NewMapper(s.ids, s.clock).MapEntries(sessionID, doc)
	if err != nil {
		return nil, newError(opImport, "invalid_document", errors.Join(ErrInvalidRequest, err))
	}

	err = s.withSession(sessionID, func() error {
		t, err := s.snapshot(ctx, sessionID)
		if err != nil {
			return newError(opImport, "query_failed", err)
		}
		offset := t.NextOrder(domain.Root())
		for i := range records {
			if records[i].Parent.IsRoot() {
				records[i].Order += offset
			}
			if err := s.repo.Add(ctx, records[i]); err != nil {
				s.resync(ctx, opImport, sessionID, err)
				return newError(opImport, "save_failed", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	provider, _ := domain.ParseProvider(doc.Session.Provider)
	s.touch(ctx, sessionID, provider, doc.Session.Title)
	s.log.Info("bookmarks imported",
		logger.String("session_id", sessionID),
		logger.Int("count", len(records)))
	s.publish(sessionID, events.KindAdded, idsOf(records)...)
	return records, nil
}
