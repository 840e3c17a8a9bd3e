package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/chatmark/internal/anchor"
	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

// CaptureRequest selects text in a serialized document, either by
// flattened offsets or by the first occurrence of Needle.
type CaptureRequest struct {
	SessionID string
	HTML      string
	Provider  domain.Provider

	Start  *int
	End    *int
	Needle string

	// Save persists the anchor as a bookmark under Parent.
	Save         bool
	DisplayName  string
	Note         string
	Parent       domain.Parent
	SessionTitle string
}

type CaptureResult struct {
	Anchor   domain.Anchor    `json:"anchor"`
	Bookmark *domain.Bookmark `json:"bookmark,omitempty"`
}

// Capture builds an anchor from a selection and optionally saves it.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	doc, err := parseDocument(req.HTML)
	if err != nil {
		return CaptureResult{}, newError(opCapture, "invalid_html", err)
	}

	sel, err := selectRange(doc, req)
	if err != nil {
		return CaptureResult{}, newError(opCapture, "invalid_selection", err)
	}

	a, err := anchor.Capture(sel, anchor.FinderFor(req.Provider))
	if err != nil {
		return CaptureResult{}, newError(opCapture, "capture_failed", err)
	}
	result := CaptureResult{Anchor: a}
	if !req.Save {
		return result, nil
	}

	b, err := s.AddBookmark(ctx, AddParams{
		SessionID:    req.SessionID,
		Anchor:       a,
		DisplayName:  req.DisplayName,
		Note:         req.Note,
		Provider:     req.Provider,
		Parent:       req.Parent,
		SessionTitle: req.SessionTitle,
	})
	if err != nil {
		return CaptureResult{}, err
	}
	result.Bookmark = &b
	return result, nil
}

func selectRange(doc *html.Node, req CaptureRequest) (anchor.Selection, error) {
	var (
		sel anchor.Selection
		err error
	)
	switch {
	case req.Start != nil && req.End != nil:
		sel, err = anchor.SelectText(doc, *req.Start, *req.End)
	case req.Start != nil || req.End != nil:
		return anchor.Selection{}, invalid("start and end must be given together")
	case req.Needle != "":
		sel, err = anchor.SelectNeedle(doc, req.Needle)
	default:
		return anchor.Selection{}, domain.ErrEmptySelection
	}
	if errors.Is(err, anchor.ErrRangeNotFound) {
		return anchor.Selection{}, fmt.Errorf("%w: %v", domain.ErrTextNotFound, err)
	}
	return sel, err
}

// Navigation is where a bookmark currently lives in a document.
type Navigation struct {
	Bookmark     domain.Bookmark `json:"bookmark"`
	ContainerKey string          `json:"containerKey"`
	Start        int             `json:"start"`
	End          int             `json:"end"`
	Layer        anchor.Layer    `json:"layer"`
	// Degraded is set when only the container could be located; the
	// caller scrolls to it without a highlight.
	Degraded  bool            `json:"degraded"`
	StartPath anchor.NodePath `json:"startPath,omitempty"`
	StartAt   int             `json:"startOffset,omitempty"`
	EndPath   anchor.NodePath `json:"endPath,omitempty"`
	EndAt     int             `json:"endOffset,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// Resolve locates a stored bookmark in the submitted document. A miss is
// reported as domain.ErrNotFound and never removes the record.
func (s *Service) Resolve(ctx context.Context, sessionID, id, document string, provider domain.Provider) (Navigation, error) {
	records, err := s.List(ctx, sessionID)
	if err != nil {
		return Navigation{}, err
	}
	var b domain.Bookmark
	found := false
	for _, r := range records {
		if r.ID == id {
			b, found = r, true
			break
		}
	}
	if !found {
		return Navigation{}, newError(opResolve, "unknown_record", fmt.Errorf("%w: %s", domain.ErrUnknownRecord, id))
	}
	if b.IsFolder() {
		return Navigation{}, newError(opResolve, "folder", invalid("folder %s has no text target", id))
	}

	doc, err := parseDocument(document)
	if err != nil {
		return Navigation{}, newError(opResolve, "invalid_html", err)
	}
	if provider == "" {
		provider = b.Provider
	}

	res, err := anchor.Resolve(doc, *b.Anchor, anchor.FinderFor(provider))
	if err != nil {
		s.log.Debug("bookmark not resolved",
			logger.String("session_id", sessionID),
			logger.String("id", id),
			logger.Error(err))
		return Navigation{}, newError(opResolve, "not_found", err)
	}

	nav := Navigation{
		Bookmark:     b,
		ContainerKey: res.ContainerKey,
		Start:        res.Start,
		End:          res.End,
		Layer:        res.Layer,
		Degraded:     res.Degraded(),
	}
	if r := res.Range; r != nil {
		if nav.StartPath, err = r.Start.Path(doc); err != nil {
			return Navigation{}, newError(opResolve, "path_failed", err)
		}
		if nav.EndPath, err = r.End.Path(doc); err != nil {
			return Navigation{}, newError(opResolve, "path_failed", err)
		}
		nav.StartAt, nav.EndAt = r.Start.Offset, r.End.Offset
		nav.Text = r.Text()
	}
	return nav, nil
}

func parseDocument(content string) (*html.Node, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("document is empty")
	}
	doc, err := anchor.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return doc, nil
}
