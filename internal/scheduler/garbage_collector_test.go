package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/service"
	"github.com/MrSnakeDoc/chatmark/internal/store/memory"
)

func TestGarbageCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	st := memory.New()
	ctx := context.Background()

	now := time.Now()
	metas := []domain.SessionMeta{
		{SessionID: "active", Title: "active", UpdatedAt: now},
		{SessionID: "recently-emptied", Title: "recent", UpdatedAt: now.Add(-10 * 24 * time.Hour)}, // 10 days ago
		{SessionID: "old-empty", Title: "old", UpdatedAt: now.Add(-35 * 24 * time.Hour)},          // 35 days ago
		{SessionID: "old-with-records", Title: "kept", UpdatedAt: now.Add(-90 * 24 * time.Hour)},
	}
	for _, m := range metas {
		if err := st.SaveMeta(ctx, m); err != nil {
			t.Fatalf("SaveMeta failed: %v", err)
		}
	}
	if err := st.Add(ctx, domain.Bookmark{ID: "b1", SessionID: "old-with-records", DisplayName: "b1", Anchor: anchorOf("b1")}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	svc, err := service.New(service.Config{
		Repository: st,
		Sessions:   st,
		Settings:   st,
		IDProvider: domain.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}

	// Create GC with 30 day threshold
	gc := NewGarbageCollector(svc, log, 24*time.Hour, 30*24*time.Hour)

	deleted, err := gc.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 session collected, got %d", deleted)
	}

	if _, err := st.GetMeta(ctx, "old-empty"); err == nil {
		t.Error("Stale empty session was not removed")
	}
	for _, id := range []string{"active", "recently-emptied", "old-with-records"} {
		if _, err := st.GetMeta(ctx, id); err != nil {
			t.Errorf("Session %s was incorrectly removed: %v", id, err)
		}
	}
}

func TestGarbageCollector_DefaultThreshold(t *testing.T) {
	gc := NewGarbageCollector(nil, logger.New("error", false), time.Hour, 0)
	if gc.threshold != DefaultGCThreshold {
		t.Errorf("Expected default threshold %v, got %v", DefaultGCThreshold, gc.threshold)
	}
}

type failingCollectee struct{}

func (failingCollectee) Sessions(context.Context, domain.Provider) ([]domain.SessionMeta, error) {
	return []domain.SessionMeta{
		{SessionID: "a", UpdatedAt: time.Now().Add(-100 * 24 * time.Hour)},
		{SessionID: "b", UpdatedAt: time.Now().Add(-100 * 24 * time.Hour)},
	}, nil
}

func (failingCollectee) PruneSession(_ context.Context, id string, _ time.Time) (bool, error) {
	if id == "a" {
		return false, errors.New("backend down")
	}
	return true, nil
}

func TestGarbageCollector_SkipsFailingSessions(t *testing.T) {
	gc := NewGarbageCollector(failingCollectee{}, logger.New("error", false), time.Hour, 0)
	deleted, err := gc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 session collected, got %d", deleted)
	}
}
