package transfer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

type counterIDs struct{ n int }

func (c *counterIDs) NewID() (string, error) {
	c.n++
	return fmt.Sprintf("id-%d", c.n), nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sampleTree() []tree.Node {
	folder := domain.Bookmark{ID: "f", SessionID: "s", DisplayName: "Ideas", CreatedAt: fixedNow}
	fox := domain.Bookmark{
		ID: "b1", SessionID: "s", DisplayName: "fox", Parent: domain.ChildOf("f"), CreatedAt: fixedNow,
		Provider: domain.ProviderChatGPT,
		Anchor: &domain.Anchor{
			ContainerKey: "m1", Text: "quick brown fox",
			ContextBefore: "The ", ContextAfter: " jumps",
			DOMOffsets: &domain.Offsets{Start: 4, End: 19},
		},
	}
	loose := domain.Bookmark{
		ID: "b2", SessionID: "s", DisplayName: "dog", Order: 1, CreatedAt: fixedNow, Note: "remember",
		Anchor: &domain.Anchor{ContainerKey: "m2", Text: "lazy dog"},
	}
	return tree.New([]domain.Bookmark{folder, fox, loose}).Nodes()
}

func TestExportShape(t *testing.T) {
	meta := domain.SessionMeta{SessionID: "s", Title: "Trip", Provider: domain.ProviderChatGPT, UpdatedAt: fixedNow}
	doc := Export(meta, sampleTree())

	if doc.Version != FormatVersion || doc.Session.ID != "s" || doc.Session.Title != "Trip" {
		t.Fatalf("unexpected header %+v", doc)
	}
	if len(doc.Bookmarks) != 2 {
		t.Fatalf("expected 2 root entries, got %d", len(doc.Bookmarks))
	}
	folder := doc.Bookmarks[0]
	if folder.Name != "Ideas" || folder.Anchor != nil || len(folder.Children) != 1 {
		t.Fatalf("unexpected folder entry %+v", folder)
	}
	fox := folder.Children[0]
	if fox.Anchor == nil || fox.Anchor.Text != "quick brown fox" || len(fox.Anchor.Offsets) != 2 {
		t.Fatalf("unexpected anchor entry %+v", fox.Anchor)
	}
	if doc.Bookmarks[1].Note != "remember" {
		t.Fatalf("note lost: %+v", doc.Bookmarks[1])
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	doc := Export(domain.SessionMeta{SessionID: "s", Title: "Trip"}, sampleTree())

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "quick brown fox") {
		t.Fatalf("yaml missing anchor text:\n%s", buf.String())
	}

	parsed, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	records, err := NewMapper(&counterIDs{}, clock).MapEntries("other", parsed)
	if err != nil {
		t.Fatalf("MapEntries() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	imported := tree.New(records)
	roots := imported.Roots()
	if len(roots) != 2 || roots[0].DisplayName != "Ideas" || roots[1].DisplayName != "dog" {
		t.Fatalf("unexpected roots %+v", roots)
	}
	children := imported.Children(roots[0].ID)
	if len(children) != 1 || children[0].Anchor.ContextAfter != " jumps" {
		t.Fatalf("unexpected children %+v", children)
	}
	if children[0].Anchor.DOMOffsets == nil || children[0].Anchor.DOMOffsets.End != 19 {
		t.Fatalf("offsets lost: %+v", children[0].Anchor)
	}
	if children[0].Provider != domain.ProviderChatGPT {
		t.Fatalf("provider lost: %q", children[0].Provider)
	}
	for _, r := range records {
		if r.SessionID != "other" {
			t.Fatalf("record %s kept session %q", r.ID, r.SessionID)
		}
	}
}

func TestMapEntriesNumbersGroupsFromZero(t *testing.T) {
	doc := Document{Bookmarks: []Entry{
		{Name: "a", Anchor: &AnchorEntry{Container: "m", Text: "a"}},
		{Name: "b", Anchor: &AnchorEntry{Container: "m", Text: "b"}},
		{Name: "c", Children: []Entry{
			{Name: "d", Anchor: &AnchorEntry{Container: "m", Text: "d"}},
		}},
	}}

	records, err := NewMapper(&counterIDs{}, clock).MapEntries("s", doc)
	if err != nil {
		t.Fatalf("MapEntries() error = %v", err)
	}
	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 0}
	for _, r := range records {
		if r.Order != want[r.DisplayName] {
			t.Errorf("%s order = %d, want %d", r.DisplayName, r.Order, want[r.DisplayName])
		}
		if !r.CreatedAt.Equal(fixedNow) {
			t.Errorf("%s created = %v, want clock time", r.DisplayName, r.CreatedAt)
		}
	}
}

func TestMapEntriesRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"empty", Document{}},
		{"unnamed folder", Document{Bookmarks: []Entry{{Name: " "}}}},
		{"blank anchor text", Document{Bookmarks: []Entry{{Name: "x", Anchor: &AnchorEntry{Container: "m"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMapper(&counterIDs{}, clock).MapEntries("s", tt.doc); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "export.yaml")

	yamlContent := `---
version: 1
session:
  id: abc
  title: Trip planning
bookmarks:
  - name: quick brown fox
    anchor:
      container: m1
      text: quick brown fox
      offsets: [4, 19]
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	doc, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Session.Title != "Trip planning" || len(doc.Bookmarks) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if got := doc.Bookmarks[0].Anchor.Offsets; len(got) != 2 || got[1] != 19 {
		t.Fatalf("offsets = %v", got)
	}
}

func TestLoaderLoadErrors(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, err := Parse([]byte("version: 2\n")); err == nil {
		t.Fatal("expected an error for an unsupported version")
	}
	if _, err := Parse([]byte("bookmarks: [")); err == nil {
		t.Fatal("expected an error for invalid yaml")
	}
}
