package search

import (
	"testing"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedHasPath bool
		expectedFolder  []string
		expectedName    []string
		expectedAll     []string
	}{
		{
			name:         "simple query without slash",
			input:        "fox",
			expectedName: []string{"fox"},
			expectedAll:  []string{"fox"},
		},
		{
			name:         "multiple fragments",
			input:        "Brown  fox",
			expectedName: []string{"brown", "fox"},
			expectedAll:  []string{"brown", "fox"},
		},
		{
			name:            "folder scoped",
			input:           "ideas/fox",
			expectedHasPath: true,
			expectedFolder:  []string{"ideas"},
			expectedName:    []string{"fox"},
			expectedAll:     []string{"ideas", "fox"},
		},
		{
			name:            "nested folders with spaces",
			input:           "work notes/api/key",
			expectedHasPath: true,
			expectedFolder:  []string{"work", "notes", "api"},
			expectedName:    []string{"key"},
			expectedAll:     []string{"work", "notes", "api", "key"},
		},
		{
			name:  "empty query",
			input: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := ParseQuery(tt.input)

			if query.HasPath != tt.expectedHasPath {
				t.Errorf("HasPath = %v, want %v", query.HasPath, tt.expectedHasPath)
			}
			if !slicesEqual(query.FolderFragments, tt.expectedFolder) {
				t.Errorf("FolderFragments = %v, want %v", query.FolderFragments, tt.expectedFolder)
			}
			if !slicesEqual(query.NameFragments, tt.expectedName) {
				t.Errorf("NameFragments = %v, want %v", query.NameFragments, tt.expectedName)
			}
			if !slicesEqual(query.Fragments, tt.expectedAll) {
				t.Errorf("Fragments = %v, want %v", query.Fragments, tt.expectedAll)
			}
		})
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		displayName    string
		note           string
		path           []string
		expectPositive bool
	}{
		{name: "exact match", query: "brown fox", displayName: "Brown fox", expectPositive: true},
		{name: "prefix match", query: "bro", displayName: "Brown fox", expectPositive: true},
		{name: "substring match", query: "own", displayName: "Brown fox", expectPositive: true},
		{name: "no match", query: "xyz", displayName: "Brown fox", expectPositive: false},
		{name: "all fragments required", query: "fox xyz", displayName: "Brown fox", expectPositive: false},
		{name: "note match", query: "revisit", displayName: "Brown fox", note: "revisit later", expectPositive: true},
		{name: "folder scoped", query: "ideas/fox", displayName: "Brown fox", path: []string{"Ideas"}, expectPositive: true},
		{name: "folder mismatch", query: "work/fox", displayName: "Brown fox", path: []string{"Ideas"}, expectPositive: false},
		{name: "folder scope at root", query: "ideas/fox", displayName: "Brown fox", expectPositive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := domain.Bookmark{ID: "b", SessionID: "s", DisplayName: tt.displayName, Note: tt.note}

			score := Score(ParseQuery(tt.query), b, tt.path)

			if tt.expectPositive && score <= 0 {
				t.Errorf("Expected positive score, got %f", score)
			}
			if !tt.expectPositive && score > 0 {
				t.Errorf("Expected zero score, got %f", score)
			}
		})
	}
}

func TestRank(t *testing.T) {
	records := []domain.Bookmark{
		{ID: "f", SessionID: "s", DisplayName: "Ideas", Order: 0},
		{ID: "a", SessionID: "s", DisplayName: "A fox story", Parent: domain.ChildOf("f"), Order: 0},
		{ID: "b", SessionID: "s", DisplayName: "fox", Order: 1},
		{ID: "c", SessionID: "s", DisplayName: "Unrelated", Order: 2,
			Anchor: &domain.Anchor{ContainerKey: "m", Text: "the fox jumps"}},
		{ID: "d", SessionID: "s", DisplayName: "Cats", Order: 3},
	}

	candidates := Rank(ParseQuery("fox"), tree.New(records))

	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}
	if candidates[0].Bookmark.ID != "b" {
		t.Errorf("Expected exact name match first, got %s", candidates[0].Bookmark.ID)
	}
	if candidates[2].Bookmark.ID != "c" {
		t.Errorf("Expected anchored-text match last, got %s", candidates[2].Bookmark.ID)
	}
	for _, c := range candidates {
		if c.Bookmark.ID == "a" && !slicesEqual(c.Path, []string{"Ideas"}) {
			t.Errorf("Path = %v, want [Ideas]", c.Path)
		}
	}
}
