package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestBookmarkDecodeParentVariants(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		wantRoot bool
		wantID   string
	}{
		{name: "missing", json: `{"id":"a","sessionId":"s"}`, wantRoot: true},
		{name: "null", json: `{"id":"a","sessionId":"s","parentId":null}`, wantRoot: true},
		{name: "empty", json: `{"id":"a","sessionId":"s","parentId":""}`, wantRoot: true},
		{name: "child", json: `{"id":"a","sessionId":"s","parentId":"f1"}`, wantID: "f1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bookmark
			if err := json.Unmarshal([]byte(tt.json), &b); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if b.Parent.IsRoot() != tt.wantRoot {
				t.Errorf("IsRoot() = %v, want %v", b.Parent.IsRoot(), tt.wantRoot)
			}
			if id, _ := b.Parent.ID(); id != tt.wantID {
				t.Errorf("parent id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestBookmarkDecodeCreatedAt(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "rfc3339", raw: `"2025-03-01T12:00:00Z"`},
		{name: "epoch millis", raw: `1740830400000`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bookmark
			if err := json.Unmarshal([]byte(`{"id":"a","sessionId":"s","createdAt":`+tt.raw+`}`), &b); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !b.CreatedAt.Equal(want) {
				t.Errorf("CreatedAt = %v, want %v", b.CreatedAt, want)
			}
		})
	}
}

func TestBookmarkEncodeInlinesAnchor(t *testing.T) {
	b := Bookmark{
		ID:          "b1",
		SessionID:   "s1",
		DisplayName: "fox",
		Anchor: &Anchor{
			ContainerKey:  "m1",
			Text:          "brown fox",
			ContextBefore: "The quick ",
			DOMOffsets:    &Offsets{Start: 10, End: 19},
		},
		Parent:    ChildOf("f1"),
		Order:     2,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, fragment := range []string{
		`"text":"brown fox"`,
		`"containerKey":"m1"`,
		`"contextAfter":""`,
		`"domOffsets":{"start":10,"end":19}`,
		`"parentId":"f1"`,
		`"createdAt":"2025-03-01T12:00:00Z"`,
	} {
		if !strings.Contains(string(data), fragment) {
			t.Errorf("encoded %s is missing %s", data, fragment)
		}
	}

	var back Bookmark
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Anchor == nil || *back.Anchor.DOMOffsets != *b.Anchor.DOMOffsets || back.Anchor.Text != b.Anchor.Text {
		t.Errorf("anchor did not survive encoding: %+v", back.Anchor)
	}
}

func TestFolderEncodesWithoutAnchor(t *testing.T) {
	data, err := json.Marshal(Bookmark{ID: "f", SessionID: "s", DisplayName: "Folder"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), `"text"`) {
		t.Errorf("folder encoded anchor fields: %s", data)
	}
	if !strings.Contains(string(data), `"parentId":null`) {
		t.Errorf("root parent not encoded as null: %s", data)
	}

	var back Bookmark
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.IsFolder() {
		t.Error("decoded folder has an anchor")
	}
}
