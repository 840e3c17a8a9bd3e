package anchor

import (
	"errors"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, content string) *html.Node {
	t.Helper()
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func TestLocate(t *testing.T) {
	doc := mustParse(t, `<div><p>Hello <b>brave</b> new</p><p> world</p></div>`)
	// Flattened: "Hello brave new world"

	tests := []struct {
		name       string
		start, end int
		wantText   string
		wantStart  string
		wantOffset int
	}{
		{name: "inside one node", start: 0, end: 5, wantText: "Hello", wantStart: "Hello ", wantOffset: 0},
		{name: "whole bold node", start: 6, end: 11, wantText: "brave", wantStart: "brave", wantOffset: 0},
		{name: "spans nodes", start: 3, end: 14, wantText: "lo brave ne", wantStart: "Hello ", wantOffset: 3},
		{name: "spans paragraphs", start: 12, end: 21, wantText: "new world", wantStart: " new", wantOffset: 1},
		{name: "end at node boundary", start: 0, end: 6, wantText: "Hello ", wantStart: "Hello "},
		{name: "collapsed at end", start: 21, end: 21, wantText: "", wantStart: " world", wantOffset: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Locate(doc, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Locate(%d, %d) failed: %v", tt.start, tt.end, err)
			}
			if got := r.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if r.Start.Node.Data != tt.wantStart {
				t.Errorf("start node = %q, want %q", r.Start.Node.Data, tt.wantStart)
			}
			if r.Start.Offset != tt.wantOffset {
				t.Errorf("start offset = %d, want %d", r.Start.Offset, tt.wantOffset)
			}
		})
	}
}

func TestLocateRejects(t *testing.T) {
	doc := mustParse(t, `<div>visible<script>var x = 1;</script></div>`)

	tests := []struct {
		name       string
		start, end int
	}{
		{name: "beyond text", start: 0, end: 100},
		{name: "inverted", start: 5, end: 2},
		{name: "negative", start: -1, end: 2},
		{name: "inside script", start: 8, end: 12},
		{name: "ends in script", start: 2, end: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Locate(doc, tt.start, tt.end)
			if !errors.Is(err, ErrRangeNotFound) {
				t.Errorf("Locate(%d, %d) error = %v, want ErrRangeNotFound", tt.start, tt.end, err)
			}
		})
	}
}

func TestLocateEmptyDocument(t *testing.T) {
	doc := mustParse(t, `<div></div>`)
	if _, err := Locate(doc, 0, 0); !errors.Is(err, ErrRangeNotFound) {
		t.Errorf("expected ErrRangeNotFound, got %v", err)
	}
}

func TestPathRoundTrip(t *testing.T) {
	doc := mustParse(t, `<html><head></head><body><div><p>Hello</p></div></body></html>`)

	r, err := Locate(doc, 1, 4)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	path, err := r.Start.Path(doc)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	want := NodePath{0, 1, 0, 0, 0}
	if len(path) != len(want) {
		t.Fatalf("Path length mismatch. Got %v, want %v", path, want)
	}
	for i := range path {
		if path[i] != want[i] {
			t.Errorf("Path mismatch at index %d. Got %d, want %d", i, path[i], want[i])
		}
	}

	node, err := NodeAt(doc, path)
	if err != nil {
		t.Fatalf("NodeAt failed: %v", err)
	}
	if node != r.Start.Node {
		t.Errorf("NodeAt returned %q, want the located text node", node.Data)
	}

	if _, err := NodeAt(doc, NodePath{0, 9}); err == nil {
		t.Error("expected error for out of range path")
	}
}
