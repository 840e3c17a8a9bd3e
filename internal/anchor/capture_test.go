package anchor

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

var chatgpt = FinderFor(domain.ProviderChatGPT)

func TestCaptureQuickBrownFox(t *testing.T) {
	doc := mustParse(t, `<div data-message-id="m1">The quick brown fox jumps</div>`)

	sel, err := SelectNeedle(doc, "brown fox")
	if err != nil {
		t.Fatalf("SelectNeedle failed: %v", err)
	}
	a, err := Capture(sel, chatgpt)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if a.Text != "brown fox" {
		t.Errorf("Text = %q, want %q", a.Text, "brown fox")
	}
	if a.ContextBefore != "The quick " {
		t.Errorf("ContextBefore = %q, want %q", a.ContextBefore, "The quick ")
	}
	if a.ContextAfter != " jumps" {
		t.Errorf("ContextAfter = %q, want %q", a.ContextAfter, " jumps")
	}
	if a.ContainerKey != "m1" {
		t.Errorf("ContainerKey = %q, want m1", a.ContainerKey)
	}
	if a.DOMOffsets != nil {
		t.Errorf("DOMOffsets = %+v, want nil", a.DOMOffsets)
	}
}

func TestCaptureTrimsSelection(t *testing.T) {
	doc := mustParse(t, `<div data-message-id="m1">The quick brown fox jumps</div>`)

	sel, err := SelectText(doc, 9, 20) // " brown fox "
	if err != nil {
		t.Fatalf("SelectText failed: %v", err)
	}
	a, err := Capture(sel, chatgpt)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if a.Text != "brown fox" || a.ContextBefore != "The quick " {
		t.Errorf("got text %q before %q", a.Text, a.ContextBefore)
	}
}

func TestCaptureContextWindowCountsRunes(t *testing.T) {
	before := strings.Repeat("가", 60)
	after := strings.Repeat("é", 60)
	doc := mustParse(t, `<div data-message-id="m1">`+before+`target`+after+`</div>`)

	sel, err := SelectNeedle(doc, "target")
	if err != nil {
		t.Fatalf("SelectNeedle failed: %v", err)
	}
	a, err := Capture(sel, chatgpt)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if n := utf8.RuneCountInString(a.ContextBefore); n != domain.ContextWindow {
		t.Errorf("ContextBefore has %d runes, want %d", n, domain.ContextWindow)
	}
	if n := utf8.RuneCountInString(a.ContextAfter); n != domain.ContextWindow {
		t.Errorf("ContextAfter has %d runes, want %d", n, domain.ContextWindow)
	}
	if a.ContextBefore != strings.Repeat("가", 50) {
		t.Errorf("ContextBefore is not the trailing window")
	}
}

func TestCaptureDOMOffsets(t *testing.T) {
	doc := mustParse(t, `<div data-message-id="m1"><span data-start="100">Hello world</span></div>`)

	sel, err := SelectNeedle(doc, "world")
	if err != nil {
		t.Fatalf("SelectNeedle failed: %v", err)
	}
	a, err := Capture(sel, chatgpt)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if a.DOMOffsets == nil {
		t.Fatal("expected DOMOffsets")
	}
	if a.DOMOffsets.Start != 106 || a.DOMOffsets.End != 111 {
		t.Errorf("DOMOffsets = %+v, want {106 111}", *a.DOMOffsets)
	}
}

func TestCaptureErrors(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		start, end int
		want       error
	}{
		{
			name:  "collapsed",
			html:  `<div data-message-id="m1">hello</div>`,
			start: 2, end: 2,
			want: domain.ErrEmptySelection,
		},
		{
			name:  "whitespace only",
			html:  `<div data-message-id="m1">a   b</div>`,
			start: 1, end: 4,
			want: domain.ErrEmptySelection,
		},
		{
			name:  "outside any message",
			html:  `<div>loose text</div>`,
			start: 0, end: 5,
			want: domain.ErrNoContainer,
		},
		{
			name:  "spans two messages",
			html:  `<div data-message-id="m1">first</div><div data-message-id="m2">second</div>`,
			start: 2, end: 8,
			want: domain.ErrTextNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.html)
			sel, err := SelectText(doc, tt.start, tt.end)
			if err != nil {
				t.Fatalf("SelectText failed: %v", err)
			}
			_, err = Capture(sel, chatgpt)
			if !errors.Is(err, tt.want) {
				t.Errorf("Capture error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, domain.ErrCapture) {
				t.Errorf("Capture error %v does not wrap ErrCapture", err)
			}
		})
	}
}

func TestSelectNeedleMissing(t *testing.T) {
	doc := mustParse(t, `<p>nothing here</p>`)
	if _, err := SelectNeedle(doc, "absent"); !errors.Is(err, ErrRangeNotFound) {
		t.Errorf("expected ErrRangeNotFound, got %v", err)
	}
}
