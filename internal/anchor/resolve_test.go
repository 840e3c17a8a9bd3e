package anchor

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

func captureNeedle(t *testing.T, content, needle string, finder ContainerFinder) domain.Anchor {
	t.Helper()
	doc := mustParse(t, content)
	sel, err := SelectNeedle(doc, needle)
	if err != nil {
		t.Fatalf("SelectNeedle(%q) failed: %v", needle, err)
	}
	a, err := Capture(sel, finder)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	return a
}

func TestResolveQuickBrownFox(t *testing.T) {
	content := `<div data-message-id="m1">The quick brown fox jumps</div>`
	a := captureNeedle(t, content, "brown fox", chatgpt)

	res, err := Resolve(mustParse(t, content), a, chatgpt)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Start != 10 || res.End != 19 {
		t.Errorf("offsets = [%d, %d), want [10, 19)", res.Start, res.End)
	}
	if res.Layer != LayerContext {
		t.Errorf("Layer = %q, want %q", res.Layer, LayerContext)
	}
	if res.Degraded() {
		t.Fatal("expected a range")
	}
	if got := res.Range.Text(); got != "brown fox" {
		t.Errorf("range text = %q, want %q", got, "brown fox")
	}
}

func TestResolveRoundTrip(t *testing.T) {
	content := `<div data-message-id="a"><p>Alpha <em>beta</em> gamma</p><p>delta</p></div>` +
		`<div data-message-id="b"><p>beta gamma again</p></div>`

	tests := []struct {
		name   string
		needle string
		key    string
	}{
		{name: "across inline element", needle: "beta gamma", key: "a"},
		{name: "across paragraphs", needle: "gammadelta", key: "a"},
		{name: "second message", needle: "again", key: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := captureNeedle(t, content, tt.needle, chatgpt)
			if a.ContainerKey != tt.key {
				t.Fatalf("ContainerKey = %q, want %q", a.ContainerKey, tt.key)
			}
			res, err := Resolve(mustParse(t, content), a, chatgpt)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if res.Degraded() {
				t.Fatal("expected a range")
			}
			if got := res.Range.Text(); got != tt.needle {
				t.Errorf("range text = %q, want %q", got, tt.needle)
			}
		})
	}
}

func TestResolveToleratesDistantEdits(t *testing.T) {
	intro := strings.Repeat("lorem ipsum ", 10)
	original := `<div data-message-id="m1">` + intro + `the anchored phrase and what follows</div>`
	a := captureNeedle(t, original, "anchored phrase", chatgpt)

	edited := `<div data-message-id="m1"><p>` + strings.Repeat("streamed ", 30) + `</p>` +
		intro + `the anchored phrase and what follows` + `<p>more tokens</p></div>`

	res, err := Resolve(mustParse(t, edited), a, chatgpt)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Layer != LayerContext {
		t.Errorf("Layer = %q, want %q", res.Layer, LayerContext)
	}
	if got := res.Range.Text(); got != "anchored phrase" {
		t.Errorf("range text = %q", got)
	}
}

func TestResolveFallsBackToText(t *testing.T) {
	a := captureNeedle(t, `<div data-message-id="m1">The quick brown fox jumps</div>`, "brown fox", chatgpt)

	res, err := Resolve(mustParse(t, `<div data-message-id="m1">Rewritten so a brown fox is all that is left</div>`), a, chatgpt)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Layer != LayerText {
		t.Errorf("Layer = %q, want %q", res.Layer, LayerText)
	}
	if got := res.Range.Text(); got != "brown fox" {
		t.Errorf("range text = %q", got)
	}
}

func TestResolvePrefersClosestContext(t *testing.T) {
	a := domain.Anchor{
		ContainerKey:  "m1",
		Text:          "fox",
		ContextBefore: "The quick brown ",
		ContextAfter:  " jumps",
	}
	doc := mustParse(t, `<div data-message-id="m1">a red fox sleeps. The slow brown fox jumps high</div>`)

	res, err := Resolve(doc, a, chatgpt)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if want := strings.LastIndex("a red fox sleeps. The slow brown fox jumps high", "fox"); res.Start != want {
		t.Errorf("Start = %d, want %d", res.Start, want)
	}
}

func TestResolveDegradesInsideScript(t *testing.T) {
	a := domain.Anchor{ContainerKey: "m1", Text: "var x"}
	doc := mustParse(t, `<div data-message-id="m1">hello<script>var x = 1</script></div>`)

	res, err := Resolve(doc, a, chatgpt)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.Degraded() {
		t.Error("expected degraded resolution")
	}
	if res.Container == nil {
		t.Error("expected the container to be reported")
	}
}

func TestResolveErrors(t *testing.T) {
	a := domain.Anchor{ContainerKey: "m1", Text: "brown fox", ContextBefore: "The quick "}

	tests := []struct {
		name string
		html string
		want error
	}{
		{name: "container gone", html: `<div data-message-id="m2">The quick brown fox</div>`, want: domain.ErrContainerGone},
		{name: "text gone", html: `<div data-message-id="m1">regenerated answer</div>`, want: domain.ErrTargetTextGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(mustParse(t, tt.html), a, chatgpt)
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("Resolve error %v does not wrap ErrNotFound", err)
			}
		})
	}
}
