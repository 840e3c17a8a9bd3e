package anchor

import (
	"testing"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

func TestFinders(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.Provider
		html     string
		needle   string
		wantKey  string
	}{
		{
			name:     "chatgpt message id",
			provider: domain.ProviderChatGPT,
			html:     `<article><div data-message-id="abc">question</div><div data-message-id="def">answer text</div></article>`,
			needle:   "answer",
			wantKey:  "def",
		},
		{
			name:     "claude render ordinal",
			provider: domain.ProviderClaude,
			html:     `<div data-test-render-count="2"><p>first</p></div><div data-test-render-count="1"><p>second message</p></div>`,
			needle:   "second",
			wantKey:  "msg-1",
		},
		{
			name:     "gemini conversation container",
			provider: domain.ProviderGemini,
			html:     `<div class="conversation-container flex" id="c-42"><message-content>gemini says hi</message-content></div>`,
			needle:   "says",
			wantKey:  "c-42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := FinderFor(tt.provider)
			a := captureNeedle(t, tt.html, tt.needle, finder)
			if a.ContainerKey != tt.wantKey {
				t.Fatalf("ContainerKey = %q, want %q", a.ContainerKey, tt.wantKey)
			}
			res, err := Resolve(mustParse(t, tt.html), a, finder)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got := res.Range.Text(); got != tt.needle {
				t.Errorf("range text = %q, want %q", got, tt.needle)
			}
		})
	}
}

func TestSessionFromURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantProvider domain.Provider
		wantID       string
		wantErr      bool
	}{
		{name: "chatgpt", url: "https://chatgpt.com/c/6789-abcd", wantProvider: domain.ProviderChatGPT, wantID: "6789-abcd"},
		{name: "chatgpt legacy host", url: "https://chat.openai.com/c/xyz", wantProvider: domain.ProviderChatGPT, wantID: "xyz"},
		{name: "claude", url: "https://claude.ai/chat/0f1e2d3c-aa", wantProvider: domain.ProviderClaude, wantID: "0f1e2d3c-aa"},
		{name: "gemini", url: "https://gemini.google.com/app/a1b2c3", wantProvider: domain.ProviderGemini, wantID: "a1b2c3"},
		{name: "chatgpt home", url: "https://chatgpt.com/", wantErr: true},
		{name: "unknown host", url: "https://example.com/c/abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, id, err := SessionFromURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("SessionFromURL failed: %v", err)
			}
			if p != tt.wantProvider || id != tt.wantID {
				t.Errorf("got (%q, %q), want (%q, %q)", p, id, tt.wantProvider, tt.wantID)
			}
		})
	}

	if u, ok := SessionURL(domain.ProviderClaude, "abc"); !ok || u != "https://claude.ai/chat/abc" {
		t.Errorf("SessionURL = %q, %v", u, ok)
	}
}
