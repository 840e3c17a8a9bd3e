package anchor

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
)

// ContainerFinder identifies the logical blocks (chat messages) a
// document is made of.
type ContainerFinder interface {
	// KeyOf returns the container key when n is itself a container.
	KeyOf(n *html.Node) (string, bool)
	// Lookup returns the container with the given key under doc.
	Lookup(doc *html.Node, key string) (*html.Node, bool)
}

// AttrFinder treats elements carrying a non-empty attribute as
// containers keyed by the attribute value.
type AttrFinder struct {
	Attr string
}

func (f AttrFinder) KeyOf(n *html.Node) (string, bool) {
	v, ok := attr(n, f.Attr)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (f AttrFinder) Lookup(doc *html.Node, key string) (*html.Node, bool) {
	return lookup(doc, key, f.KeyOf)
}

// ClassFinder treats elements with a class as containers keyed by their id.
type ClassFinder struct {
	Class string
}

func (f ClassFinder) KeyOf(n *html.Node) (string, bool) {
	if !hasClass(n, f.Class) {
		return "", false
	}
	id, ok := attr(n, "id")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (f ClassFinder) Lookup(doc *html.Node, key string) (*html.Node, bool) {
	return lookup(doc, key, f.KeyOf)
}

// OrdinalFinder keys containers by their position among all matching
// elements of the document, for markup that exposes no stable id.
type OrdinalFinder struct {
	Tag    string
	Attr   string
	Prefix string
}

func (f OrdinalFinder) matches(n *html.Node) bool {
	if n.Type != html.ElementNode || (f.Tag != "" && n.Data != f.Tag) {
		return false
	}
	_, ok := attr(n, f.Attr)
	return ok
}

func (f OrdinalFinder) KeyOf(n *html.Node) (string, bool) {
	if n == nil || !f.matches(n) {
		return "", false
	}
	index, found := 0, false
	elements(topOf(n), func(e *html.Node) bool {
		if e == n {
			found = true
			return false
		}
		if f.matches(e) {
			index++
		}
		return true
	})
	if !found {
		return "", false
	}
	return f.Prefix + strconv.Itoa(index), true
}

func (f OrdinalFinder) Lookup(doc *html.Node, key string) (*html.Node, bool) {
	want, err := strconv.Atoi(strings.TrimPrefix(key, f.Prefix))
	if err != nil || !strings.HasPrefix(key, f.Prefix) || want < 0 {
		return nil, false
	}
	var (
		index int
		hit   *html.Node
	)
	elements(doc, func(e *html.Node) bool {
		if !f.matches(e) {
			return true
		}
		if index == want {
			hit = e
			return false
		}
		index++
		return true
	})
	return hit, hit != nil
}

func lookup(doc *html.Node, key string, keyOf func(*html.Node) (string, bool)) (*html.Node, bool) {
	var hit *html.Node
	elements(doc, func(e *html.Node) bool {
		if k, ok := keyOf(e); ok && k == key {
			hit = e
			return false
		}
		return true
	})
	return hit, hit != nil
}

// FinderFor returns the container finder of a provider. Unknown providers
// fall back to the ChatGPT markup.
func FinderFor(p domain.Provider) ContainerFinder {
	switch p {
	case domain.ProviderClaude:
		return OrdinalFinder{Tag: "div", Attr: "data-test-render-count", Prefix: "msg-"}
	case domain.ProviderGemini:
		return ClassFinder{Class: "conversation-container"}
	default:
		return AttrFinder{Attr: "data-message-id"}
	}
}

var sessionPaths = []struct {
	provider domain.Provider
	hosts    []string
	path     *regexp.Regexp
	base     string
}{
	{domain.ProviderChatGPT, []string{"chatgpt.com", "chat.openai.com"}, regexp.MustCompile(`/c/([^/]+)`), "https://chatgpt.com/c/"},
	{domain.ProviderClaude, []string{"claude.ai"}, regexp.MustCompile(`/chat/([a-f0-9-]+)`), "https://claude.ai/chat/"},
	{domain.ProviderGemini, []string{"gemini.google.com"}, regexp.MustCompile(`^/app/([a-f0-9]+)`), "https://gemini.google.com/app/"},
}

// SessionFromURL extracts the provider and session id from a chat page URL.
func SessionFromURL(raw string) (domain.Provider, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid session url: %w", err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, sp := range sessionPaths {
		for _, h := range sp.hosts {
			if host != h {
				continue
			}
			m := sp.path.FindStringSubmatch(u.Path)
			if m == nil {
				return sp.provider, "", fmt.Errorf("%s url %q is not a chat session", sp.provider, raw)
			}
			return sp.provider, m[1], nil
		}
	}
	return "", "", fmt.Errorf("unsupported chat host %q", u.Hostname())
}

// SessionURL builds the page URL of a session.
func SessionURL(p domain.Provider, sessionID string) (string, bool) {
	for _, sp := range sessionPaths {
		if sp.provider == p {
			return sp.base + url.PathEscape(sessionID), true
		}
	}
	return "", false
}
