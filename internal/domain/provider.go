package domain

import "strings"

// Provider names the chat surface a session lives on.
type Provider string

const (
	ProviderChatGPT Provider = "ChatGPT"
	ProviderGemini  Provider = "Gemini"
	ProviderClaude  Provider = "Claude"
)

// ParseProvider matches a provider name case-insensitively.
// Unknown names yield "", false.
func ParseProvider(raw string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "chatgpt":
		return ProviderChatGPT, true
	case "gemini":
		return ProviderGemini, true
	case "claude":
		return ProviderClaude, true
	default:
		return "", false
	}
}
