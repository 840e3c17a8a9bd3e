package redis

import "fmt"

const (
	// KeyPrefixBookmarks is the prefix for per-session bookmark lists
	KeyPrefixBookmarks = "chatmark:bookmarks:"
	// KeyBookmarkSessions is the set of session IDs holding bookmarks
	KeyBookmarkSessions = "chatmark:bookmarks-sessions"
	// KeyPrefixSession is the prefix for session meta keys
	KeyPrefixSession = "chatmark:session:"
	// KeyAllSessions is the set of session IDs holding a meta
	KeyAllSessions = "chatmark:sessions:all"
	// KeySettings holds the user preferences
	KeySettings = "chatmark:settings"
)

// BookmarksKey returns the Redis key for a session's bookmark list
func BookmarksKey(sessionID string) string {
	return KeyPrefixBookmarks + sessionID
}

// BookmarkSessionsKey returns the key for the set of sessions with bookmarks
func BookmarkSessionsKey() string {
	return KeyBookmarkSessions
}

// SessionKey returns the Redis key for a session meta
func SessionKey(sessionID string) string {
	return KeyPrefixSession + sessionID
}

// AllSessionsKey returns the key for the set of all session metas
func AllSessionsKey() string {
	return KeyAllSessions
}

// SettingsKey returns the Redis key for the settings document
func SettingsKey() string {
	return KeySettings
}

// ExtractSessionID extracts the session ID from a bookmark list key
func ExtractSessionID(key string) (string, error) {
	if len(key) <= len(KeyPrefixBookmarks) || key[:len(KeyPrefixBookmarks)] != KeyPrefixBookmarks {
		return "", fmt.Errorf("invalid bookmarks key: %s", key)
	}
	return key[len(KeyPrefixBookmarks):], nil
}
