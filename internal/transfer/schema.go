package transfer

import "time"

// FormatVersion is written into every export.
const FormatVersion = 1

// Document is the root structure of an export file.
//
//	version: 1
//	session: {id: abc, title: Trip planning, provider: ChatGPT}
//	bookmarks:
//	  - name: Ideas
//	    children:
//	      - name: quick brown fox
//	        anchor: {container: m1, text: quick brown fox, before: "The ", after: " jumps"}
type Document struct {
	Version   int          `yaml:"version"`
	Session   SessionEntry `yaml:"session"`
	Bookmarks []Entry      `yaml:"bookmarks"`
}

// SessionEntry describes the exported session.
type SessionEntry struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title,omitempty"`
	Provider  string    `yaml:"provider,omitempty"`
	UpdatedAt time.Time `yaml:"updatedAt,omitempty"`
}

// Entry is a bookmark or, without an anchor, a folder. Children are
// listed in sibling order.
type Entry struct {
	Name     string       `yaml:"name"`
	Note     string       `yaml:"note,omitempty"`
	Provider string       `yaml:"provider,omitempty"`
	Created  time.Time    `yaml:"created,omitempty"`
	Anchor   *AnchorEntry `yaml:"anchor,omitempty"`
	Children []Entry      `yaml:"children,omitempty"`
}

// AnchorEntry holds the re-locatable target of a bookmark.
type AnchorEntry struct {
	Container string `yaml:"container"`
	Text      string `yaml:"text"`
	Before    string `yaml:"before,omitempty"`
	After     string `yaml:"after,omitempty"`
	Offsets   []int  `yaml:"offsets,omitempty,flow"`
}
