// Package search ranks the bookmarks of a session against a free-text
// query typed in the sidebar filter.
package search

import (
	"strings"
	"unicode"
)

// Query represents a parsed user input
type Query struct {
	Raw             string   // Original input
	Fragments       []string // Space-separated fragments
	HasPath         bool     // Whether input contains "/" (enables folder matching)
	FolderFragments []string // Fragments before the last "/"
	NameFragments   []string // Fragments after the last "/" (or all if no "/")
}

// ParseQuery parses user input into a structured query
// Examples:
//   - "brown fox" -> names only, unordered: ["brown", "fox"]
//   - "ideas/fox" -> folder scoped: ["ideas"] + ["fox"]
//   - "work notes/api key" -> folder scoped: ["work", "notes"] + ["api", "key"]
func ParseQuery(input string) *Query {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return &Query{Raw: input}
	}

	q := &Query{
		Raw:     input,
		HasPath: strings.Contains(input, "/"),
	}

	if !q.HasPath {
		q.Fragments = splitAndClean(input)
		q.NameFragments = q.Fragments
		return q
	}

	cut := strings.LastIndex(input, "/")
	for _, part := range strings.Split(input[:cut], "/") {
		q.FolderFragments = append(q.FolderFragments, splitAndClean(part)...)
	}
	q.NameFragments = splitAndClean(input[cut+1:])

	q.Fragments = make([]string, 0, len(q.FolderFragments)+len(q.NameFragments))
	q.Fragments = append(q.Fragments, q.FolderFragments...)
	q.Fragments = append(q.Fragments, q.NameFragments...)

	return q
}

// IsEmpty reports whether the query matches nothing in particular.
func (q *Query) IsEmpty() bool { return q == nil || len(q.Fragments) == 0 }

func splitAndClean(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Words splits a label into lowercase match fragments.
// Example: "Brown fox, jumps!" -> ["brown", "fox", "jumps"]
func Words(label string) []string {
	return strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalizeFragment normalizes a fragment for matching
func normalizeFragment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
