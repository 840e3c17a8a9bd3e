package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Parent locates a record in the hierarchy: either Root or the child of
// another record in the same session. The zero value is Root.
type Parent struct {
	id string
}

// Root returns the root placement.
func Root() Parent { return Parent{} }

// ChildOf returns a placement under the record with the given id.
// A blank id yields Root.
func ChildOf(id string) Parent {
	return Parent{id: strings.TrimSpace(id)}
}

// IsRoot reports whether the placement is the root level.
func (p Parent) IsRoot() bool { return p.id == "" }

// ID returns the parent record id, or false for Root.
func (p Parent) ID() (string, bool) {
	return p.id, p.id != ""
}

// Key returns a comparable group key ("" for Root).
func (p Parent) Key() string { return p.id }

// Is reports whether p is the child placement under id.
func (p Parent) Is(id string) bool { return id != "" && p.id == id }

func (p Parent) String() string {
	if p.IsRoot() {
		return "root"
	}
	return p.id
}

// MarshalJSON encodes Root as null and a child placement as the parent id.
func (p Parent) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("null"), nil
	}
	return json.Marshal(p.id)
}

// UnmarshalJSON accepts null, "" or an id string.
func (p *Parent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Root()
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*p = ChildOf(id)
	return nil
}
