package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Patch is a partial update of a record. Nil fields are left unchanged.
type Patch struct {
	DisplayName *string
	Note        *string
	Parent      *Parent
	Order       *int
}

// Update pairs a record id with the fields to change.
type Update struct {
	ID    string
	Patch Patch
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.DisplayName == nil && p.Note == nil && p.Parent == nil && p.Order == nil
}

// Apply returns a copy of b with the patch applied.
func (p Patch) Apply(b Bookmark) Bookmark {
	if p.DisplayName != nil {
		b.DisplayName = *p.DisplayName
	}
	if p.Note != nil {
		b.Note = *p.Note
	}
	if p.Parent != nil {
		b.Parent = *p.Parent
	}
	if p.Order != nil {
		b.Order = *p.Order
	}
	return b
}

// Placement builds a patch moving a record to parent at order.
func Placement(parent Parent, order int) Patch {
	return Patch{Parent: &parent, Order: &order}
}

// Reordering builds a patch changing only the order.
func Reordering(order int) Patch {
	return Patch{Order: &order}
}

// Renaming builds a patch changing only the display name.
func Renaming(name string) Patch {
	return Patch{DisplayName: &name}
}

// ApplyUpdates applies updates to a snapshot and returns a new slice.
// All ids must exist; nothing is applied otherwise.
func ApplyUpdates(records []Bookmark, updates []Update) ([]Bookmark, error) {
	index := make(map[string]int, len(records))
	for i, r := range records {
		index[r.ID] = i
	}
	for _, u := range updates {
		if _, ok := index[u.ID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRecord, u.ID)
		}
	}

	out := make([]Bookmark, len(records))
	copy(out, records)
	for _, u := range updates {
		i := index[u.ID]
		out[i] = u.Patch.Apply(out[i])
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type patchWire struct {
	DisplayName *string `json:"displayName,omitempty"`
	Note        *string `json:"note,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// MarshalJSON writes only the fields the patch changes.
// A move to Root is written as "parentId": null.
func (p Patch) MarshalJSON() ([]byte, error) {
	fields := map[string]any{}
	if p.DisplayName != nil {
		fields["displayName"] = *p.DisplayName
	}
	if p.Note != nil {
		fields["note"] = *p.Note
	}
	if p.Parent != nil {
		fields["parentId"] = *p.Parent
	}
	if p.Order != nil {
		fields["order"] = *p.Order
	}
	return json.Marshal(fields)
}

// UnmarshalJSON distinguishes an absent parentId (unchanged) from
// parentId: null (move to Root).
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var wire patchWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Patch{DisplayName: wire.DisplayName, Note: wire.Note, Order: wire.Order}
	if rawParent, ok := raw["parentId"]; ok {
		var parent Parent
		if err := parent.UnmarshalJSON(rawParent); err != nil {
			return err
		}
		p.Parent = &parent
	}
	if p.Order != nil && *p.Order < 0 {
		return fmt.Errorf("%w: negative order %d", ErrInvalidRecord, *p.Order)
	}
	return nil
}

// MarshalJSON flattens the patch next to the id.
func (u Update) MarshalJSON() ([]byte, error) {
	body, err := u.Patch.MarshalJSON()
	if err != nil {
		return nil, err
	}
	id, err := json.Marshal(u.ID)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(body, []byte("{}")) {
		return []byte(`{"id":` + string(id) + `}`), nil
	}
	return append([]byte(`{"id":`+string(id)+`,`), body[1:]...), nil
}

// UnmarshalJSON reads {"id": ..., <patch fields>}.
func (u *Update) UnmarshalJSON(data []byte) error {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.ID == "" {
		return fmt.Errorf("%w: update without id", ErrInvalidRecord)
	}
	var patch Patch
	if err := patch.UnmarshalJSON(data); err != nil {
		return err
	}
	*u = Update{ID: head.ID, Patch: patch}
	return nil
}
