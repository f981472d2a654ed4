package models

import (
	"encoding/json"
	"fmt"
)

// Tree is a materialized subtree: the entity itself plus its resolved
// children. Events are leaves apart from their notes.
type Tree struct {
	Entity   Entity
	Children Children
}

type Children struct {
	Tasks  []*Tree  `json:"tasks"`
	Events []*Event `json:"events"`
	Notes  []*Note  `json:"notes,omitempty"`
}

// MarshalJSON flattens the entity fields and adds a "children" key.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil || t.Entity == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(t.Entity)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("tree entity is not an object: %w", err)
	}
	children, err := json.Marshal(t.Children)
	if err != nil {
		return nil, err
	}
	fields["children"] = children
	return json.Marshal(fields)
}

// Count returns the number of entities in the tree, root included.
func (t *Tree) Count() int {
	if t == nil || t.Entity == nil {
		return 0
	}
	n := 1 + len(t.Children.Events) + len(t.Children.Notes)
	for _, c := range t.Children.Tasks {
		n += c.Count()
	}
	return n
}

// Refs lists every entity of the tree in depth-first order.
func (t *Tree) Refs() []ChildRef {
	if t == nil || t.Entity == nil {
		return nil
	}
	refs := []ChildRef{{Kind: t.Entity.EntityKind(), ID: t.Entity.EntityID()}}
	for _, n := range t.Children.Notes {
		refs = append(refs, n.Ref())
	}
	for _, c := range t.Children.Tasks {
		refs = append(refs, c.Refs()...)
	}
	for _, e := range t.Children.Events {
		refs = append(refs, e.Ref())
	}
	return refs
}
