package models

// SearchHit is one ranked search match. Score is only comparable within a
// single search call.
type SearchHit struct {
	Kind   Kind    `json:"type"`
	Score  float64 `json:"score"`
	Entity Entity  `json:"entity"`
}

// RebaseResult reports a delete-and-rebase: the removed container, the
// resolved new parent and the children successfully moved to it.
// DeletedNotes holds the container's notes that could not follow it.
type RebaseResult struct {
	Deleted      Entity     `json:"deleted"`
	NewParent    Entity     `json:"newParent"`
	Moved        []ChildRef `json:"moved"`
	DeletedNotes []*Note    `json:"deletedNotes"`
}

// Removed returns the removed entities as a tree rooted at the container.
func (r *RebaseResult) Removed() *Tree {
	if r == nil || r.Deleted == nil {
		return nil
	}
	return &Tree{
		Entity:   r.Deleted,
		Children: Children{Tasks: []*Tree{}, Events: []*Event{}, Notes: r.DeletedNotes},
	}
}

// RebaseChildResult is the moved child and, when the old parent still
// exists, its refreshed child lists.
type RebaseChildResult struct {
	Child     Entity       `json:"child"`
	OldParent *ParentState `json:"oldParent,omitempty"`
}

type ParentState struct {
	Ref    ParentRef `json:"ref"`
	Tasks  []string  `json:"tasks"`
	Events []string  `json:"events"`
	Notes  []string  `json:"notes"`
}
