package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
)

// ParentRef points at a container: a Category or Task for tasks and events,
// a Task or Event for notes.
type ParentRef struct {
	Kind Kind   `json:"type"`
	ID   string `json:"id"`
}

func CategoryParent(id string) ParentRef { return ParentRef{Kind: KindCategory, ID: id} }
func TaskParent(id string) ParentRef     { return ParentRef{Kind: KindTask, ID: id} }
func EventParent(id string) ParentRef    { return ParentRef{Kind: KindEvent, ID: id} }

// ParseParentRef validates a discriminator string and id coming from a request.
func ParseParentRef(kind, id string) (ParentRef, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return ParentRef{}, err
	}
	if k == KindNote {
		return ParentRef{}, fmt.Errorf("%w: notes cannot hold children", common.ErrorInvalidParentType)
	}
	if strings.TrimSpace(id) == "" {
		return ParentRef{}, fmt.Errorf("%w: empty parent id", common.ErrorValidation)
	}
	return ParentRef{Kind: k, ID: id}, nil
}

// Accepts checks the parent/child kind pairing.
func (p ParentRef) Accepts(child Kind) error {
	if !CanParent(p.Kind, child) {
		return fmt.Errorf("%w: %s cannot be a parent of %s", common.ErrorInvalidParentType, p.Kind, child)
	}
	return nil
}

func (p ParentRef) String() string { return p.Kind.String() + ":" + p.ID }

// ChildRef points at a movable child: a Task, Event or Note.
type ChildRef struct {
	Kind Kind   `json:"type"`
	ID   string `json:"id"`
}

func (c ChildRef) String() string { return c.Kind.String() + ":" + c.ID }

// AsParent reinterprets a child as a container, e.g. a task holding subtasks.
func (c ChildRef) AsParent() ParentRef { return ParentRef{Kind: c.Kind, ID: c.ID} }
