// Package models defines the branch entities (categories, tasks, events,
// notes), the users owning them and the typed references linking them.
package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
)

// Kind discriminates the four branch entity types.
type Kind int

const (
	KindCategory Kind = iota + 1
	KindTask
	KindEvent
	KindNote
)

var kindNames = map[Kind]string{
	KindCategory: "category",
	KindTask:     "task",
	KindEvent:    "event",
	KindNote:     "note",
}

// ParseKind resolves a route or payload discriminator ("category", "task",
// "event", "note"; case-insensitive). Anything else is ErrorInvalidParentType.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", common.ErrorInvalidParentType, s)
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", common.ErrorInvalidParentType, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// CanParent reports whether a parent of kind p may hold a child of kind c.
// It is the single validation point for structural links:
//
//	category -> task, event
//	task     -> task, event, note
//	event    -> note
func CanParent(p, c Kind) bool {
	switch p {
	case KindCategory:
		return c == KindTask || c == KindEvent
	case KindTask:
		return c == KindTask || c == KindEvent || c == KindNote
	case KindEvent:
		return c == KindNote
	default:
		return false
	}
}
