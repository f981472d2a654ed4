package models

import "time"

// Entity is implemented by every branch node.
type Entity interface {
	EntityID() string
	EntityKind() Kind
	Owner() string
}

// Category is a top-level container owned by a user. Tasks and Events are
// derived from the children pointing back at it.
type Category struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	Tasks     []string  `json:"tasks"`
	Events    []string  `json:"events"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Category) EntityID() string  { return c.ID }
func (c *Category) EntityKind() Kind  { return KindCategory }
func (c *Category) Owner() string     { return c.AccountID }
func (c *Category) Ref() ParentRef    { return CategoryParent(c.ID) }

// Task is a unit of work under a category or another task.
//
// EstimatedMinutes includes subtasks. External marks work outside the
// owner's control. SubTasks, Events and Notes are derived.
type Task struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"accountId"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Completed        bool       `json:"completed"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	External         bool       `json:"external"`
	ParentType       Kind       `json:"parentType"`
	Parent           string     `json:"parent"`
	PrqTasks         IDList     `json:"prqTasks"`
	PrqEvents        IDList     `json:"prqEvents"`
	SubTasks         []string   `json:"subTasks"`
	Events           []string   `json:"events"`
	Notes            []string   `json:"notes"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func (t *Task) EntityID() string     { return t.ID }
func (t *Task) EntityKind() Kind     { return KindTask }
func (t *Task) Owner() string        { return t.AccountID }
func (t *Task) ParentRef() ParentRef { return ParentRef{Kind: t.ParentType, ID: t.Parent} }
func (t *Task) Ref() ChildRef        { return ChildRef{Kind: KindTask, ID: t.ID} }

// Event is a scheduled occurrence. PrevDates keeps every date the event was
// rescheduled from, oldest first.
type Event struct {
	ID            string     `json:"id"`
	AccountID     string     `json:"accountId"`
	Name          string     `json:"name"`
	DateTime      *time.Time `json:"dateTime,omitempty"`
	LengthMinutes int        `json:"lengthMinutes"`
	Completed     bool       `json:"completed"`
	PrevDates     TimeList   `json:"prevDates"`
	ParentType    Kind       `json:"parentType"`
	Parent        string     `json:"parent"`
	PrqTasks      IDList     `json:"prqTasks"`
	PrqEvents     IDList     `json:"prqEvents"`
	Notes         []string   `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (e *Event) EntityID() string     { return e.ID }
func (e *Event) EntityKind() Kind     { return KindEvent }
func (e *Event) Owner() string        { return e.AccountID }
func (e *Event) ParentRef() ParentRef { return ParentRef{Kind: e.ParentType, ID: e.Parent} }
func (e *Event) Ref() ChildRef        { return ChildRef{Kind: KindEvent, ID: e.ID} }

// Note is free text attached to a task or an event.
type Note struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"accountId"`
	DateStamp  time.Time `json:"dateStamp"`
	Text       string    `json:"text"`
	ParentType Kind      `json:"parentType"`
	Parent     string    `json:"parent"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (n *Note) EntityID() string     { return n.ID }
func (n *Note) EntityKind() Kind     { return KindNote }
func (n *Note) Owner() string        { return n.AccountID }
func (n *Note) ParentRef() ParentRef { return ParentRef{Kind: n.ParentType, ID: n.Parent} }
func (n *Note) Ref() ChildRef        { return ChildRef{Kind: KindNote, ID: n.ID} }

// User links an external account to its categories (oldest first).
type User struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"accountId"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"createdAt"`
}
