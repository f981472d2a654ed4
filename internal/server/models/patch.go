package models

import "time"

// Patches list the only fields a client may change. Owner, parent and child
// lists have no counterpart here: they are maintained by the hierarchy engine.

type CategoryPatch struct {
	Name *string `json:"name"`
}

type TaskPatch struct {
	Name             *string    `json:"name"`
	Description      *string    `json:"description"`
	Completed        *bool      `json:"completed"`
	Deadline         *time.Time `json:"deadline"`
	StartDate        *time.Time `json:"startDate"`
	EstimatedMinutes *int       `json:"estimatedMinutes"`
	External         *bool      `json:"external"`
	PrqTasks         *IDList    `json:"prqTasks"`
	PrqEvents        *IDList    `json:"prqEvents"`
}

// EventPatch changes an event. A new DateTime pushes the old one onto
// PrevDates.
type EventPatch struct {
	Name          *string    `json:"name"`
	DateTime      *time.Time `json:"dateTime"`
	LengthMinutes *int       `json:"lengthMinutes"`
	Completed     *bool      `json:"completed"`
	PrqTasks      *IDList    `json:"prqTasks"`
	PrqEvents     *IDList    `json:"prqEvents"`
}

type NotePatch struct {
	Text      *string    `json:"text"`
	DateStamp *time.Time `json:"dateStamp"`
}

type UserPatch struct {
	UserName *string `json:"userName"`
	Email    *string `json:"email"`
}

// ApplyTo mutates t in place; used by the in-memory adapter.
func (p TaskPatch) ApplyTo(t *Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Deadline != nil {
		d := *p.Deadline
		t.Deadline = &d
	}
	if p.StartDate != nil {
		d := *p.StartDate
		t.StartDate = &d
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.External != nil {
		t.External = *p.External
	}
	if p.PrqTasks != nil {
		t.PrqTasks = p.PrqTasks.Clone()
	}
	if p.PrqEvents != nil {
		t.PrqEvents = p.PrqEvents.Clone()
	}
}

func (p EventPatch) ApplyTo(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.DateTime != nil {
		if e.DateTime != nil && !e.DateTime.Equal(*p.DateTime) {
			e.PrevDates = append(e.PrevDates, *e.DateTime)
		}
		d := *p.DateTime
		e.DateTime = &d
	}
	if p.LengthMinutes != nil {
		e.LengthMinutes = *p.LengthMinutes
	}
	if p.Completed != nil {
		e.Completed = *p.Completed
	}
	if p.PrqTasks != nil {
		e.PrqTasks = p.PrqTasks.Clone()
	}
	if p.PrqEvents != nil {
		e.PrqEvents = p.PrqEvents.Clone()
	}
}

func (p NotePatch) ApplyTo(n *Note) {
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.DateStamp != nil {
		n.DateStamp = *p.DateStamp
	}
}

func (p CategoryPatch) ApplyTo(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
}

func (p UserPatch) ApplyTo(u *User) {
	if p.UserName != nil {
		u.UserName = *p.UserName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
}
