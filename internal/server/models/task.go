// Package models defines the task record as it is persisted. Text and
// Description hold cipher envelopes (or legacy plaintext), never values
// fresh from a caller.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/todovault/internal/common"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

const DefaultCategory = "General"

// ParsePriority accepts exactly High, Medium or Low. An empty string means
// the default, Medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	case "":
		return PriorityMedium, nil
	default:
		return "", common.NewFieldError("priority", fmt.Sprintf("must be one of High, Medium, Low; got %q", s))
	}
}

// Task is a stored task record.
type Task struct {
	ID          string
	Text        string
	Description *string
	Priority    Priority
	Category    string
	Completed   bool
	DueDate     *time.Time
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch lists the fields an update touches. A nil field is left as is.
type TaskPatch struct {
	Text        *string
	Description *string
	Priority    *Priority
	Category    *string
	Completed   *bool
	DueDate     *time.Time
	Tags        *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p *TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Description == nil && p.Priority == nil && p.Category == nil &&
		p.Completed == nil && p.DueDate == nil && p.Tags == nil
}

// Apply merges the patch into t. Timestamps are the caller's concern.
func (p *TaskPatch) Apply(t *Task) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Description != nil {
		d := *p.Description
		t.Description = &d
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Tags = append([]string{}, t.Tags...)
	return &c
}
