// Package todo defines the task records exchanged with the task backend.
package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents a task status.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Toggle returns the opposite status. Anything that is not active is
// treated as completed, so it flips back to active.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusCompleted
	}
	return StatusActive
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Filter restricts which tasks are fetched.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterActive, FilterCompleted}
}

// ParseFilter parses a filter name. The empty string means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("invalid filter %q, must be one of: all, active, completed", s)
	}
}

// Status returns the status query value for the filter, or "" for all.
func (f Filter) Status() Status {
	switch f {
	case FilterActive:
		return StatusActive
	case FilterCompleted:
		return StatusCompleted
	default:
		return ""
	}
}

// Next returns the filter after f in display order, wrapping around.
func (f Filter) Next() Filter {
	all := Filters()
	for i, candidate := range all {
		if candidate == f {
			return all[(i+1)%len(all)]
		}
	}
	return FilterAll
}

// ID is an opaque backend-assigned task identifier. The backend may send it
// as a JSON number or a string; it is kept as text either way.
type ID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("task id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Task represents a single task as returned by the backend.
type Task struct {
	ID          ID         `json:"id" yaml:"id" validate:"required"`
	Title       string     `json:"title" yaml:"title" validate:"notblank"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status" validate:"oneof=active completed"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// timestampLayouts are tried in order. Naive timestamps, as produced by
// Python's isoformat, are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateTime,
}

// ParseTimestamp parses a backend timestamp. It returns nil when s is empty
// or matches none of the known layouts.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// UnmarshalJSON decodes a task. Timestamps are optional and read leniently;
// one that cannot be parsed is dropped rather than failing the task.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		CreatedAt *string `json:"created_at"`
		UpdatedAt *string `json:"updated_at"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = nil, nil
	if aux.CreatedAt != nil {
		t.CreatedAt = ParseTimestamp(*aux.CreatedAt)
	}
	if aux.UpdatedAt != nil {
		t.UpdatedAt = ParseTimestamp(*aux.UpdatedAt)
	}
	return nil
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// Completed reports whether the task is marked completed.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Draft is the body of a create request.
type Draft struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description"`
}

// Patch is the body of a partial update. Nil fields are left out of the
// request so the backend keeps their current values.
type Patch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty" validate:"omitempty,oneof=active completed"`
}

// IsEmpty reports whether the patch carries no changes.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// Apply returns t with the patch fields set.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

// StatusPatch returns a patch that only changes the status.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// ContentPatch returns a patch that sets title and description together.
func ContentPatch(title, description string) Patch {
	return Patch{Title: &title, Description: &description}
}
