package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/kazz187/taskforge/pkg/cerr"
)

// Task is an immutable snapshot of a unit of work. It holds no reference
// fields, so copying a Task copies all of its state.
type Task struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	DueDate     string   `json:"dueDate" yaml:"due_date"`
	Priority    Priority `json:"priority" yaml:"priority"`
}

// Draft is a task that has not been assigned an ID yet.
type Draft struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	DueDate     string   `json:"dueDate" yaml:"due_date"`
	Priority    Priority `json:"priority" yaml:"priority"`
}

// Draft drops the ID.
func (t Task) Draft() Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns every priority, lowest first.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Rank orders priorities for comparison only: low=1, medium=2, high=3.
// Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown priority %q", s), nil)
	}
	return p, nil
}

var dueDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04",
	time.DateTime,
}

// ParseDueDate parses the calendar formats accepted for Task.DueDate.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid due date %q", s), nil)
}
