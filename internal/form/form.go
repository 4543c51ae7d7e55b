// Package form describes the task form, validates submitted values and maps
// field types to input widgets.
package form

import (
	"fmt"
	"strings"

	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

// TaskFormData is what the task form submits.
type TaskFormData = task.Draft

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
)

// Field names, matching the JSON names of task.Draft.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "dueDate"
	FieldPriority    = "priority"
)

// PropOptions lists the allowed values of a select field ([]string).
const PropOptions = "options"

type FormField struct {
	Name  string
	Type  FieldType
	Label string
	Props map[string]any
}

// Options returns the select options of f, if any.
func (f FormField) Options() []string {
	opts, _ := f.Props[PropOptions].([]string)
	return opts
}

// TaskFields returns the task form layout in display order.
func TaskFields() []FormField {
	priorities := task.Priorities()
	opts := make([]string, len(priorities))
	for i, p := range priorities {
		opts[i] = string(p)
	}
	return []FormField{
		{Name: FieldTitle, Type: FieldText, Label: "Title", Props: map[string]any{"required": true}},
		{Name: FieldDescription, Type: FieldText, Label: "Description"},
		{Name: FieldDueDate, Type: FieldText, Label: "Due date", Props: map[string]any{"placeholder": "YYYY-MM-DD"}},
		{Name: FieldPriority, Type: FieldSelect, Label: "Priority", Props: map[string]any{PropOptions: opts, "default": string(task.PriorityLow)}},
	}
}

// Validate checks a submission before it reaches the task service. All
// violations are reported together as details of one InvalidArgument error.
// An empty due date or priority is allowed.
func Validate(d TaskFormData) error {
	var details []string
	if strings.TrimSpace(d.Title) == "" {
		details = append(details, "title: must not be empty")
	}
	if d.DueDate != "" {
		if _, err := task.ParseDueDate(d.DueDate); err != nil {
			details = append(details, fmt.Sprintf("dueDate: %q is not a date", d.DueDate))
		}
	}
	if d.Priority != "" && !d.Priority.Valid() {
		details = append(details, fmt.Sprintf("priority: must be one of %s", joinPriorities()))
	}
	if len(details) > 0 {
		return cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, details)
	}
	return nil
}

func joinPriorities() string {
	ps := task.Priorities()
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Decode runs each raw value through the input for its field and assembles
// the result. Fields missing from raw are left empty. Decode does not call
// Validate.
func Decode(fields []FormField, raw map[string]string) (TaskFormData, error) {
	var d TaskFormData
	for _, f := range fields {
		v, ok := raw[f.Name]
		if !ok {
			continue
		}
		parsed, err := NewInput(f.Type).Parse(f, v)
		if err != nil {
			return TaskFormData{}, err
		}
		switch f.Name {
		case FieldTitle:
			d.Title = parsed
		case FieldDescription:
			d.Description = parsed
		case FieldDueDate:
			d.DueDate = parsed
		case FieldPriority:
			d.Priority = task.Priority(parsed)
		default:
			return TaskFormData{}, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown field %q", f.Name), nil)
		}
	}
	return d, nil
}
