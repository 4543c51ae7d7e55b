package form

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      TaskFormData
		details []string
	}{
		{name: "ok", in: TaskFormData{Title: "Write docs", DueDate: "2024-01-02", Priority: task.PriorityHigh}},
		{name: "minimal", in: TaskFormData{Title: "x"}},
		{name: "blank title", in: TaskFormData{Title: "  "}, details: []string{"title: must not be empty"}},
		{
			name: "everything wrong",
			in:   TaskFormData{DueDate: "tomorrow", Priority: "urgent"},
			details: []string{
				"title: must not be empty",
				`dueDate: "tomorrow" is not a date`,
				"priority: must be one of low, medium, high",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.details == nil {
				assert.NoError(t, err)
				return
			}
			var ce *cerr.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, cerr.InvalidArgument, ce.Code)
			assert.Equal(t, tt.details, ce.Details)
		})
	}
}

func TestNewInput(t *testing.T) {
	assert.IsType(t, SelectInput{}, NewInput(FieldSelect))
	assert.IsType(t, TextInput{}, NewInput(FieldText))
	assert.IsType(t, TextInput{}, NewInput("date"))
}

func TestTaskFields(t *testing.T) {
	fields := TaskFields()
	require.Len(t, fields, 4)
	assert.Equal(t, FieldPriority, fields[3].Name)
	assert.Equal(t, []string{"low", "medium", "high"}, fields[3].Options())
	assert.Nil(t, fields[0].Options())
}

func TestDecode(t *testing.T) {
	d, err := Decode(TaskFields(), map[string]string{
		FieldTitle:    "  Ship it ",
		FieldDueDate:  "2024-06-01",
		FieldPriority: "HIGH",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskFormData{Title: "Ship it", DueDate: "2024-06-01", Priority: task.PriorityHigh}, d)

	_, err = Decode(TaskFields(), map[string]string{FieldPriority: "urgent"})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	_, err = Decode([]FormField{{Name: "owner", Type: FieldText}}, map[string]string{"owner": "me"})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestRender(t *testing.T) {
	fields := TaskFields()
	var buf bytes.Buffer
	require.NoError(t, NewInput(fields[0].Type).Render(&buf, fields[0], "Ship"))
	require.NoError(t, NewInput(fields[3].Type).Render(&buf, fields[3], "medium"))
	assert.Equal(t, "Title: Ship\nPriority: low | [medium] | high\n", buf.String())
}
