package form

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/kazz187/taskforge/pkg/cerr"
)

// Input renders a field for the terminal and parses what the user typed.
type Input interface {
	Render(w io.Writer, field FormField, value string) error
	Parse(field FormField, raw string) (string, error)
}

// NewInput picks the widget for t. Unknown types fall back to text.
func NewInput(t FieldType) Input {
	switch t {
	case FieldSelect:
		return SelectInput{}
	default:
		return TextInput{}
	}
}

type TextInput struct{}

func (TextInput) Render(w io.Writer, field FormField, value string) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", field.Label, value)
	return err
}

func (TextInput) Parse(_ FormField, raw string) (string, error) {
	return strings.TrimSpace(raw), nil
}

type SelectInput struct{}

func (SelectInput) Render(w io.Writer, field FormField, value string) error {
	opts := field.Options()
	marked := make([]string, len(opts))
	for i, o := range opts {
		if o == value {
			marked[i] = "[" + o + "]"
		} else {
			marked[i] = o
		}
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", field.Label, strings.Join(marked, " | "))
	return err
}

// Parse matches raw case-insensitively against the options. An empty value
// is accepted as "no choice".
func (SelectInput) Parse(field FormField, raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", nil
	}
	opts := field.Options()
	if i := slices.IndexFunc(opts, func(o string) bool { return strings.ToLower(o) == v }); i >= 0 {
		return opts[i], nil
	}
	return "", cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil,
		[]string{fmt.Sprintf("%s: must be one of %s", field.Name, strings.Join(opts, ", "))})
}
