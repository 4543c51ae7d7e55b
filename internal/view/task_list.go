// Package view renders the board and the command history for the terminal.
package view

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/kazz187/taskforge/internal/board"
	"github.com/kazz187/taskforge/internal/component"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

var _ component.Component = (*TaskList)(nil)

// TaskList prints the board ordered by the current sort key. Sorting works on
// a copy; the board order is never changed.
type TaskList struct {
	board    *board.Board
	registry *task.Registry
	colored  bool

	mu      sync.Mutex
	sortKey task.SortKey
}

type TaskListOption func(*TaskList)

func WithColor(c bool) TaskListOption {
	return func(l *TaskList) {
		l.colored = c
	}
}

func NewTaskList(b *board.Board, r *task.Registry, key task.SortKey, opts ...TaskListOption) *TaskList {
	l := &TaskList{board: b, registry: r, sortKey: key, colored: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *TaskList) Name() string { return "TaskList" }

// Mount checks that the configured sort key exists.
func (l *TaskList) Mount(context.Context) error {
	if _, ok := l.registry.Get(l.SortKey()); !ok {
		return cerr.NewError(cerr.FailedPrecondition, fmt.Sprintf("unknown sort key %q", l.SortKey()), nil)
	}
	return nil
}

func (l *TaskList) SortKey() task.SortKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortKey
}

// SetSortKey switches the ordering used by later renders.
func (l *TaskList) SetSortKey(key task.SortKey) error {
	if _, ok := l.registry.Get(key); !ok {
		return cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown sort key %q", key), nil)
	}
	l.mu.Lock()
	l.sortKey = key
	l.mu.Unlock()
	return nil
}

func (l *TaskList) Render(_ context.Context, w io.Writer) error {
	tasks, err := l.registry.Sort(l.SortKey(), l.board.Tasks())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}
	// Column widths are measured on plain text; color escapes are added
	// after padding so they never count as width.
	idW, dueW, prioW := len("ID"), len("DUE"), len("PRIORITY")
	dues := make([]string, len(tasks))
	for i, t := range tasks {
		dues[i] = t.DueDate
		if dues[i] == "" {
			dues[i] = "-"
		}
		idW = max(idW, len(t.ID))
		dueW = max(dueW, len(dues[i]))
		prioW = max(prioW, len(t.Priority))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%-*s  %-*s  %-*s  %s\n", idW, "ID", prioW, "PRIORITY", dueW, "DUE", "TITLE")
	for i, t := range tasks {
		prio := l.priority(t.Priority, fmt.Sprintf("%-*s", prioW, t.Priority))
		fmt.Fprintf(bw, "%-*s  %s  %-*s  %s\n", idW, t.ID, prio, dueW, dues[i], t.Title)
	}
	return bw.Flush()
}

// priority colors text by the level of p.
func (l *TaskList) priority(p task.Priority, text string) string {
	var c *color.Color
	switch p {
	case task.PriorityHigh:
		c = color.New(color.FgRed, color.Bold)
	case task.PriorityMedium:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgHiBlack)
	}
	if l.colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}
