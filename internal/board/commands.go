package board

import (
	"fmt"
	"strings"

	"github.com/kazz187/taskforge/internal/command"
	"github.com/kazz187/taskforge/internal/task"
)

// Kind tags the closed set of board commands.
type Kind string

const (
	KindAdd    Kind = "add"
	KindDelete Kind = "delete"
	KindUpdate Kind = "update"
	KindBatch  Kind = "batch"
)

// Command is a board edit that can be recorded by a command.Manager.
type Command interface {
	command.Command
	command.Describer
	Kind() Kind
}

var (
	_ Command = (*AddTask)(nil)
	_ Command = (*DeleteTask)(nil)
	_ Command = (*UpdateTask)(nil)
	_ Command = (*Batch)(nil)
)

// AddTask appends a task to the board.
type AddTask struct {
	board *Board
	task  task.Task
}

func NewAddTask(b *Board, t task.Task) *AddTask {
	return &AddTask{board: b, task: t}
}

func (c *AddTask) Execute() error {
	return c.board.Add(c.task)
}

func (c *AddTask) Undo() error {
	_, _, err := c.board.Remove(c.task.ID)
	return err
}

func (c *AddTask) Kind() Kind { return KindAdd }

func (c *AddTask) Task() task.Task { return c.task }

func (c *AddTask) Description() string {
	return fmt.Sprintf("Add task %q", c.task.Title)
}

// DeleteTask removes a task and puts it back at the same position on undo.
type DeleteTask struct {
	board   *Board
	id      string
	removed task.Task
	index   int
}

func NewDeleteTask(b *Board, id string) *DeleteTask {
	return &DeleteTask{board: b, id: id, index: -1}
}

func (c *DeleteTask) Execute() error {
	t, i, err := c.board.Remove(c.id)
	if err != nil {
		return err
	}
	c.removed, c.index = t, i
	return nil
}

func (c *DeleteTask) Undo() error {
	return c.board.Insert(c.index, c.removed)
}

func (c *DeleteTask) Kind() Kind { return KindDelete }

// Task returns the removed task. It is the zero Task until Execute succeeds.
func (c *DeleteTask) Task() task.Task { return c.removed }

func (c *DeleteTask) Description() string {
	if c.removed.ID == "" {
		return fmt.Sprintf("Delete task %s", c.id)
	}
	return fmt.Sprintf("Delete task %q", c.removed.Title)
}

// UpdateTask replaces a task by ID and restores the previous value on undo.
type UpdateTask struct {
	board *Board
	next  task.Task
	prev  task.Task
}

func NewUpdateTask(b *Board, next task.Task) *UpdateTask {
	return &UpdateTask{board: b, next: next}
}

func (c *UpdateTask) Execute() error {
	prev, err := c.board.Replace(c.next)
	if err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *UpdateTask) Undo() error {
	_, err := c.board.Replace(c.prev)
	return err
}

func (c *UpdateTask) Kind() Kind { return KindUpdate }

func (c *UpdateTask) Task() task.Task { return c.next }

// Previous returns the value replaced by the last Execute.
func (c *UpdateTask) Previous() task.Task { return c.prev }

func (c *UpdateTask) Description() string {
	return fmt.Sprintf("Update task %q", c.next.Title)
}

// Batch runs several commands as one history entry. Either every child
// applies or none does.
type Batch struct {
	children []command.Command
}

func NewBatch(cmds ...command.Command) *Batch {
	return &Batch{children: cmds}
}

func (c *Batch) Execute() error {
	for i, child := range c.children {
		if err := child.Execute(); err != nil {
			c.rollback(i)
			return err
		}
	}
	return nil
}

// rollback undoes the first n children in reverse. Rollback errors are
// dropped; the original failure is what the caller sees.
func (c *Batch) rollback(n int) {
	for i := n - 1; i >= 0; i-- {
		_ = c.children[i].Undo()
	}
}

func (c *Batch) Undo() error {
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(); err != nil {
			// Re-apply what was already undone so the batch stays whole.
			for j := i + 1; j < len(c.children); j++ {
				_ = c.children[j].Execute()
			}
			return err
		}
	}
	return nil
}

func (c *Batch) Kind() Kind { return KindBatch }

func (c *Batch) Len() int { return len(c.children) }

func (c *Batch) Children() []command.Command {
	out := make([]command.Command, len(c.children))
	copy(out, c.children)
	return out
}

func (c *Batch) Description() string {
	if len(c.children) == 1 {
		return command.Describe(c.children[0])
	}
	descs := make([]string, 0, len(c.children))
	for _, child := range c.children {
		if d := command.Describe(child); d != "" {
			descs = append(descs, d)
		}
	}
	if len(descs) > 3 {
		descs = append(descs[:3], "...")
	}
	return fmt.Sprintf("Batch of %d: %s", len(c.children), strings.Join(descs, ", "))
}
