// Package board holds the in-memory task list the client edits, together
// with the reversible commands that edit it.
package board

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

// Board is an ordered set of tasks keyed by ID.
type Board struct {
	mu    sync.RWMutex
	tasks []task.Task
}

func New(tasks ...task.Task) *Board {
	b := &Board{}
	b.Reset(tasks)
	return b
}

func (b *Board) indexOf(id string) int {
	return slices.IndexFunc(b.tasks, func(t task.Task) bool { return t.ID == id })
}

func (b *Board) Add(t task.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(len(b.tasks), t)
}

// Insert places t at index, clamped to the current bounds.
func (b *Board) Insert(index int, t task.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(index, t)
}

func (b *Board) insert(index int, t task.Task) error {
	if t.ID == "" {
		return cerr.NewError(cerr.InvalidArgument, "task id is required", nil)
	}
	if b.indexOf(t.ID) >= 0 {
		return cerr.NewError(cerr.AlreadyExists, fmt.Sprintf("task %s already on board", t.ID), nil)
	}
	index = max(0, min(index, len(b.tasks)))
	b.tasks = slices.Insert(b.tasks, index, t)
	return nil
}

// Remove deletes the task with id and reports where it was.
func (b *Board) Remove(id string) (task.Task, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		return task.Task{}, -1, notFound(id)
	}
	t := b.tasks[i]
	b.tasks = slices.Delete(b.tasks, i, i+1)
	return t, i, nil
}

// Replace swaps in t for the task with the same ID and returns the old value.
func (b *Board) Replace(t task.Task) (task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(t.ID)
	if i < 0 {
		return task.Task{}, notFound(t.ID)
	}
	prev := b.tasks[i]
	b.tasks[i] = t
	return prev, nil
}

func (b *Board) Get(id string) (task.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := b.indexOf(id)
	if i < 0 {
		return task.Task{}, false
	}
	return b.tasks[i], true
}

func (b *Board) Tasks() []task.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.tasks)
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tasks)
}

// Reset replaces the whole board. Later duplicates of an ID are dropped.
func (b *Board) Reset(tasks []task.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if b.indexOf(t.ID) >= 0 {
			continue
		}
		b.tasks = append(b.tasks, t)
	}
}

func notFound(id string) error {
	return cerr.NewError(cerr.NotFound, fmt.Sprintf("task %s not found", id), nil)
}
