// Package command keeps the undo/redo history for reversible state changes.
//
// A Command owns both directions of a mutation. Manager tracks which commands
// are currently applied (history) and which were rolled back and may be
// reapplied (undone). A newly executed command invalidates everything in
// undone because the timeline has diverged.
package command

import (
	"slices"
	"sync"
)

// Command is a reversible state change. Execute may be called again after
// Undo (redo), so implementations capture whatever Undo needs on every call.
type Command interface {
	Execute() error
	Undo() error
}

// Describer is implemented by commands that can label themselves for UI.
type Describer interface {
	Description() string
}

// Describe returns cmd's description, or an empty string when cmd does not
// implement Describer.
func Describe(cmd Command) string {
	if d, ok := cmd.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Manager records executed commands so they can be undone and redone.
// Commands run while the manager lock is held; a command must not call back
// into the manager that runs it.
type Manager struct {
	mu      sync.Mutex
	history []Command
	undone  []Command
}

func NewManager() *Manager {
	return &Manager{}
}

// ExecuteCommand runs cmd and records it. A failing command is not recorded
// and leaves both stacks as they were; its error is returned unchanged.
func (m *Manager) ExecuteCommand(cmd Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := cmd.Execute(); err != nil {
		return err
	}
	m.history = append(m.history, cmd)
	m.undone = nil
	return nil
}

// Undo reverts the most recent command. With nothing to undo it does nothing.
func (m *Manager) Undo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.history)
	if n == 0 {
		return nil
	}
	cmd := m.history[n-1]
	if err := cmd.Undo(); err != nil {
		return err
	}
	m.history[n-1] = nil
	m.history = m.history[:n-1]
	m.undone = append(m.undone, cmd)
	return nil
}

// Redo re-executes the most recently undone command. With nothing to redo it
// does nothing.
func (m *Manager) Redo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.undone)
	if n == 0 {
		return nil
	}
	cmd := m.undone[n-1]
	if err := cmd.Execute(); err != nil {
		return err
	}
	m.undone[n-1] = nil
	m.undone = m.undone[:n-1]
	m.history = append(m.history, cmd)
	return nil
}

func (m *Manager) CanUndo() bool {
	return m.UndoCount() > 0
}

func (m *Manager) CanRedo() bool {
	return m.RedoCount() > 0
}

func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undone)
}

// UndoDescription describes the command Undo would revert.
func (m *Manager) UndoDescription() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return ""
	}
	return Describe(m.history[len(m.history)-1])
}

// RedoDescription describes the command Redo would re-execute.
func (m *Manager) RedoDescription() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undone) == 0 {
		return ""
	}
	return Describe(m.undone[len(m.undone)-1])
}

// History returns the applied commands, oldest first.
func (m *Manager) History() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Undone returns the redoable commands; the last element is redone first.
func (m *Manager) Undone() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.undone)
}

// Clear forgets both stacks without touching any state the commands changed.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	m.undone = nil
}
