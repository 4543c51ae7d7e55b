package view

import (
	"context"
	"fmt"
	"io"

	"github.com/kazz187/taskforge/internal/command"
)

// HistoryStatus shows whether undo and redo are available and what they
// would do.
type HistoryStatus struct {
	manager *command.Manager
}

func NewHistoryStatus(m *command.Manager) *HistoryStatus {
	return &HistoryStatus{manager: m}
}

func (h *HistoryStatus) Name() string { return "HistoryStatus" }

func (h *HistoryStatus) Render(_ context.Context, w io.Writer) error {
	_, err := fmt.Fprintf(w, "undo: %s | redo: %s\n",
		describe(h.manager.CanUndo(), h.manager.UndoCount(), h.manager.UndoDescription()),
		describe(h.manager.CanRedo(), h.manager.RedoCount(), h.manager.RedoDescription()),
	)
	return err
}

func describe(ok bool, n int, desc string) string {
	if !ok {
		return "none"
	}
	if desc == "" {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d (%s)", n, desc)
}
