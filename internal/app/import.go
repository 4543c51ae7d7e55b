package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/taskforge/internal/board"
	"github.com/kazz187/taskforge/internal/command"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/form"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

// ImportTasks creates every draft remotely and adds them to the board as a
// single history entry, so one Undo removes the whole import.
//
// All drafts are validated before anything is sent. If any creation fails, or
// the board rejects the result, the board is left unchanged and, when the
// service can delete, the tasks that were created are removed again.
func (a *App) ImportTasks(ctx context.Context, drafts []form.TaskFormData) ([]task.Task, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	var details []string
	for i, d := range drafts {
		if err := form.Validate(d); err != nil {
			var ce *cerr.Error
			if errors.As(err, &ce) {
				for _, msg := range ce.Details {
					details = append(details, fmt.Sprintf("#%d %s", i+1, msg))
				}
			}
		}
	}
	if len(details) > 0 {
		return nil, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, details)
	}

	created := make([]task.Task, len(drafts))
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(a.importConcurrency)
	for i, d := range drafts {
		p.Go(func(ctx context.Context) error {
			t, err := a.tasks.CreateTask(ctx, d)
			if err != nil {
				return err
			}
			created[i] = t
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		a.compensate(ctx, created)
		return nil, err
	}

	tasks := make([]task.Task, len(created))
	cmds := make([]command.Command, len(created))
	for i, c := range created {
		tasks[i] = task.FromDraft(c.Draft()).SetID(c.ID).Build()
		cmds[i] = board.NewAddTask(a.board, tasks[i])
	}
	if err := a.manager.ExecuteCommand(board.NewBatch(cmds...)); err != nil {
		a.compensate(ctx, created)
		return nil, err
	}
	for _, t := range tasks {
		a.publishTask(eventbus.TaskAdded, t)
	}
	slog.InfoContext(ctx, "tasks imported", "count", len(tasks))
	return tasks, nil
}

func (a *App) compensate(ctx context.Context, created []task.Task) {
	del, ok := a.tasks.(TaskDeleter)
	if !ok {
		return
	}
	// The import context may already be canceled.
	ctx = context.WithoutCancel(ctx)
	for _, t := range created {
		if t.ID == "" {
			continue
		}
		if err := del.DeleteTask(ctx, t.ID); err != nil {
			slog.WarnContext(ctx, "failed to remove partially imported task", "task.id", t.ID, "error", err)
		}
	}
}
