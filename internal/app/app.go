// Package app wires the task board, the command history and the remote
// services into the operations the front end offers.
//
// Every network call resolves before a command is built, so the command
// history only ever holds local, synchronous board edits.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kazz187/taskforge/internal/auth"
	"github.com/kazz187/taskforge/internal/board"
	"github.com/kazz187/taskforge/internal/command"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/form"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/clog"
)

type TaskService interface {
	FetchTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, d task.Draft) (task.Task, error)
}

// TaskDeleter is optionally implemented by a TaskService. ImportTasks uses it
// to remove tasks it created before a later creation failed.
type TaskDeleter interface {
	DeleteTask(ctx context.Context, id string) error
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.User, error)
}

// TokenSetter receives the session token after a successful login.
type TokenSetter interface {
	SetToken(token string)
}

type App struct {
	tasks    TaskService
	authn    Authenticator
	tokens   TokenSetter
	bus      *eventbus.Bus
	registry *task.Registry
	board    *board.Board
	manager  *command.Manager

	importConcurrency int

	mu   sync.RWMutex
	user *auth.User
}

type Option func(*App)

func WithTokenSetter(ts TokenSetter) Option {
	return func(a *App) {
		a.tokens = ts
	}
}

func WithBus(b *eventbus.Bus) Option {
	return func(a *App) {
		a.bus = b
	}
}

func WithRegistry(r *task.Registry) Option {
	return func(a *App) {
		a.registry = r
	}
}

// WithImportConcurrency bounds the parallel creations of ImportTasks.
func WithImportConcurrency(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.importConcurrency = n
		}
	}
}

func New(tasks TaskService, authn Authenticator, opts ...Option) *App {
	a := &App{
		tasks:             tasks,
		authn:             authn,
		board:             board.New(),
		manager:           command.NewManager(),
		importConcurrency: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.bus == nil {
		a.bus = eventbus.New()
	}
	if a.registry == nil {
		a.registry = task.NewRegistry()
	}
	return a
}

func (a *App) Board() *board.Board       { return a.board }
func (a *App) Manager() *command.Manager { return a.manager }
func (a *App) Registry() *task.Registry  { return a.registry }
func (a *App) Bus() *eventbus.Bus        { return a.bus }

// User returns the signed-in user, or nil.
func (a *App) User() *auth.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// Bootstrap logs in when credentials are given and then loads the board.
func (a *App) Bootstrap(ctx context.Context, username, password string) error {
	if username != "" || password != "" {
		if _, err := a.Login(ctx, username, password); err != nil {
			return err
		}
	}
	return a.Refresh(ctx)
}

func (a *App) Login(ctx context.Context, username, password string) (*auth.User, error) {
	u, err := a.authn.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if a.tokens != nil {
		a.tokens.SetToken(u.Token)
	}
	a.mu.Lock()
	a.user = u
	a.mu.Unlock()

	clog.AddUser(ctx, u.ID)
	slog.InfoContext(ctx, "logged in", "user.name", u.Name)
	a.bus.PublishNew(eventbus.UserLoggedIn, u.ID, "", map[string]string{"name": u.Name})
	return u, nil
}

// Refresh replaces the board with the server's tasks. The command history
// is cleared because its commands refer to the replaced board.
func (a *App) Refresh(ctx context.Context) error {
	tasks, err := a.tasks.FetchTasks(ctx)
	if err != nil {
		return err
	}
	a.board.Reset(tasks)
	a.manager.Clear()
	slog.DebugContext(ctx, "tasks refreshed", "count", len(tasks))
	a.bus.PublishNew(eventbus.TasksRefreshed, "", "", map[string]string{"count": fmt.Sprint(len(tasks))})
	return nil
}

// AddTask validates d, creates it remotely and records the local addition
// so it can be undone. A remote task the board refuses is deleted again.
func (a *App) AddTask(ctx context.Context, d form.TaskFormData) (task.Task, error) {
	if err := form.Validate(d); err != nil {
		return task.Task{}, err
	}
	created, err := a.tasks.CreateTask(ctx, d)
	if err != nil {
		return task.Task{}, err
	}
	t := task.FromDraft(created.Draft()).SetID(created.ID).Build()
	if err := a.manager.ExecuteCommand(board.NewAddTask(a.board, t)); err != nil {
		a.compensate(ctx, []task.Task{created})
		return task.Task{}, err
	}
	a.publishTask(eventbus.TaskAdded, t)
	return t, nil
}

// DeleteTask removes a task from the board. Undo puts it back in place.
func (a *App) DeleteTask(ctx context.Context, id string) (task.Task, error) {
	cmd := board.NewDeleteTask(a.board, id)
	if err := a.manager.ExecuteCommand(cmd); err != nil {
		return task.Task{}, err
	}
	slog.DebugContext(ctx, "task deleted", "task.id", id)
	a.publishTask(eventbus.TaskDeleted, cmd.Task())
	return cmd.Task(), nil
}

// SetPriority changes one task's priority as an undoable update.
func (a *App) SetPriority(ctx context.Context, id string, p task.Priority) (task.Task, error) {
	if !p.Valid() {
		return task.Task{}, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown priority %q", p), nil)
	}
	cur, ok := a.board.Get(id)
	if !ok {
		return task.Task{}, cerr.NewError(cerr.NotFound, fmt.Sprintf("task %s not found", id), nil)
	}
	next := task.FromDraft(cur.Draft()).SetID(cur.ID).SetPriority(p).Build()
	if err := a.manager.ExecuteCommand(board.NewUpdateTask(a.board, next)); err != nil {
		return task.Task{}, err
	}
	slog.DebugContext(ctx, "task priority changed", "task.id", id, "priority", p)
	a.publishTask(eventbus.TaskUpdated, next)
	return next, nil
}

// Undo reverts the latest edit. It reports whether anything was undone.
func (a *App) Undo(ctx context.Context) (bool, error) {
	desc := a.manager.UndoDescription()
	before := a.manager.UndoCount()
	if err := a.manager.Undo(); err != nil {
		return false, err
	}
	if a.manager.UndoCount() == before {
		return false, nil
	}
	slog.DebugContext(ctx, "undone", "command", desc)
	a.bus.PublishNew(eventbus.HistoryUndone, "", desc, nil)
	return true, nil
}

// Redo re-applies the latest undone edit. It reports whether anything was
// redone.
func (a *App) Redo(ctx context.Context) (bool, error) {
	desc := a.manager.RedoDescription()
	before := a.manager.RedoCount()
	if err := a.manager.Redo(); err != nil {
		return false, err
	}
	if a.manager.RedoCount() == before {
		return false, nil
	}
	slog.DebugContext(ctx, "redone", "command", desc)
	a.bus.PublishNew(eventbus.HistoryRedone, "", desc, nil)
	return true, nil
}

// Tasks returns the board ordered by key.
func (a *App) Tasks(key task.SortKey) ([]task.Task, error) {
	return a.registry.Sort(key, a.board.Tasks())
}

func (a *App) publishTask(typ eventbus.EventType, t task.Task) {
	payload, err := json.Marshal(t)
	if err != nil {
		slog.Warn("failed to encode event payload", "error", err)
	}
	a.bus.PublishNew(typ, t.ID, string(payload), nil)
}
