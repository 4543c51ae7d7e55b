package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/auth"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/form"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

type fakeService struct {
	mu      sync.Mutex
	next    int
	stored  []task.Task
	failFor map[string]error
	deleted []string
}

func (f *fakeService) FetchTasks(context.Context) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]task.Task(nil), f.stored...), nil
}

func (f *fakeService) CreateTask(_ context.Context, d task.Draft) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[d.Title]; err != nil {
		return task.Task{}, err
	}
	f.next++
	t := task.FromDraft(d).SetID(fmt.Sprintf("t%d", f.next)).Build()
	f.stored = append(f.stored, t)
	return t, nil
}

func (f *fakeService) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, username, password string) (*auth.User, error) {
	if password != "pw" {
		return nil, cerr.NewError(cerr.Unauthenticated, "bad credentials", nil)
	}
	return &auth.User{ID: "u1", Name: username, Token: "tok"}, nil
}

type tokenRecorder struct{ token string }

func (r *tokenRecorder) SetToken(t string) { r.token = t }

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func nextEvent(t *testing.T, ch <-chan *eventbus.Event) *eventbus.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestApp_BootstrapAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{stored: []task.Task{task.NewBuilder().SetID("s1").SetTitle("seed").Build()}}
	tokens := &tokenRecorder{}
	a := New(svc, fakeAuth{}, WithTokenSetter(tokens))
	_, events := a.Bus().Subscribe(8)

	err := a.Bootstrap(ctx, "ana", "wrong")
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
	assert.Nil(t, a.User())

	require.NoError(t, a.Bootstrap(ctx, "ana", "pw"))
	assert.Equal(t, "tok", tokens.token)
	assert.Equal(t, "ana", a.User().Name)
	assert.Equal(t, []string{"s1"}, ids(a.Board().Tasks()))

	assert.Equal(t, eventbus.UserLoggedIn, nextEvent(t, events).Type)
	assert.Equal(t, eventbus.TasksRefreshed, nextEvent(t, events).Type)
}

func TestApp_AddUndoRedo(t *testing.T) {
	ctx := context.Background()
	a := New(&fakeService{}, fakeAuth{})
	_, events := a.Bus().Subscribe(8)

	added, err := a.AddTask(ctx, form.TaskFormData{Title: "Write docs", DueDate: "2024-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "t1", added.ID)
	assert.Equal(t, task.PriorityLow, added.Priority)
	assert.Equal(t, eventbus.TaskAdded, nextEvent(t, events).Type)

	ok, err := a.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, a.Board().Len())
	ev := nextEvent(t, events)
	assert.Equal(t, eventbus.HistoryUndone, ev.Type)
	assert.Equal(t, `Add task "Write docs"`, ev.Payload)

	ok, err = a.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.Redo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []task.Task{added}, a.Board().Tasks())
	assert.Equal(t, eventbus.HistoryRedone, nextEvent(t, events).Type)

	ok, err = a.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApp_AddTaskValidation(t *testing.T) {
	svc := &fakeService{}
	a := New(svc, fakeAuth{})
	_, err := a.AddTask(context.Background(), form.TaskFormData{Title: ""})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Empty(t, svc.stored, "nothing may reach the service")
	assert.False(t, a.Manager().CanUndo())
}

func TestApp_AddTaskServiceError(t *testing.T) {
	boom := cerr.NewError(cerr.Unavailable, "network error", errors.New("dial"))
	a := New(&fakeService{failFor: map[string]error{"x": boom}}, fakeAuth{})
	_, err := a.AddTask(context.Background(), form.TaskFormData{Title: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, a.Board().Len())
	assert.False(t, a.Manager().CanUndo())
}

func TestApp_DeleteAndPriority(t *testing.T) {
	ctx := context.Background()
	a := New(&fakeService{}, fakeAuth{})
	first, err := a.AddTask(ctx, form.TaskFormData{Title: "one"})
	require.NoError(t, err)
	second, err := a.AddTask(ctx, form.TaskFormData{Title: "two"})
	require.NoError(t, err)

	updated, err := a.SetPriority(ctx, second.ID, task.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, task.PriorityHigh, updated.Priority)

	_, err = a.SetPriority(ctx, second.ID, "urgent")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	_, err = a.SetPriority(ctx, "nope", task.PriorityHigh)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	removed, err := a.DeleteTask(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, removed)
	_, err = a.DeleteTask(ctx, first.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	sorted, err := a.Tasks(task.ByPriorityDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(sorted))

	_, err = a.Undo(ctx)
	require.NoError(t, err)
	_, err = a.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []task.Task{first, second}, a.Board().Tasks())
}

func TestApp_RefreshClearsHistory(t *testing.T) {
	ctx := context.Background()
	a := New(&fakeService{}, fakeAuth{})
	_, err := a.AddTask(ctx, form.TaskFormData{Title: "one"})
	require.NoError(t, err)
	require.True(t, a.Manager().CanUndo())

	require.NoError(t, a.Refresh(ctx))
	assert.False(t, a.Manager().CanUndo())
	assert.Equal(t, 1, a.Board().Len())
}

func TestApp_ImportTasks(t *testing.T) {
	ctx := context.Background()
	a := New(&fakeService{}, fakeAuth{}, WithImportConcurrency(2))
	require.NoError(t, a.Board().Add(task.NewBuilder().SetID("keep").SetTitle("keep").Build()))

	drafts := []form.TaskFormData{{Title: "a"}, {Title: "b", Priority: task.PriorityHigh}, {Title: "c"}}
	imported, err := a.ImportTasks(ctx, drafts)
	require.NoError(t, err)
	require.Len(t, imported, 3)
	for i, d := range drafts {
		assert.Equal(t, d.Title, imported[i].Title)
	}
	assert.Equal(t, 4, a.Board().Len())
	assert.Equal(t, 1, a.Manager().UndoCount())

	_, err = a.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids(a.Board().Tasks()))
}

func TestApp_ImportTasksValidation(t *testing.T) {
	svc := &fakeService{}
	a := New(svc, fakeAuth{})
	_, err := a.ImportTasks(context.Background(), []form.TaskFormData{{Title: "ok"}, {Title: "", DueDate: "later"}})

	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.InvalidArgument, ce.Code)
	assert.Equal(t, []string{"#2 title: must not be empty", `#2 dueDate: "later" is not a date`}, ce.Details)
	assert.Empty(t, svc.stored)
}

func TestApp_ImportTasksPartialFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{failFor: map[string]error{"bad": boom}}
	a := New(svc, fakeAuth{}, WithImportConcurrency(1))

	_, err := a.ImportTasks(context.Background(), []form.TaskFormData{{Title: "good"}, {Title: "bad"}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, a.Board().Len())
	assert.False(t, a.Manager().CanUndo())
	assert.Equal(t, []string{"t1"}, svc.deleted)
}

func TestApp_AddTaskRejectedByBoard(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{stored: []task.Task{task.NewBuilder().SetID("t1").SetTitle("seed").Build()}}
	a := New(svc, fakeAuth{})
	require.NoError(t, a.Refresh(ctx))

	// The service hands out an ID the board already holds.
	_, err := a.AddTask(ctx, form.TaskFormData{Title: "dup"})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
	assert.Equal(t, []string{"t1"}, ids(a.Board().Tasks()))
	assert.Equal(t, "seed", a.Board().Tasks()[0].Title)
	assert.False(t, a.Manager().CanUndo())
	assert.Equal(t, []string{"t1"}, svc.deleted)
}

func TestApp_ImportTasksRejectedByBoard(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{stored: []task.Task{task.NewBuilder().SetID("t2").SetTitle("seed").Build()}}
	a := New(svc, fakeAuth{}, WithImportConcurrency(1))
	require.NoError(t, a.Refresh(ctx))

	_, err := a.ImportTasks(ctx, []form.TaskFormData{{Title: "one"}, {Title: "two"}})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
	assert.Equal(t, []string{"t2"}, ids(a.Board().Tasks()))
	assert.False(t, a.Manager().CanUndo())
	assert.ElementsMatch(t, []string{"t1", "t2"}, svc.deleted)
}
