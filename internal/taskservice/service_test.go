package taskservice

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/apiclient"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/stubserver"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/internal/task/repositoryimpl"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ts := httptest.NewServer(stubserver.NewServer(&config.StubEnv{}, repositoryimpl.NewYAMLRepository(store)).Handler())
	t.Cleanup(ts.Close)

	client, err := apiclient.New(ts.URL + "/api")
	require.NoError(t, err)
	return New(client)
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	tasks, err := svc.FetchTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	first, err := svc.CreateTask(ctx, task.Draft{Title: "Write docs", Priority: task.PriorityHigh})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Write docs", first.Title)

	second, err := svc.CreateTask(ctx, task.Draft{Title: "Ship"})
	require.NoError(t, err)

	tasks, err = svc.FetchTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []task.Task{first, second}, tasks)

	require.NoError(t, svc.DeleteTask(ctx, first.ID))
	tasks, err = svc.FetchTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []task.Task{second}, tasks)

	assert.True(t, cerr.IsCode(svc.DeleteTask(ctx, first.ID), cerr.NotFound))
	assert.True(t, cerr.IsCode(svc.DeleteTask(ctx, ""), cerr.InvalidArgument))
}

func TestService_CreateRejected(t *testing.T) {
	svc := newService(t)
	_, err := svc.CreateTask(context.Background(), task.Draft{Title: " "})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

type noIDDoer struct{}

func (noIDDoer) Get(context.Context, string, any) error { return nil }
func (noIDDoer) Post(_ context.Context, _ string, _, out any) error {
	*(out.(*task.Task)) = task.Task{Title: "x"}
	return nil
}
func (noIDDoer) Delete(context.Context, string) error { return nil }

func TestService_MissingIDAndNilList(t *testing.T) {
	svc := New(noIDDoer{})
	_, err := svc.CreateTask(context.Background(), task.Draft{Title: "x"})
	assert.True(t, cerr.IsCode(err, cerr.DataLoss))

	tasks, err := svc.FetchTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
}
