// Package taskservice talks to the remote task API.
package taskservice

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

// Doer is the part of apiclient.Client the service uses.
type Doer interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, in, out any) error
	Delete(ctx context.Context, endpoint string) error
}

type Service struct {
	api Doer
}

func New(api Doer) *Service {
	return &Service{api: api}
}

// FetchTasks returns every task the server knows about, in server order.
func (s *Service) FetchTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	if err := s.api.Get(ctx, "tasks", &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// CreateTask stores d and returns it with the server assigned ID.
func (s *Service) CreateTask(ctx context.Context, d task.Draft) (task.Task, error) {
	var created task.Task
	if err := s.api.Post(ctx, "tasks", d, &created); err != nil {
		return task.Task{}, err
	}
	if created.ID == "" {
		return task.Task{}, cerr.NewError(cerr.DataLoss, "server returned a task without id", nil)
	}
	return created, nil
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return cerr.NewError(cerr.InvalidArgument, "task id is required", nil)
	}
	return s.api.Delete(ctx, fmt.Sprintf("tasks/%s", url.PathEscape(id)))
}
