package stubserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskforge/internal/auth"
	"github.com/kazz187/taskforge/internal/form"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/clog"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	out := make([]task.Task, 0, len(all))
	for _, t := range all {
		out = append(out, *t)
	}
	cerr.SetJSONResponse(ctx, out)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var d task.Draft
	if err := decodeBody(w, r, &d); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := form.Validate(d); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t := task.FromDraft(d).SetID(ulid.Make().String()).Build()
	if err := s.repo.Create(ctx, &t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "task.id", t.ID)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "task.id", id)
}

// login accepts any non-empty user name and password. The user id is stable
// per name for the lifetime of the server; every login issues a new token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in auth.Credentials
	if err := decodeBody(w, r, &in); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	name := strings.TrimSpace(in.Username)
	if name == "" || in.Password == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "username and password are required", nil)
		return
	}

	token := ulid.Make().String()
	s.mu.Lock()
	userID, ok := s.users[name]
	if !ok {
		userID = ulid.Make().String()
		s.users[name] = userID
	}
	s.sessions[token] = userID
	s.mu.Unlock()

	clog.AddUser(ctx, userID)
	cerr.SetJSONResponse(ctx, auth.ExternalUser{
		UserID:     userID,
		UserName:   name,
		TokenValue: token,
	})
}
