package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/pkg/cerr"
)

type echo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   string `json:"auth"`
	Body   string `json:"body"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(echo{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   in["value"],
		})
	})
	mux.HandleFunc("/api/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/conflict", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(cerr.Body{Code: "AlreadyExists", Message: "task exists", Details: []string{"id"}})
	})
	mux.HandleFunc("/api/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetPostDelete(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL+"/api/", WithToken("secret"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/api", c.BaseURL())

	var got echo
	require.NoError(t, c.Get(context.Background(), "echo", &got))
	assert.Equal(t, echo{Method: http.MethodGet, Path: "/api/echo", Auth: "Bearer secret"}, got)

	c.SetToken("")
	require.NoError(t, c.Post(context.Background(), "/echo", map[string]string{"value": "hi"}, &got))
	assert.Equal(t, echo{Method: http.MethodPost, Path: "/api/echo", Body: "hi"}, got)

	require.NoError(t, c.Delete(context.Background(), "gone"))
}

func TestClient_StatusErrors(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL + "/api")
	require.NoError(t, err)

	err = c.Get(context.Background(), "conflict", nil)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "task exists", ce.Msg)
	assert.Equal(t, []string{"id"}, ce.Details)
	assert.False(t, IsNetworkError(err))

	err = c.Get(context.Background(), "missing", nil)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestClient_NetworkError(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL+"/api", WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, IsNetworkError(c.Get(context.Background(), "slow", nil)))

	srv.Close()
	assert.True(t, IsNetworkError(c.Get(context.Background(), "echo", nil)))
}

func TestCodeFromStatus(t *testing.T) {
	for status, want := range map[int]cerr.Code{
		http.StatusBadRequest:          cerr.InvalidArgument,
		http.StatusUnauthorized:        cerr.Unauthenticated,
		http.StatusNotFound:            cerr.NotFound,
		http.StatusConflict:            cerr.AlreadyExists,
		http.StatusInternalServerError: cerr.Unavailable,
		http.StatusTeapot:              cerr.Unavailable,
	} {
		assert.Equal(t, want, codeFromStatus(status), status)
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	c, err := New("http://example.com/api")
	require.NoError(t, err)
	err = c.Get(context.Background(), "http://evil.example.com/x", nil)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}
