// Package auth adapts the external login API to the application's User.
package auth

import (
	"context"
	"strings"

	"github.com/kazz187/taskforge/pkg/cerr"
)

// ExternalUser is the payload the login endpoint returns.
type ExternalUser struct {
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	TokenValue string `json:"token_value"`
}

type ExternalLogin interface {
	Login(ctx context.Context, username, password string) (*ExternalUser, error)
}

// User is the signed-in user as the rest of the app sees it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type Adapter struct {
	external ExternalLogin
}

func NewAdapter(external ExternalLogin) *Adapter {
	return &Adapter{external: external}
}

func (a *Adapter) Login(ctx context.Context, username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "username and password are required", nil)
	}
	ext, err := a.external.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if ext == nil || ext.UserID == "" || ext.TokenValue == "" {
		return nil, cerr.NewError(cerr.Unauthenticated, "login returned no session", nil)
	}
	return &User{
		ID:    ext.UserID,
		Name:  ext.UserName,
		Token: ext.TokenValue,
	}, nil
}
