package auth

import "context"

// Poster is the part of apiclient.Client the HTTP login needs.
type Poster interface {
	Post(ctx context.Context, endpoint string, in, out any) error
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HTTPExternalLogin posts credentials to the "login" endpoint.
type HTTPExternalLogin struct {
	api Poster
}

func NewHTTPExternalLogin(api Poster) *HTTPExternalLogin {
	return &HTTPExternalLogin{api: api}
}

func (l *HTTPExternalLogin) Login(ctx context.Context, username, password string) (*ExternalUser, error) {
	var out ExternalUser
	if err := l.api.Post(ctx, "login", Credentials{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
