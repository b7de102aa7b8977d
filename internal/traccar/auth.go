package traccar

import (
	"context"
	"net/http"
)

// AuthService handles sign-in against a Traccar server through the proxy.
type AuthService service

type loginRequest struct {
	TraccarURL string `json:"traccar_url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// Login exchanges credentials for a session token. The whole response body is returned;
// the caller is expected to pass Token and User to the session store.
func (s *AuthService) Login(ctx context.Context, traccarURL, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := s.client.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{TraccarURL: traccarURL, Username: username, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
