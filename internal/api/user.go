package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/mcoot/clickpot/internal/model"
)

// LoginRequest is the body of the login call
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

// RegisterRequest is the body of the register call
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login, register and refresh
type AuthResponse struct {
	Token             string `json:"token"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

var errNoToken = errors.New("response carried no token")

func (r *AuthResponse) validate() error {
	if r.Token == "" {
		return errNoToken
	}
	return nil
}

// Login exchanges credentials for an access token. The service also sets
// the reuse cookie used by Refresh.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(ctx, "/api/user/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, resp.validate()
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(ctx, "/api/user/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, resp.validate()
}

// Refresh obtains a new access token using the reuse cookie
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var resp AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/api/user/refresh", nil, &resp, withoutBearer()); err != nil {
		return "", err
	}
	if err := resp.validate(); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Profile fetches the signed-in user's profile
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := c.Get(ctx, "/api/user/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ChangeLanguage stores the language preference on the account
func (c *Client) ChangeLanguage(ctx context.Context, language string) error {
	return c.Put(ctx, "/api/user/change-language", map[string]string{"language": language}, nil)
}

// DeleteAccount removes the signed-in account
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.Delete(ctx, "/api/user/delete-account", nil)
}
