package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/apperr"
)

// Session is a signed-in user session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// User is an account as returned by GoTrue.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// GoTrue talks to the Supabase auth server over HTTP.
type GoTrue struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
}

// NewGoTrue creates a new GoTrue client. serviceRoleKey may be empty, in
// which case SignUp is unavailable.
func NewGoTrue(baseURL, anonKey, serviceRoleKey string, timeout time.Duration) *GoTrue {
	return &GoTrue{
		baseURL:        strings.TrimRight(baseURL, "/"),
		anonKey:        anonKey,
		serviceRoleKey: serviceRoleKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges an email and password for a session.
func (g *GoTrue) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", g.anonKey, g.anonKey, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignUp creates a confirmed account through the admin API.
func (g *GoTrue) SignUp(ctx context.Context, email, password, name string) (*User, error) {
	if g.serviceRoleKey == "" {
		return nil, apperr.Unavailable("sign up is not available", nil)
	}

	var u User
	body := map[string]any{
		"email":         email,
		"password":      password,
		"user_metadata": map[string]string{"name": name},
		"email_confirm": true,
	}
	if err := g.do(ctx, http.MethodPost, "/auth/v1/admin/users", g.serviceRoleKey, g.serviceRoleKey, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetPassword sends a password recovery email.
func (g *GoTrue) ResetPassword(ctx context.Context, email string) error {
	return g.do(ctx, http.MethodPost, "/auth/v1/recover", g.anonKey, g.anonKey, map[string]string{"email": email}, nil)
}

// UpdateEmail changes the email of the token's user.
func (g *GoTrue) UpdateEmail(ctx context.Context, token, email string) (*User, error) {
	return g.updateUser(ctx, token, map[string]string{"email": email})
}

// UpdatePassword changes the password of the token's user.
func (g *GoTrue) UpdatePassword(ctx context.Context, token, password string) (*User, error) {
	return g.updateUser(ctx, token, map[string]string{"password": password})
}

func (g *GoTrue) updateUser(ctx context.Context, token string, body map[string]string) (*User, error) {
	var u User
	if err := g.do(ctx, http.MethodPut, "/auth/v1/user", g.anonKey, token, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorBody) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (g *GoTrue) do(ctx context.Context, method, path, apiKey, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal("encode auth request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return apperr.Internal("create auth request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperr.Unavailable("auth service unavailable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.Unavailable("auth service unavailable", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Unavailable("auth service returned an invalid response", err)
	}
	return nil
}

func statusError(status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	msg := eb.text()

	switch {
	case status >= http.StatusInternalServerError:
		return apperr.Unavailable("auth service unavailable", fmt.Errorf("status %d: %s", status, msg))
	case status == http.StatusUnauthorized || status == http.StatusForbidden || eb.Error == "invalid_grant":
		if msg == "" {
			msg = "unauthorized"
		}
		return apperr.Unauthorized(msg)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperr.Invalid(msg)
}
