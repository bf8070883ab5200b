package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
)

// Client talks to a hosted GoTrue-style auth API. It is stateless: one
// instance serves the whole process.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func New(baseURL, anonKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" || anonKey == "" {
		return nil, errors.New("gotrue: base url and api key are required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type userResponse struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

func (u userResponse) identity() identity.Identity {
	return identity.Identity{
		ID:               u.ID,
		Email:            u.Email,
		Phone:            u.Phone,
		EmailConfirmedAt: u.EmailConfirmedAt,
		Metadata:         u.UserMetadata,
	}
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         userResponse `json:"user"`
}

func (s sessionResponse) session() *identity.Session {
	return &identity.Session{
		TokenPair: identity.TokenPair{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			TokenType:    s.TokenType,
			ExpiresIn:    s.ExpiresIn,
		},
		Identity: s.User.identity(),
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", payload, &out, ""); err != nil {
		return nil, err
	}
	return out.session(), nil
}

func (c *Client) RequestMagicLink(ctx context.Context, email, redirectTo string) error {
	payload := map[string]any{"email": email, "create_user": true}
	path := "/otp"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, payload, nil, "")
}

func (c *Client) RequestPasswordRecovery(ctx context.Context, email, redirectTo string) error {
	payload := map[string]string{"email": email}
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, payload, nil, "")
}

// ExchangeCode performs exactly one POST per call. The provider consumes
// the code regardless of outcome, so there is no retry at this layer and
// callers must not invoke it twice for the same code.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*identity.Session, error) {
	payload := map[string]string{"auth_code": code}
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=pkce", payload, &out, ""); err != nil {
		return nil, err
	}
	return out.session(), nil
}

// GetUser is idempotent, so transient transport failures are retried with
// a short exponential backoff. Provider rejections are permanent.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*identity.Identity, error) {
	var out userResponse
	op := func() error {
		err := c.do(ctx, http.MethodGet, "/user", nil, &out, accessToken)
		if err != nil && !identity.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 2 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	ident := out.identity()
	return &ident, nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	payload := map[string]string{"password": newPassword}
	return c.do(ctx, http.MethodPut, "/user", payload, nil, accessToken)
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, accessToken)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, bearer string) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gotrue: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("gotrue: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return identity.NewTransient(err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return decodeError(res)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("gotrue: decode response: %w", err)
		}
	}
	return nil
}

// errorResponse covers both error shapes the API emits: the newer
// {"code":..,"error_code":..,"msg":..} form and the OAuth-style
// {"error":..,"error_description":..} form.
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeError(res *http.Response) error {
	ae := &identity.AuthError{Status: res.StatusCode, Code: "unexpected_failure"}

	var body errorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil {
		switch {
		case body.ErrorCode != "":
			ae.Code = body.ErrorCode
			ae.Description = body.Msg
		case body.Error != "":
			ae.Code = body.Error
			ae.Description = body.ErrorDescription
		case body.Msg != "":
			ae.Description = body.Msg
		}
	}

	if res.StatusCode >= 500 {
		// The provider fell over, not the request. Treat like a network
		// failure so idempotent callers may retry.
		return identity.NewTransient(ae)
	}
	return ae
}
