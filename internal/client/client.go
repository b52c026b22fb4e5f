// Package client talks to a PokéStock server over its JSON API. A Client
// with a token implements inventory.Remote.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/inventory"
	"github.com/erazemk/pokestock/internal/model"
)

// APIError is a non-success response the client has no sentinel for.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client is an API client. Token is sent as a bearer token when set.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ inventory.Remote = (*Client)(nil)

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// do sends a request and decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError maps an error response to the model's sentinel errors.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized && body.Error == "session expired",
		resp.StatusCode == http.StatusUnauthorized && strings.Contains(body.Error, "authorization header"):
		return model.ErrSessionExpired
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && body.Field != "":
		reason := strings.TrimSpace(strings.TrimPrefix(body.Error, body.Field))
		return &model.ValidationError{Field: body.Field, Reason: reason}
	}
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SignInWithPassword signs in and stores the session token on the client.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	var resp tokenResponse
	if err := c.do(ctx, "POST", "/api/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// SignInWithOTP asks the server to send a sign-in link to email.
func (c *Client) SignInWithOTP(ctx context.Context, email string) error {
	return c.do(ctx, "POST", "/api/auth/otp", map[string]string{"email": email}, nil)
}

// VerifyOTP exchanges a sign-in link token for a session token.
func (c *Client) VerifyOTP(ctx context.Context, token string) error {
	var resp tokenResponse
	if err := c.do(ctx, "POST", "/api/auth/otp/verify", map[string]string{"token": token}, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// Session returns the current session, or model.ErrSessionExpired.
func (c *Client) Session(ctx context.Context) (*auth.Session, error) {
	var s auth.Session
	if err := c.do(ctx, "GET", "/api/auth/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignOut revokes the session token and forgets it.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, "POST", "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// ChangePassword sets a new password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, "PUT", "/api/auth/password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}

// Preferences returns the signed-in user's preferences.
func (c *Client) Preferences(ctx context.Context) (model.Preferences, error) {
	var p model.Preferences
	err := c.do(ctx, "GET", "/api/profile", nil, &p)
	return p, err
}

// SetTheme saves the user's theme.
func (c *Client) SetTheme(ctx context.Context, theme string) error {
	return c.do(ctx, "PUT", "/api/profile", model.Preferences{Theme: theme}, nil)
}

// Dashboard is the server's summary for a date range.
type Dashboard struct {
	Range inventory.Range `json:"range"`
	inventory.Summary
}

// Dashboard returns collection statistics for r.
func (c *Client) Dashboard(ctx context.Context, r inventory.Range) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, "GET", "/api/dashboard?range="+url.QueryEscape(string(r)), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Query returns the user's cards created at or after since (all when zero).
func (c *Client) Query(ctx context.Context, since time.Time) ([]model.Card, error) {
	path := "/api/cards"
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	var cards []model.Card
	if err := c.do(ctx, "GET", path, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Insert creates a card.
func (c *Client) Insert(ctx context.Context, in model.CardInput) (*model.Card, error) {
	var card model.Card
	if err := c.do(ctx, "POST", "/api/cards", in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Update replaces a card's mutable fields.
func (c *Client) Update(ctx context.Context, id int64, in model.CardInput) (*model.Card, error) {
	var card model.Card
	if err := c.do(ctx, "PUT", fmt.Sprintf("/api/cards/%d", id), in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Delete removes a card.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/api/cards/%d", id), nil, nil)
}
