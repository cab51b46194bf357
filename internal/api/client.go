// Package api is the typed HTTP client for the chat backend contract:
// account registration and login, response generation, history retrieval,
// history clearing and message rating.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/industrialchat/chatclient/internal/model/chat"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 5 * 1024 * 1024

// A TokenSource yields the bearer token for authenticated requests.
// Returning "" omits the Authorization header entirely; a missing token
// must never break request construction.
type TokenSource func() string

// Config carries the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   TokenSource
}

// Client talks to one backend instance.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New builds a client for the given base URL. Timeout zero means the
// default of 60 seconds; it bounds every request including generation.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &bearerRoundTripper{inner: http.DefaultTransport, token: cfg.Token},
		},
	}, nil
}

// bearerRoundTripper injects the Authorization header on every outbound
// request when a token is available.
type bearerRoundTripper struct {
	inner http.RoundTripper
	token TokenSource
}

func (b *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token != nil {
		if tok := b.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return b.inner.RoundTrip(req)
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries what the client persists for later calls.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// GenerateRequest is the body of POST /chat/generate. ChatID is empty for
// the first exchange of a new session.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id,omitempty"`
}

// GenerateResponse carries the assistant reply. Response arrives either as
// a plain string or wrapped one level; which id fields are populated varies
// by backend version.
type GenerateResponse struct {
	Response  chat.TextPayload `json:"response"`
	ChatID    string           `json:"chat_id"`
	ID        string           `json:"id"`
	MessageID string           `json:"message_id"`
}

// DurableID resolves the id to rate the reply by.
func (r GenerateResponse) DurableID() string {
	if r.MessageID != "" {
		return r.MessageID
	}
	if r.ChatID != "" {
		return r.ChatID
	}
	return r.ID
}

// ChatLocator resolves the id of the persisted chat the reply landed in.
func (r GenerateResponse) ChatLocator() string {
	if r.ChatID != "" {
		return r.ChatID
	}
	return r.ID
}

// Register creates an account. Server rejections come back as *HTTPError
// with the payload verbatim.
func (c *Client) Register(ctx context.Context, body RegisterRequest) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/auth/register", nil, body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Login authenticates and returns the token and user id to persist.
func (c *Client) Login(ctx context.Context, body LoginRequest) (LoginResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		return LoginResponse{}, err
	}

	var out LoginResponse
	if err := c.do(req, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

// Generate asks the backend for the assistant's reply to a prompt.
func (c *Client) Generate(ctx context.Context, body GenerateRequest) (GenerateResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/chat/generate", nil, body)
	if err != nil {
		return GenerateResponse{}, err
	}

	var out GenerateResponse
	if err := c.do(req, &out); err != nil {
		return GenerateResponse{}, err
	}
	return out, nil
}

// History fetches the user's persisted chats bucketed by recency.
func (c *Client) History(ctx context.Context, userID string) (chat.HistoryPayload, error) {
	query := url.Values{"user_id": {userID}}
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/history", query, nil)
	if err != nil {
		return chat.HistoryPayload{}, err
	}

	var out struct {
		History chat.HistoryPayload `json:"history"`
	}
	if err := c.do(req, &out); err != nil {
		return chat.HistoryPayload{}, err
	}
	return out.History, nil
}

// Clear deletes the user's persisted history.
func (c *Client) Clear(ctx context.Context, userID string) error {
	query := url.Values{"user_id": {userID}}
	req, err := c.newRequest(ctx, http.MethodDelete, "/chat/clear", query, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Rate attaches a +1/-1 judgment to a previously delivered message.
func (c *Client) Rate(ctx context.Context, messageID string, rating int) error {
	body := struct {
		MessageID string `json:"message_id"`
		Rating    int    `json:"rating"`
	}{MessageID: messageID, Rating: rating}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/chat/rate", nil, body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// newRequest joins relPath onto the base URL. relPath must not carry a
// query string of its own; path.Join would mangle it.
func (c *Client) newRequest(ctx context.Context, method, relPath string, query url.Values, body io.Reader) (*http.Request, error) {
	if strings.Contains(relPath, "?") {
		return nil, fmt.Errorf("relPath must not contain a query string: %s", relPath)
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, relPath)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return http.NewRequestWithContext(ctx, method, u.String(), body)
}

func (c *Client) newJSONRequest(ctx context.Context, method, relPath string, query url.Values, body any) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := c.newRequest(ctx, method, relPath, query, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
