package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBody    = 64 << 10
	requestIDHeader = "X-Request-Id"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// Client talks to the chat backend over HTTP+JSON.
type Client struct {
	baseURL string
	http    *http.Client
	newID   func() string

	mu     sync.RWMutex
	tokens TokenSource
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Timeouts surface as *TransportError.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New builds a client rooted at baseURL (for example http://localhost:5000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource swaps the token source after construction; the session
// store and the client reference each other.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// BaseURL reports the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", nil, body, "", &res); err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(res.Token) == "" {
		return LoginResult{}, &TransportError{Op: "login", Err: errors.New("response carried no token")}
	}
	return res, nil
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, "register", http.MethodPost, "/api/auth/register", nil, body, "", nil)
}

// Logout revokes token on the server. The token is passed explicitly because
// the local session is already gone by the time this runs.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, "logout", http.MethodPost, "/api/auth/logout", nil, struct{}{}, token, nil)
}

func (c *Client) Channels(ctx context.Context) ([]Channel, error) {
	var out []Channel
	if err := c.do(ctx, "list channels", http.MethodGet, "/api/channels", nil, nil, c.token(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateChannel(ctx context.Context, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, "create channel", http.MethodPost, "/api/channels", nil, body, c.token(), nil)
}

func (c *Client) Messages(ctx context.Context, channelID int64) ([]Message, error) {
	var out []Message
	q := url.Values{"channel_id": {strconv.FormatInt(channelID, 10)}}
	if err := c.do(ctx, "list messages", http.MethodGet, "/api/messages", q, nil, c.token(), &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].ChannelID == 0 {
			out[i].ChannelID = channelID
		}
	}
	return out, nil
}

// PostMessage sends a message or, when msg.RepliesTo is set, a thread reply.
func (c *Client) PostMessage(ctx context.Context, msg NewMessage) (int64, error) {
	var out struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.do(ctx, "post message", http.MethodPost, "/api/messages", nil, msg, c.token(), &out); err != nil {
		return 0, err
	}
	return out.MessageID, nil
}

func (c *Client) Thread(ctx context.Context, parentID int64) (Thread, error) {
	var out Thread
	q := url.Values{"parent_id": {strconv.FormatInt(parentID, 10)}}
	if err := c.do(ctx, "load thread", http.MethodGet, "/api/messages/thread", q, nil, c.token(), &out); err != nil {
		return Thread{}, err
	}
	for i := range out.Replies {
		if out.Replies[i].ChannelID == 0 {
			out.Replies[i].ChannelID = out.Parent.ChannelID
		}
		if out.Replies[i].RepliesTo == nil {
			parent := out.Parent.ID
			out.Replies[i].RepliesTo = &parent
		}
	}
	return out, nil
}

func (c *Client) React(ctx context.Context, messageID int64, emoji string) error {
	body := struct {
		MessageID int64  `json:"message_id"`
		Emoji     string `json:"emoji"`
	}{MessageID: messageID, Emoji: emoji}
	return c.do(ctx, "react", http.MethodPost, "/api/reactions", nil, body, c.token(), nil)
}

// Unread returns unread counts keyed by channel id.
func (c *Client) Unread(ctx context.Context) (map[int64]int, error) {
	var raw map[string]int
	if err := c.do(ctx, "unread counts", http.MethodGet, "/api/unread", nil, nil, c.token(), &raw); err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(raw))
	for key, count := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, &TransportError{Op: "unread counts", Err: fmt.Errorf("channel key %q: %w", key, err)}
		}
		out[id] = count
	}
	return out, nil
}

func (c *Client) UpdateUsername(ctx context.Context, username string) error {
	body := map[string]string{"new_username": username}
	return c.do(ctx, "update username", http.MethodPost, "/api/users/update_username", nil, body, c.token(), nil)
}

func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	body := map[string]string{"new_password": password}
	return c.do(ctx, "update password", http.MethodPost, "/api/users/update_password", nil, body, c.token(), nil)
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body interface{}, token string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(requestIDHeader, c.newID())

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func classify(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	reason := strings.TrimSpace(eb.Error)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Reason: reason}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &ValidationError{Reason: reason, Status: resp.StatusCode}
	default:
		var cause error
		if reason != "" {
			cause = errors.New(reason)
		}
		return &TransportError{Op: op, Status: resp.StatusCode, Err: cause}
	}
}
