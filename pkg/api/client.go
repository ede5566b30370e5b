package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "http://localhost:8000"

	NewSessionPath = "/api/chat/new-session"
	MessagePath    = "/api/chat/message"
	BriefingPath   = "/api/news/briefing"
)

// Client talks to the briefing and chat backend. It performs plain request/response calls, without
// retries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout sets a per-request timeout. Zero keeps the HTTP client's default (no timeout).
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d <= 0 {
			return
		}
		c := *cl.httpClient
		c.Timeout = d
		cl.httpClient = &c
	}
}

func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

func NewClient(baseURL string, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid backend url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("backend url %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		userAgent:  "morning-news",
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CreateSession mints a new chat session for userID.
func (c *Client) CreateSession(ctx context.Context, userID string) (string, error) {
	var resp NewSessionResponse
	if err := c.do(ctx, http.MethodPost, NewSessionPath, NewSessionRequest{UserID: userID}, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", errors.New("backend returned an empty session id")
	}
	log.Debug().Str("session_id", resp.SessionID).Str("user_id", userID).Msg("created chat session")
	return resp.SessionID, nil
}

// PostMessage sends a user message. An empty sessionID is forwarded as null; the backend decides
// what to do with it.
func (c *Client) PostMessage(ctx context.Context, message, sessionID, userID string) (*MessageResponse, error) {
	req := MessageRequest{Message: message, UserID: userID}
	if sessionID != "" {
		req.SessionID = &sessionID
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, MessagePath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBriefing fetches the morning briefing.
func (c *Client) GetBriefing(ctx context.Context) (*Briefing, error) {
	var b Briefing
	if err := c.do(ctx, http.MethodGet, BriefingPath, nil, &b); err != nil {
		return nil, err
	}
	if b.Articles == nil {
		b.Articles = []Article{}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	log.Debug().Int("articles", len(b.Articles)).Strs("categories", b.Categories).Msg("fetched briefing")
	return &b, nil
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "could not encode %s %s request", method, path)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrapf(err, "could not build %s %s request", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "could not read %s %s response", method, path)
	}
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "could not decode %s %s response", method, path)
	}
	return nil
}
