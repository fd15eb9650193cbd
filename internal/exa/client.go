package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/liliang-cn/exaanswer/internal/domain"
)

const (
	defaultBaseURL = "https://api.exa.ai"
	defaultUA      = "exaanswer/0.1"

	// ModelExaPro selects the exa-pro answer model.
	ModelExaPro = "exa-pro"
	// ModelExa selects the default exa answer model.
	ModelExa = "exa"
)

// Client is a minimal HTTP client for the Exa answer API.
type Client struct {
	apiKey  string
	baseURL string
	ua      string
	http    *http.Client

	defaults AnswerOptions
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUserAgent sets a custom User-Agent header. An empty ua keeps the default.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.ua = ua
		}
	}
}

// WithAnswerDefaults sets the options Answer sends with every request.
// The model passed to Answer replaces defaults.Model.
func WithAnswerDefaults(opts AnswerOptions) Option {
	return func(c *Client) { c.defaults = opts }
}

// NewClient constructs a Client. The http.Client has no overall timeout
// because answer streams are long lived; bound them with the context.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		ua:      defaultUA,
		http: &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
		}},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var (
	// ErrMissingAPIKey indicates the client was built without credentials.
	ErrMissingAPIKey = errors.New("exa: API key is empty")
	// ErrUnauthorized indicates a 401 response.
	ErrUnauthorized = errors.New("exa: unauthorized (check API key)")
	// ErrForbidden indicates a 403 response.
	ErrForbidden = errors.New("exa: forbidden")
)

// APIError models an error payload from the API.
type APIError struct {
	Status  int    `json:"statusCode,omitempty"`
	Message string `json:"error,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return fmt.Sprintf("exa api error: %s (status=%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("exa api error (status=%d)", e.Status)
}

// AnswerOptions tunes an answer request.
type AnswerOptions struct {
	Model        string
	Text         bool
	SystemPrompt string
}

// answerRequest models the request body for /answer.
type answerRequest struct {
	Query        string `json:"query"`
	Stream       bool   `json:"stream"`
	Text         bool   `json:"text,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// StreamAnswer calls POST /answer with streaming enabled. The response
// status is checked before returning, so rejections surface here and not
// from the first Recv.
func (c *Client) StreamAnswer(ctx context.Context, query string, opts AnswerOptions) (*AnswerStream, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	body, err := json.Marshal(answerRequest{
		Query:        query,
		Stream:       true,
		Text:         opts.Text,
		Model:        opts.Model,
		SystemPrompt: opts.SystemPrompt,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", c.ua)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		switch res.StatusCode {
		case http.StatusUnauthorized:
			return nil, ErrUnauthorized
		case http.StatusForbidden:
			return nil, ErrForbidden
		}
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20)) // 1 MiB
		apiErr := &APIError{}
		_ = json.Unmarshal(b, apiErr)
		apiErr.Status = res.StatusCode
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(b))
		}
		return nil, apiErr
	}

	return newAnswerStream(res.Body), nil
}

// Answer opens a streaming answer for query with the given model and the
// client's default options.
func (c *Client) Answer(ctx context.Context, query, model string) (domain.ChunkStream, error) {
	opts := c.defaults
	opts.Model = model
	s, err := c.StreamAnswer(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}
