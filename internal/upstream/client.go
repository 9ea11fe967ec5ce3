// Package upstream is the client for the platform REST backend. All shape
// variance the backend exhibits (alternate field names, bare-array versus
// enveloped payloads, protected mutation rejections) is normalized here, at
// the fetch boundary; nothing past this package sees a raw payload.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Config describes how to reach the upstream platform API.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client issues requests against the upstream platform API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New builds an upstream client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("upstream base url must not be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "upstream_client").Logger(),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}) error {
	return c.send(ctx, http.MethodPatch, path, body, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.decodeError(method, path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode upstream %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) decodeError(method, path string, status int, data []byte) error {
	var payload struct {
		Message   string   `json:"message"`
		Error     string   `json:"error"`
		Protected []string `json:"protected"`
	}
	// A non-JSON error body is fine; status alone is enough.
	_ = json.Unmarshal(data, &payload)

	if len(payload.Protected) > 0 {
		c.logger.Warn().Str("path", path).Strs("reasons", payload.Protected).Msg("upstream rejected protected mutation")
		return &ProtectedError{Reasons: payload.Protected}
	}

	message := payload.Message
	if message == "" {
		message = payload.Error
	}

	c.logger.Warn().Str("method", method).Str("path", path).Int("status", status).Msg("upstream request failed")
	return &StatusError{Code: status, Message: message}
}
