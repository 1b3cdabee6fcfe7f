package server

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

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/queue"
)

// Client talks to a running server.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a client for the server at baseURL. A bare host:port is
// treated as http.
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", baseURL, err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: u, http: hc}, nil
}

// Submit posts a job and returns the pending record.
func (c *Client) Submit(ctx context.Context, req domain.JobRequest) (*queue.Record, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var rec queue.Record
	if err := c.do(ctx, http.MethodPost, "/v1/jobs", bytes.NewReader(body), http.StatusAccepted, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Status fetches the current record of a job.
func (c *Client) Status(ctx context.Context, id string) (*queue.Record, error) {
	var rec queue.Record
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		var e errorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", queue.ErrNotFound, msg)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", queue.ErrInvalidRequest, strings.TrimPrefix(msg, queue.ErrInvalidRequest.Error()+": "))
		}
		return errors.New(resp.Status + ": " + msg)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
