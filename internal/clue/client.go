// Package clue queries the CLUE REST API, which uses loopback-style JSON
// filters.
package clue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.clue.io/api"

// Querier runs CLUE queries. *Client and *Mock implement it.
type Querier interface {
	RunFilterQuery(ctx context.Context, resource string, filter any) ([]map[string]any, error)
	RunCountQuery(ctx context.Context, resource string, where any) (map[string]any, error)
}

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

// Error names the request URL and the HTTP status.
func (e *StatusError) Error() string {
	return fmt.Sprintf("clue request %s failed: %s", e.URL, e.Status)
}

// Client is a CLUE API client. Requests are sent once; there is no retry
// and no caching.
type Client struct {
	BaseURL string
	UserKey string
	HTTP    *http.Client
	Logger  log.Logger
}

// NewClient returns a client using http.DefaultClient.
func NewClient(baseURL, userKey string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), UserKey: userKey, HTTP: http.DefaultClient, Logger: logger}
}

// RunFilterQuery fetches the records of resource matching filter.
func (c *Client) RunFilterQuery(ctx context.Context, resource string, filter any) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.get(ctx, resource, "filter", filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunCountQuery counts the records of resource matching where.
func (c *Client) RunCountQuery(ctx context.Context, resource string, where any) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, resource+"/count", "where", where, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get sends one query and decodes the JSON reply into out.
func (c *Client) get(ctx context.Context, path, param string, clause any, out any) error {
	q, err := json.Marshal(clause)
	if err != nil {
		return fmt.Errorf("encoding %s clause: %w", param, err)
	}
	// The clause goes in the query string, the key in the body.
	u := strings.TrimRight(c.BaseURL, "/") + "/" + path + "?" + url.Values{param: {string(q)}}.Encode()
	body := url.Values{"user_key": {c.UserKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	logger := c.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	level.Debug(logger).Log("msg", "clue response", "path", path, "status", resp.StatusCode)
	// Drain the body so the connection can be reused.
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
