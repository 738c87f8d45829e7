package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	httpapi "github.com/fyrsmithlabs/lifearchitect/internal/http"
)

type healthResponse = httpapi.HealthResponse

// apiError is a non-2xx response from the server.
type apiError struct {
	Status int
	Body   httpapi.ErrorResponse
}

func (e *apiError) Error() string {
	if len(e.Body.Fields) == 0 {
		return fmt.Sprintf("server returned status %d: %s", e.Status, e.Body.Error)
	}
	keys := make([]string, 0, len(e.Body.Fields))
	for k := range e.Body.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := e.Body.Fields[k]
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("server returned status %d: %s (%s)", e.Status, e.Body.Error, strings.Join(parts, "; "))
}

type client struct {
	base string
	http *http.Client
}

func newClient(opts *options) *client {
	// AI routes can take as long as the model timeout.
	return &client{
		base: strings.TrimRight(opts.server, "/"),
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

// do sends body as JSON and decodes the response into out. out may be nil.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		e := &apiError{Status: resp.StatusCode}
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		if json.Unmarshal(raw, &e.Body) != nil || e.Body.Error == "" {
			e.Body.Error = strings.TrimSpace(string(raw))
		}
		return e
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
