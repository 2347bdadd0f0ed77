// Package kernel talks to the note kernel's attribute view API, and serves
// a compatible subset of it from local storage.
package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const renderPath = "/api/av/renderAttributeView"

// Client calls a running kernel.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the kernel at baseURL. A zero timeout
// means no timeout beyond the request context.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// response is the kernel's envelope.
type response struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type renderRequest struct {
	ID     string `json:"id"`
	ViewID string `json:"viewID,omitempty"`
}

// column is the subset of a rendered column the client reads.
type column struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Template string `json:"template,omitempty"`
}

type renderedView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns []column `json:"columns,omitempty"`
	// Gallery views name their columns fields.
	Fields []column `json:"fields,omitempty"`
}

type renderData struct {
	Name string       `json:"name"`
	View renderedView `json:"view"`
}

// RenderAttributeView renders a view and returns the template expression
// of each template column, keyed by column id.
func (c *Client) RenderAttributeView(ctx context.Context, avID, viewID string) (map[string]string, error) {
	var data renderData
	if err := c.post(ctx, renderPath, renderRequest{ID: avID, ViewID: viewID}, &data); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, cols := range [][]column{data.View.Columns, data.View.Fields} {
		for _, col := range cols {
			if col.Template != "" {
				out[col.ID] = col.Template
			}
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("kernel %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kernel %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("kernel %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kernel %s: status %d", path, resp.StatusCode)
	}
	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("kernel %s: decode: %w", path, err)
	}
	if env.Code != 0 {
		return &Error{Code: env.Code, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("kernel %s: decode data: %w", path, err)
	}
	return nil
}

// Error is a non-zero kernel response code.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("kernel: %s (code %d)", e.Msg, e.Code)
}
