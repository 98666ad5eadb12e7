// Package airtable is a minimal client for the Airtable records API, enough
// for the bridge: read one record, patch fields.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/model"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client calls the Airtable v0 REST API with a bearer token.
type Client struct {
	httpCli *http.Client
	baseURL string
	apiKey  string
	baseID  string
	table   string
}

// Option overrides client defaults.
type Option func(*Client)

// WithBaseURL points the client at a different API host, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default 20s-timeout HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpCli = h }
}

// New creates a client for one base and table.
func New(apiKey, baseID, table string, opts ...Option) *Client {
	c := &Client{
		httpCli: &http.Client{Timeout: 20 * time.Second},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		baseID:  baseID,
		table:   table,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) recordURL(recordID string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		c.baseURL, c.baseID, url.PathEscape(c.table), url.PathEscape(recordID))
}

type recordEnvelope struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// GetRecord returns the field values of one record.
func (c *Client) GetRecord(ctx context.Context, recordID string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.recordURL(recordID), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	c.authorize(req)

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, errors.Wrapf(model.ErrTransfer, "get record: %s", err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, "get record"); err != nil {
		return nil, err
	}

	env := new(recordEnvelope)
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	if env.Fields == nil {
		env.Fields = map[string]any{}
	}

	return env.Fields, nil
}

// UpdateField patches a single field of one record.
func (c *Client) UpdateField(ctx context.Context, recordID, field string, value any) error {
	return c.UpdateFields(ctx, recordID, map[string]any{field: value})
}

// UpdateFields patches several fields of one record at once.
func (c *Client) UpdateFields(ctx context.Context, recordID string, fields map[string]any) error {
	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return errors.Wrap(err, "marshal fields")
	}

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPatch, c.recordURL(recordID), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return errors.Wrapf(model.ErrTransfer, "update record: %s", err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkStatus(resp, "update record")
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) checkStatus(resp *http.Response, op string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrap(model.ErrRecordNotFound, op)
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(model.ErrPermission, "%s: check the airtable api key", op)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Wrapf(model.ErrTransfer,
			"%s: airtable returned %d: %s", op, resp.StatusCode, string(body))
	}
}
