// Package cms is the HTTP client for the headless content API. It builds
// filtered/populated queries, performs bearer-authenticated GETs with a
// bounded wait, and decodes the {data, meta} response envelope. An empty
// data array is the canonical not-found signal, never an error.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultTimeout bounds each upstream call when the config provides none.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps upstream response bodies (largest legitimate payloads
// are fully populated article lists well under 1 MB).
const maxBodySize = 8 * 1024 * 1024

// Response is the decoded content API envelope. Data is either a single
// record object or an array of records depending on the endpoint.
type Response struct {
	Data json.RawMessage `json:"data"`
	Meta *Meta           `json:"meta,omitempty"`
}

// Meta carries pagination info for list responses.
type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// Client performs requests against the content API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a content API client. baseURL is the API root without a
// trailing slash (e.g. "https://cms.example.com"); token is the static
// API token sent as a bearer credential on every call.
func New(baseURL string, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

// Get performs GET /api/<collection>?<query> and decodes the envelope.
// cacheHint, when positive, is forwarded as Cache-Control/CDN-Cache-Control
// max-age hints matching the kind's TTL. A nil query fetches unfiltered.
func (c *Client) Get(ctx context.Context, collection string, q *Query, cacheHint time.Duration) (*Response, error) {
	u := c.baseURL + "/api/" + collection
	if q != nil {
		if enc := q.Encode(); enc != "" {
			u += "?" + enc
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if cacheHint > 0 {
		maxAge := "max-age=" + strconv.Itoa(int(cacheHint.Seconds()))
		req.Header.Set("Cache-Control", maxAge)
		req.Header.Set("CDN-Cache-Control", maxAge)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, collection)
	}

	limited := io.LimitReader(resp.Body, maxBodySize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(raw) > maxBodySize {
		return nil, fmt.Errorf("response body too large (exceeds %d bytes)", maxBodySize)
	}

	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", collection, err)
	}

	return &envelope, nil
}

// Proxy forwards a request body to an API path verbatim and returns the
// upstream status and raw body. Used for the pass-through surfaces (auth,
// comments, profile updates, avatar upload): credentials and payloads are
// opaque to this system. The caller's bearer token, when present, is
// forwarded in place of the static API token.
func (c *Client) Proxy(ctx context.Context, method, path, contentType string, body io.Reader, bearer string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	switch {
	case bearer != "":
		req.Header.Set("Authorization", "Bearer "+bearer)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("proxying %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return 0, nil, fmt.Errorf("reading proxy response: %w", err)
	}
	if len(raw) > maxBodySize {
		return 0, nil, fmt.Errorf("proxy response body too large (exceeds %d bytes)", maxBodySize)
	}

	return resp.StatusCode, raw, nil
}

// Records splits a list response's data into individual raw records.
// An absent or empty data array yields an empty slice.
func (r *Response) Records() ([]json.RawMessage, error) {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return []json.RawMessage{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(r.Data, &records); err != nil {
		return nil, fmt.Errorf("parsing record list: %w", err)
	}
	return records, nil
}

// First returns the first record of a list response, nil if empty.
func (r *Response) First() (json.RawMessage, error) {
	records, err := r.Records()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
