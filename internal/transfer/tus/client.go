// Package tus is a minimal client for the resumable upload protocol spoken
// by the storage endpoint: session creation (POST), offset discovery (HEAD)
// and sequential appends (PATCH).
package tus

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const protocolVersion = "1.0.0"

// Auth carries the per-upload credentials. Bearer must be freshly minted.
type Auth struct {
	Bearer string
	APIKey string
}

// Metadata is sent once, at session creation, as Upload-Metadata.
type Metadata map[string]string

// Encode renders "key base64(value)" pairs joined by commas, keys sorted.
func (m Metadata) Encode() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+base64.StdEncoding.EncodeToString([]byte(m[k])))
	}
	return strings.Join(parts, ",")
}

// StatusError is an unexpected HTTP status from the endpoint.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tus %s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("tus %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Gone reports whether the session no longer exists on the server.
func (e *StatusError) Gone() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusGone
}

// Client talks to one creation endpoint.
type Client struct {
	endpoint *url.URL
	http     *http.Client
}

// NewClient parses endpoint. A nil hc means http.DefaultClient.
func NewClient(endpoint string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid resumable endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid resumable endpoint: %q", endpoint)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: u, http: hc}, nil
}

// Endpoint returns the creation URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, auth Auth, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Tus-Resumable", protocolVersion)
	req.Header.Set("Authorization", "Bearer "+auth.Bearer)
	req.Header.Set("apikey", auth.APIKey)
	return req, nil
}

func (c *Client) do(req *http.Request, op string, want ...int) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tus %s: %w", op, err)
	}
	for _, code := range want {
		if resp.StatusCode == code {
			return resp, nil
		}
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// Create opens a session for length bytes and returns its absolute URL.
// Existing objects are never replaced (x-upsert: false).
func (c *Client) Create(ctx context.Context, auth Auth, length int64, meta Metadata) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint.String(), auth, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Upload-Length", strconv.FormatInt(length, 10))
	req.Header.Set("Upload-Metadata", meta.Encode())
	req.Header.Set("x-upsert", "false")

	resp, err := c.do(req, "create", http.StatusCreated)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("tus create: missing Location header")
	}
	u, err := c.endpoint.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("tus create: invalid Location %q: %w", loc, err)
	}
	return u.String(), nil
}

// Offset returns how many bytes the server holds for uploadURL.
func (c *Client) Offset(ctx context.Context, auth Auth, uploadURL string) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodHead, uploadURL, auth, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(req, "head", http.StatusOK, http.StatusNoContent)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return parseOffset(resp, "head")
}

// Patch appends size bytes read from body at offset and returns the new offset.
func (c *Client) Patch(ctx context.Context, auth Auth, uploadURL string, offset int64, body io.Reader, size int64) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodPatch, uploadURL, auth, body)
	if err != nil {
		return 0, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/offset+octet-stream")
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))

	resp, err := c.do(req, "patch", http.StatusNoContent, http.StatusOK)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return parseOffset(resp, "patch")
}

func parseOffset(resp *http.Response, op string) (int64, error) {
	v := resp.Header.Get("Upload-Offset")
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("tus %s: invalid Upload-Offset %q", op, v)
	}
	return n, nil
}
