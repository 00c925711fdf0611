// Package blobstore is a client for the external photo blob store.
// Stored paths are resolved against the store's base URL and fetched with a
// bearer token.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kozaktomas/photo-diary/internal/config"
)

// MaxBlobBytes caps the size of a single fetched object.
const MaxBlobBytes = 32 << 20

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s failed with status %d: %s", e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the store.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client fetches raw objects from the blob store.
type Client struct {
	parsedURL  *url.URL
	token      string
	httpClient *http.Client
}

// NewClient creates a blob store client from configuration.
func NewClient(cfg config.BlobStoreConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("blob store URL is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid blob store URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid blob store URL scheme %q", parsed.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		parsedURL:  parsed,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// resolveURL joins a stored path onto the base URL. A query string in the
// path ("photos/a.jpg?v=2") is kept as the request query.
func (c *Client) resolveURL(path string) string {
	path = strings.TrimPrefix(path, "/")
	if pathPart, query, ok := strings.Cut(path, "?"); ok {
		result := c.parsedURL.JoinPath(pathPart)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(path).String()
}

// Fetch downloads the object stored at path and returns its bytes and content type.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, "", errors.New("empty blob path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(path), nil)
	if err != nil {
		return nil, "", fmt.Errorf("could not create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from configured base via resolveURL
	if err != nil {
		return nil, "", fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{Path: path, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBlobBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("could not read response body: %w", err)
	}
	if len(data) > MaxBlobBytes {
		return nil, "", fmt.Errorf("blob %s exceeds %d bytes", path, MaxBlobBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// readErrorBody reads a bounded prefix of the response body for error messages.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}
