package remote

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

	"golang.org/x/oauth2"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SyncRemote = (*Client)(nil)

// lastSyncLayout matches the millisecond ISO-8601 form clients have always sent.
const lastSyncLayout = "2006-01-02T15:04:05.000Z07:00"

// maxErrorBody bounds how much of an error response is quoted in errors.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	// BaseURL is the server root; /sync/upload and /sync/download are appended.
	BaseURL string

	// Timeout bounds each request. Zero means domain.DefaultRequestTimeout.
	Timeout time.Duration

	// RateLimit is the proactive request rate per second. Zero disables it.
	RateLimit float64

	// TokenSource supplies the bearer token. Nil sends no Authorization header.
	TokenSource oauth2.TokenSource

	// Transport is the base round tripper. Nil means http.DefaultTransport.
	Transport http.RoundTripper

	// UserAgent is sent with every request when set.
	UserAgent string
}

// Client talks to the sync server over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *RateLimiter
	userAgent string
}

// NewClient creates a sync server client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.ErrRemoteNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid server url %q", domain.ErrInvalidInput, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.TokenSource != nil {
		transport = &oauth2.Transport{Source: cfg.TokenSource, Base: transport}
	}

	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout, Transport: transport},
		limiter:   NewRateLimiter(cfg.RateLimit),
		userAgent: cfg.UserAgent,
	}, nil
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// UploadBatch posts a batch and decodes the server's per-record verdicts.
func (c *Client) UploadBatch(ctx context.Context, batch domain.SyncBatch) (*domain.BatchResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	endpoint := c.baseURL.JoinPath("sync", "upload")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("remote: uploading batch %s with %d records", batch.BatchID, len(batch.Records))

	var result domain.BatchResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadChanges fetches changes made on the server after since.
func (c *Client) DownloadChanges(ctx context.Context, since time.Time) (*domain.DownloadResult, error) {
	endpoint := c.baseURL.JoinPath("sync", "download")
	query := url.Values{}
	query.Set("last_sync", since.UTC().Format(lastSyncLayout))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	logger.Debug("remote: downloading changes since %s", since.UTC().Format(time.RFC3339))

	var result domain.DownloadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do sends req and decodes a 2xx JSON body into out, mapping failures onto
// the domain error taxonomy.
func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if err := c.limiter.CheckResponse(resp); err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: server returned %d", domain.ErrAuthRequired, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: server returned %d%s", domain.ErrTransport, resp.StatusCode, errorDetail(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", domain.ErrTransport, err)
	}
	return nil
}

// errorDetail extracts a short description from an error response body.
// FastAPI-style {"detail": "..."} bodies yield just the detail.
func errorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return ""
	}

	var parsed struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(data, &parsed) == nil && parsed.Detail != nil {
		if s, ok := parsed.Detail.(string); ok {
			return ": " + s
		}
		if b, err := json.Marshal(parsed.Detail); err == nil {
			return ": " + string(b)
		}
	}
	return ": " + strings.TrimSpace(string(data))
}
