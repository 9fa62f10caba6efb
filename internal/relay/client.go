package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vfaronov/httpheader"

	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/utils"
)

// Fetcher issues the single GET of a refresh.
type Fetcher interface {
	Fetch(ctx context.Context, target string) types.Response
}

// StatusError is returned when the relay answers a submission with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("relay returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, body)
}

// Client talks to the relay over HTTP.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	// Timeout bounds a request when positive. Zero leaves it to the transport.
	Timeout time.Duration
}

// NewClient returns a client using the default transport, which follows redirects.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		HTTP:      &http.Client{},
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

// Fetch issues one GET to target and reports how it ended. Transport failures
// are carried in Response.Err rather than returned.
func (c *Client) Fetch(ctx context.Context, target string) types.Response {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.Response{FinalURL: target, Err: err}
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		utils.Debug("GET %s failed after %s: %v", target, time.Since(start), err)
		return types.Response{FinalURL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.Debug("GET %s: body read failed: %v", finalURL, err)
		return types.Response{FinalURL: finalURL, Body: string(data), Err: err}
	}

	mtype, _ := httpheader.ContentType(resp.Header)
	utils.Debug("GET %s -> %d %s (%d bytes %s, %s)", target, resp.StatusCode, finalURL, len(data), mtype, time.Since(start))
	return types.Response{
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		Body:        string(data),
		ContentType: mtype,
	}
}

// Submit posts msg to the relay at base and returns the absolute pending URL
// the relay assigned to the job.
func (c *Client) Submit(ctx context.Context, base string, msg string) (string, error) {
	if strings.TrimSpace(msg) == "" {
		return "", fmt.Errorf("empty message")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	inURL, err := utils.JoinURL(base, "/in")
	if err != nil {
		return "", fmt.Errorf("invalid relay URL %q: %w", base, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, inURL, strings.NewReader(msg))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit to %s: %w", inURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		// Limit error body read to 1KB
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	loc, err := resp.Location()
	if errors.Is(err, http.ErrNoLocation) {
		return "", fmt.Errorf("relay accepted the job without a Location header")
	}
	if err != nil {
		return "", fmt.Errorf("bad Location header: %w", err)
	}
	pending := loc.String()
	utils.Debug("submitted %d bytes to %s, pending at %s", len(msg), inURL, pending)
	return pending, nil
}
