package repository

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/haven/pkg/buildinfo"
	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/httputil"
	"github.com/matzehuels/haven/pkg/observability"
)

// Client fetches files from remote repositories.
// It handles retry logic and common request headers.
type Client struct {
	http    *http.Client
	headers map[string]string
	retry   httputil.Policy
}

// NewClient creates a Client whose requests time out after timeout.
// A non-positive timeout selects [httputil.DefaultTimeout].
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:    httputil.NewClient(timeout),
		headers: map[string]string{"User-Agent": buildinfo.UserAgent()},
		retry:   httputil.DefaultPolicy(),
	}
}

// Get performs an HTTP GET and returns the response body.
//
// A 404 response yields NOT_FOUND. Network failures and 5xx responses are
// retried with exponential backoff before failing with IO_FAILURE.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, func() error {
		data, err := c.doRequest(ctx, rawURL)
		if err != nil {
			return err
		}
		body = data
		return nil
	})

	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, errors.ErrCodeNotFound):
		return nil, err
	default:
		return nil, errors.Classify(errors.ErrCodeIO, err, "GET %s", rawURL)
	}
}

func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := requestTarget(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		if err == httputil.ErrNotFound {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s", rawURL)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: err}
	}
	return data, nil
}

func requestTarget(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
