package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// StatusError is a non-200 HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// httpClient wraps http.Client with a request limiter and exponential retry.
type httpClient struct {
	client     *http.Client
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
}

func newHTTPClient(proxyURL string, timeout time.Duration, requestsPerSec float64) *httpClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if requestsPerSec > 0 {
		limit = rate.Limit(requestsPerSec)
	}
	return &httpClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, 1),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

// get performs a GET and returns the body of a 200 response. Network errors,
// 429 and 5xx are retried; other statuses fail immediately.
func (c *httpClient) get(ctx context.Context, endpoint string, header http.Header) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range header {
			req.Header[k] = v
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{StatusCode: resp.StatusCode, Body: truncateBody(data)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}
		body = data
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
