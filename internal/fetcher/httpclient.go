package fetcher

import (
	"time"

	"resty.dev/v3"
)

const defaultTimeout = 10 * time.Second

// NewHTTPClient creates an HTTP client for provider calls. No retry policy
// is configured: each fetch is a single attempt and failures surface to the
// caller.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
}
