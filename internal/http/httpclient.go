package http

import (
	"crypto/tls"
	"net/http"
	"time"
)

// DefaultUserAgent identifies API requests made for remote branch lookups
const DefaultUserAgent = "repo-clipboard"

// HTTPClientOptions configures HTTP client creation
type HTTPClientOptions struct {
	// Timeout is the request timeout duration (0 means no timeout)
	Timeout time.Duration
	// SkipSSLVerify disables SSL certificate verification (use with caution)
	SkipSSLVerify bool
	// UserAgent is sent on every request; empty means DefaultUserAgent
	UserAgent string
}

// NewHTTPClient creates an HTTP client with the specified options
func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.SkipSSLVerify {
		base.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &userAgentTransport{
			base:      base,
			userAgent: userAgent,
		},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
