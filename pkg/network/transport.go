package network

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// UserAgentTransport wraps an http.RoundTripper and adds a User-Agent header.
type UserAgentTransport struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip executes a single HTTP transaction, adding the User-Agent header.
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", t.UserAgent)
	return t.RoundTripper.RoundTrip(clonedReq)
}

// HostLimitTransport rate limits requests per host using token buckets, so
// a misbehaving retry loop cannot hammer a single service.
type HostLimitTransport struct {
	http.RoundTripper

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHostLimitTransport wraps next with a per host limit of rps requests per second.
func NewHostLimitTransport(next http.RoundTripper, rps float64) *HostLimitTransport {
	return &HostLimitTransport{
		RoundTripper: next,
		limiters:     make(map[string]*rate.Limiter),
		rps:          rps,
	}
}

func (t *HostLimitTransport) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	limiter, ok := t.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(t.rps), 1)
		t.limiters[host] = limiter
	}
	return limiter
}

// RoundTrip waits for the host's limiter before sending the request.
// A cancelled request context aborts the wait.
func (t *HostLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter(req.URL.Host).Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.RoundTripper.RoundTrip(req)
}
