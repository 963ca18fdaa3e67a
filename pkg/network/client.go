package network

import (
	"net"
	"net/http"
)

// NewClient creates the HTTP client shared by all sources. It identifies
// itself with UserAgent and limits the request rate per host.
func NewClient() *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   HTTPClientDialerTimeout,
			KeepAlive: HTTPClientKeepAlive,
		}).DialContext,
		ResponseHeaderTimeout: HTTPClientResponseHeaderTimeout,
		TLSHandshakeTimeout:   HTTPClientTLSHandshakeTimeout,
	}
	return &http.Client{
		Timeout: HTTPClientRequestTimeout,
		Transport: &UserAgentTransport{
			RoundTripper: NewHostLimitTransport(base, DefaultRequestsPerSecond),
			UserAgent:    UserAgent(),
		},
	}
}
