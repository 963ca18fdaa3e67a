package network

import (
	"time"

	"github.com/dixieflatline76/Potd/config"
)

// NetworkTimeouts defines the standard durations for various network operations.
const (
	// HTTPClientRequestTimeout is the total time limit for a single HTTP request,
	// including connection, redirects, and reading the response body.
	HTTPClientRequestTimeout = 60 * time.Second

	// HTTPClientDialerTimeout is the timeout for establishing a TCP connection.
	HTTPClientDialerTimeout = 15 * time.Second

	// HTTPClientTLSHandshakeTimeout is the time limit for the TLS handshake for HTTPS.
	HTTPClientTLSHandshakeTimeout = 10 * time.Second

	// HTTPClientResponseHeaderTimeout is the time limit for receiving response headers
	// from the server after the request has been successfully sent.
	HTTPClientResponseHeaderTimeout = 15 * time.Second

	// HTTPClientKeepAlive is the duration for TCP keep-alive probes.
	HTTPClientKeepAlive = 30 * time.Second

	// NetworkConnectivityCheckTimeout is a short timeout used for the
	// lightweight network availability check.
	NetworkConnectivityCheckTimeout = 4 * time.Second
)

// DefaultRequestsPerSecond limits requests per host.
const DefaultRequestsPerSecond = 2.0

// ConnectivityCheckURL answers 204 when the internet is reachable.
const ConnectivityCheckURL = "https://connectivitycheck.gstatic.com/generate_204"

// UserAgent identifies this application to remote services.
func UserAgent() string {
	return config.AppName + "/" + config.AppVersion + " (picture of the day refresher)"
}
