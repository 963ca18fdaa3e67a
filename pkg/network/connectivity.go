package network

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dixieflatline76/Potd/util/log"
	"github.com/godbus/dbus/v5"
)

// ConnectivityMonitor reports whether the machine has full internet access.
type ConnectivityMonitor interface {
	FullyConnected(ctx context.Context) bool
}

// HTTPProbe checks connectivity with a lightweight HEAD request.
type HTTPProbe struct {
	Client *http.Client
	URL    string
}

// NewHTTPProbe creates a probe against ConnectivityCheckURL.
func NewHTTPProbe(client *http.Client) *HTTPProbe {
	return &HTTPProbe{Client: client, URL: ConnectivityCheckURL}
}

// FullyConnected checks if the device has a stable internet connection by
// attempting to connect to a public endpoint.
func (p *HTTPProbe) FullyConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, NetworkConnectivityCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		log.Printf("FullyConnected: Error creating request: %v", err)
		return false
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		log.Printf("FullyConnected: Network check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true
	}

	log.Printf("FullyConnected: Network check returned non-success status: %d", resp.StatusCode)
	return false
}

// NetworkManager connectivity states, see NMConnectivityState.
const (
	nmConnectivityUnknown uint32 = 0
	nmConnectivityFull    uint32 = 4
)

const (
	nmBusName   = "org.freedesktop.NetworkManager"
	nmPath      = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmInterface = "org.freedesktop.NetworkManager"
)

// connectivityReader reads NetworkManager's connectivity state.
type connectivityReader func(ctx context.Context) (uint32, error)

// NetworkManagerMonitor asks NetworkManager over the system bus. When
// NetworkManager does not know the state it falls back to an HTTP probe.
type NetworkManagerMonitor struct {
	read     connectivityReader
	fallback ConnectivityMonitor
}

// NewNetworkManagerMonitor connects to the system bus.
func NewNetworkManagerMonitor(fallback ConnectivityMonitor) (*NetworkManagerMonitor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}
	obj := conn.Object(nmBusName, nmPath)
	read := func(ctx context.Context) (uint32, error) {
		var v dbus.Variant
		err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, nmInterface, "Connectivity").Store(&v)
		if err != nil {
			return nmConnectivityUnknown, err
		}
		state, ok := v.Value().(uint32)
		if !ok {
			return nmConnectivityUnknown, fmt.Errorf("unexpected connectivity value %v", v)
		}
		return state, nil
	}
	return &NetworkManagerMonitor{read: read, fallback: fallback}, nil
}

// FullyConnected reports whether NetworkManager sees full connectivity.
func (m *NetworkManagerMonitor) FullyConnected(ctx context.Context) bool {
	state, err := m.read(ctx)
	if err != nil {
		log.Printf("FullyConnected: NetworkManager query failed: %v", err)
		return m.fallbackConnected(ctx)
	}
	if state == nmConnectivityUnknown {
		return m.fallbackConnected(ctx)
	}
	return state == nmConnectivityFull
}

func (m *NetworkManagerMonitor) fallbackConnected(ctx context.Context) bool {
	if m.fallback == nil {
		return false
	}
	return m.fallback.FullyConnected(ctx)
}

// NewConnectivityMonitor prefers NetworkManager and falls back to an HTTP
// probe when the system bus is unavailable.
func NewConnectivityMonitor(client *http.Client) ConnectivityMonitor {
	probe := NewHTTPProbe(client)
	nm, err := NewNetworkManagerMonitor(probe)
	if err != nil {
		log.Printf("NetworkManager unavailable, probing connectivity over HTTP: %v", err)
		return probe
	}
	return nm
}
