package deviceproxy

import (
	"time"

	"github.com/sonyimg/gateway/internal/scalarweb"
)

// EndpointSnapshot is the serializable form of one Endpoint: enough
// to restore its discovered method catalog without re-running
// getServiceProtocols/getMethodTypes.
type EndpointSnapshot struct {
	Name    string                `json:"name"`
	BaseURL string                `json:"base_url"`
	NextID  int                   `json:"next_id"`
	Methods map[string]MethodSpec `json:"methods"`
}

// Snapshot is the serializable form of a hydrated Proxy: identity,
// the parsed Scalar Web API surface, and every endpoint's method
// catalog (including synthesized arg specs). Restore rebuilds a Proxy
// from a Snapshot with no network round-trip.
type Snapshot struct {
	DeviceName    string                      `json:"device_name"`
	DeviceVersion string                      `json:"device_version"`
	Location      string                      `json:"location"`
	API           scalarweb.API               `json:"api"`
	Endpoints     map[string]EndpointSnapshot `json:"endpoints"`
}

// Snapshot captures p's current endpoint/method catalog for
// persistence.
func (p *Proxy) Snapshot() Snapshot {
	endpoints := make(map[string]EndpointSnapshot, len(p.endpoints))

	for name, ep := range p.endpoints {
		ep.mu.Lock()
		nextID := ep.nextID
		ep.mu.Unlock()

		endpoints[name] = EndpointSnapshot{
			Name:    ep.Name,
			BaseURL: ep.BaseURL,
			NextID:  nextID,
			Methods: ep.Methods,
		}
	}

	return Snapshot{
		DeviceName:    p.DeviceName,
		DeviceVersion: p.DeviceVersion,
		Location:      p.Location,
		API:           p.API,
		Endpoints:     endpoints,
	}
}

// Restore rebuilds a Proxy from a Snapshot captured by a prior call to
// Snapshot, without fetching the device description or re-running
// endpoint/method discovery.
func Restore(snap Snapshot, rpcTimeout time.Duration) *Proxy {
	if rpcTimeout <= 0 {
		rpcTimeout = defaultDescriptionTimeout
	}

	p := &Proxy{
		DeviceName:    snap.DeviceName,
		DeviceVersion: snap.DeviceVersion,
		Location:      snap.Location,
		API:           snap.API,
		endpoints:     make(map[string]*Endpoint, len(snap.Endpoints)),
		transport:     NewTransport(rpcTimeout),
	}

	for name, es := range snap.Endpoints {
		ep := newEndpoint(es.Name, es.BaseURL)

		if es.NextID > 0 {
			ep.nextID = es.NextID
		}

		ep.Methods = es.Methods
		if ep.Methods == nil {
			ep.Methods = make(map[string]MethodSpec)
		}

		p.endpoints[name] = ep
	}

	return p
}
