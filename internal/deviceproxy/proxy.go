package deviceproxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sonyimg/gateway/internal/rpcerr"
	"github.com/sonyimg/gateway/internal/scalarweb"
)

const defaultDescriptionTimeout = 10 * time.Second

// Build fetches the device description at location, parses it, and
// discovers the endpoint + method catalog. descTimeout and
// rpcTimeout default to 10s when zero.
func Build(ctx context.Context, location string, descTimeout, rpcTimeout time.Duration) (*Proxy, error) {
	if descTimeout <= 0 {
		descTimeout = defaultDescriptionTimeout
	}

	if rpcTimeout <= 0 {
		rpcTimeout = defaultDescriptionTimeout
	}

	descCtx, cancel := context.WithTimeout(ctx, descTimeout)
	defer cancel()

	data, err := fetchDescription(descCtx, location)
	if err != nil {
		return nil, err
	}

	desc, err := scalarweb.Parse(data)
	if err != nil {
		return nil, err
	}

	t := NewTransport(rpcTimeout)
	services := discoverEndpoints(ctx, t, desc.API)

	p := &Proxy{
		DeviceName:    desc.DeviceName,
		DeviceVersion: desc.DeviceVersion,
		Location:      location,
		API:           scalarweb.API{Services: services, LiveviewURL: desc.API.LiveviewURL, DefaultFunction: desc.API.DefaultFunction},
		endpoints:     make(map[string]*Endpoint),
	}

	for _, svc := range services {
		ep := newEndpoint(svc.Type, svc.BaseURL)
		discoverMethods(ctx, t, ep)
		p.endpoints[svc.Type] = ep
	}

	p.transport = t

	return p, nil
}

func fetchDescription(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// EndpointNames returns the names of every registered endpoint,
// including synthetic ones appended during discovery.
func (p *Proxy) EndpointNames() []string {
	names := make([]string, 0, len(p.endpoints))
	for name := range p.endpoints {
		names = append(names, name)
	}

	return names
}

// Endpoint returns the named endpoint, or nil if the device doesn't
// expose it.
func (p *Proxy) Endpoint(name string) *Endpoint {
	return p.endpoints[name]
}

// Invoke dispatches a method call against the named endpoint. An
// unknown endpoint yields {error:[504,"No Such API endpoint"]}; an
// endpoint without the named method yields {error:[501,"Not
// Implemented"]} rather than failing the call.
func (p *Proxy) Invoke(ctx context.Context, endpointName, method string, params []interface{}) json.RawMessage {
	ep := p.endpoints[endpointName]
	if ep == nil {
		env := rpcerr.New(0, rpcerr.CodeNoSuchEndpoint, rpcerr.MsgNoSuchEndpoint)
		data, _ := json.Marshal(env)

		return data
	}

	id := ep.nextRequestID()

	spec, ok := ep.Methods[method]
	if !ok {
		env := rpcerr.NotImplemented(id)
		data, _ := json.Marshal(env)

		return data
	}

	resp, rerr := p.transport.Post(ctx, ep.BaseURL+"/"+ep.Name, method, params, id, spec.Version)
	if rerr != nil {
		data, _ := json.Marshal(*rerr)
		return data
	}

	return resp.Raw
}
