// Package deviceproxy builds and drives the JSON-RPC surface ("Scalar
// Web API") of a single discovered Sony imaging device: endpoint and
// method discovery, argument-spec synthesis, and request dispatch.
package deviceproxy

import (
	"sync"

	"github.com/sonyimg/gateway/internal/scalarweb"
)

// ArgType is the synthesized type tag for one method argument.
type ArgType string

const (
	ArgBool        ArgType = "bool"
	ArgInt         ArgType = "int"
	ArgDouble      ArgType = "double"
	ArgString      ArgType = "string"
	ArgBoolArray   ArgType = "bool*"
	ArgIntArray    ArgType = "int*"
	ArgDoubleArray ArgType = "double*"
	ArgStringArray ArgType = "string*"
	ArgJSON        ArgType = "JSON"
	ArgJSONArray   ArgType = "JSON*"
)

// ArgSpec describes one synthesized method argument.
type ArgSpec struct {
	Type    ArgType
	Options []interface{}
}

// Expects enumerates the call shapes a method's params can take.
type Expects string

const (
	ExpectsObject Expects = "object"
	ExpectsList   Expects = "list"
	ExpectsNone   Expects = "none"
)

// MethodSpec is the synthesized contract for one (endpoint, method)
// pair: the params shape and the per-argument type/options map.
type MethodSpec struct {
	Name    string
	Version string
	Expects Expects
	Args    map[string]ArgSpec
}

// Endpoint is one named service family (guide, system, camera, ...) on
// a device, carrying its own request-ID counter and method catalog.
type Endpoint struct {
	Name    string
	BaseURL string

	mu      sync.Mutex
	nextID  int
	Methods map[string]MethodSpec
}

// newEndpoint creates an endpoint with its ID counter seeded at 1.
func newEndpoint(name, baseURL string) *Endpoint {
	return &Endpoint{
		Name:    name,
		BaseURL: baseURL,
		nextID:  1,
		Methods: make(map[string]MethodSpec),
	}
}

// nextRequestID returns the next request ID and advances the counter,
// wrapping per spec: ((id) mod 2^31) + 1, so the sequence stays within
// [1, 2^31-1].
func (e *Endpoint) nextRequestID() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID = (e.nextID % 0x7FFFFFFF) + 1

	return id
}

// Proxy is a hydrated Device Proxy: the parsed description plus the
// discovered endpoint/method catalog.
type Proxy struct {
	DeviceName    string
	DeviceVersion string
	Location      string
	API           scalarweb.API

	endpoints map[string]*Endpoint
	transport *Transport
}
