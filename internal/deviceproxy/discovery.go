package deviceproxy

import (
	"context"
	"encoding/json"

	"github.com/sonyimg/gateway/internal/scalarweb"
)

// defaultEndpoints is the fallback catalog used when getServiceProtocols
// fails outright.
var defaultEndpoints = []string{"guide", "system", "camera", "avContent"}

// discoverEndpoints resolves the device's endpoint catalog: it posts
// getServiceProtocols to the guide endpoint and appends a synthetic
// Service Descriptor for any endpoint name the device reports that
// isn't already in api.Services, using the most common existing
// base_url as tiebreak (ties broken by first-seen).
func discoverEndpoints(ctx context.Context, t *Transport, api scalarweb.API) []scalarweb.Service {
	guideURL := baseURLFor(api.Services, "guide")
	if guideURL == "" {
		return withDefaults(api.Services)
	}

	resp, rerr := t.Post(ctx, guideURL+"/guide", "getServiceProtocols", nil, 1, "1.0")
	if rerr != nil || resp == nil {
		return withDefaults(api.Services)
	}

	names := extractNames(resp)
	if len(names) == 0 {
		return withDefaults(api.Services)
	}

	out := append([]scalarweb.Service(nil), api.Services...)
	known := make(map[string]bool, len(out))

	for _, s := range out {
		known[s.Type] = true
	}

	tiebreak := majorityBaseURL(out)

	for _, name := range names {
		if known[name] {
			continue
		}

		out = append(out, scalarweb.Service{Type: name, BaseURL: tiebreak})
		known[name] = true
	}

	return out
}

func withDefaults(existing []scalarweb.Service) []scalarweb.Service {
	out := append([]scalarweb.Service(nil), existing...)
	known := make(map[string]bool, len(out))

	for _, s := range out {
		known[s.Type] = true
	}

	tiebreak := majorityBaseURL(out)

	for _, name := range defaultEndpoints {
		if known[name] {
			continue
		}

		out = append(out, scalarweb.Service{Type: name, BaseURL: tiebreak})
		known[name] = true
	}

	return out
}

// majorityBaseURL returns the base_url that occurs most often among
// services, with ties broken by first-seen order.
func majorityBaseURL(services []scalarweb.Service) string {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, s := range services {
		if s.BaseURL == "" {
			continue
		}

		if counts[s.BaseURL] == 0 {
			order = append(order, s.BaseURL)
		}

		counts[s.BaseURL]++
	}

	best := ""
	bestCount := 0

	for _, url := range order {
		if counts[url] > bestCount {
			best = url
			bestCount = counts[url]
		}
	}

	return best
}

func baseURLFor(services []scalarweb.Service, name string) string {
	for _, s := range services {
		if s.Type == name {
			return s.BaseURL
		}
	}

	return ""
}

// extractNames reads the getServiceProtocols "results" entries; each
// entry's first element is an endpoint name.
func extractNames(resp *rpcResponse) []string {
	var rows [][]interface{}
	if err := json.Unmarshal(resp.Results, &rows); err != nil {
		return nil
	}

	names := make([]string, 0, len(rows))

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}

		if name, ok := row[0].(string); ok {
			names = append(names, name)
		}
	}

	return names
}

// methodRow is one entry of a getMethodTypes result:
// [name, param_specs, response_spec, version, ...].
type methodRow struct {
	Name         string
	ParamSpecs   []string
	ResponseSpec []string
	Version      string
}

func (m *methodRow) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) > 0 {
		_ = json.Unmarshal(raw[0], &m.Name)
	}

	if len(raw) > 1 {
		_ = json.Unmarshal(raw[1], &m.ParamSpecs)
	}

	if len(raw) > 2 {
		_ = json.Unmarshal(raw[2], &m.ResponseSpec)
	}

	if len(raw) > 3 {
		_ = json.Unmarshal(raw[3], &m.Version)
	}

	return nil
}

// discoverMethods posts getMethodTypes to an endpoint and registers a
// MethodSpec per returned row.
func discoverMethods(ctx context.Context, t *Transport, ep *Endpoint) {
	resp, rerr := t.Post(ctx, ep.BaseURL+"/"+ep.Name, "getMethodTypes", []interface{}{""}, ep.nextRequestID(), "1.0")
	if rerr != nil || resp == nil {
		return
	}

	payload := resp.Results
	if len(payload) == 0 {
		payload = resp.Result
	}

	var rows []methodRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return
	}

	for _, row := range rows {
		if row.Name == "" {
			continue
		}

		spec := MethodSpec{
			Name:    row.Name,
			Version: row.Version,
			Args:    synthesizeArgs(ctx, t, ep, row),
		}
		spec.Expects = expectsFor(row.ParamSpecs)

		applySpecialOverride(ctx, t, ep, &spec)

		ep.Methods[row.Name] = spec
	}
}

func expectsFor(paramSpecs []string) Expects {
	if len(paramSpecs) == 0 {
		return ExpectsNone
	}

	first := paramSpecs[0]
	if len(first) > 0 && first[0] == '{' {
		return ExpectsObject
	}

	return ExpectsList
}
