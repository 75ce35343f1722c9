package facade

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sonyimg/gateway/internal/deviceproxy"
	"github.com/sonyimg/gateway/internal/rpcerr"
)

// controlRequest is the `POST .../server` request body.
type controlRequest struct {
	Method string                   `json:"method"`
	Params []map[string]interface{} `json:"params,omitempty"`
}

// controlResponse mirrors the device RPC envelope so UI clients can
// treat server control responses and device responses uniformly.
type controlResponse struct {
	Error  *[2]interface{} `json:"error,omitempty"`
	Result interface{}     `json:"result,omitempty"`
}

func ok(result interface{}) controlResponse {
	return controlResponse{Error: &[2]interface{}{0, "Ok"}, Result: result}
}

// HandleServerControl serves `POST .../server`: control-plane methods
// operating on the gateway itself rather than the active device.
func (s *Server) HandleServerControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, controlResponse{Error: &[2]interface{}{rpcerr.CodeInvalidJSON, rpcerr.MsgInvalidJSON}})
		return
	}

	switch req.Method {
	case "getDevices":
		writeJSON(w, ok(deviceNames(s.Devices())))

	case "refreshDevices":
		devices, err := s.RefreshDevices(r.Context())
		if err != nil {
			writeJSON(w, controlResponse{Error: &[2]interface{}{rpcerr.CodeNetworkError, err.Error()}})
			return
		}

		writeJSON(w, ok(deviceNames(devices)))

	case "changeDevice":
		name := ""
		if len(req.Params) > 0 {
			if n, ok := req.Params[0]["device"].(string); ok {
				name = n
			}
		}

		if err := s.ChangeDevice(r.Context(), name); err != nil {
			writeJSON(w, controlResponse{Error: &[2]interface{}{rpcerr.CodeNetworkError, err.Error()}})
			return
		}

		writeJSON(w, ok(name))

	case "getEndpoints":
		p := s.ActiveDevice()
		if p == nil {
			writeJSON(w, controlResponse{Error: &[2]interface{}{rpcerr.CodeNoActiveDevice, rpcerr.MsgNoActiveDevice}})
			return
		}

		writeJSON(w, ok(p.EndpointNames()))

	default:
		writeJSON(w, controlResponse{Error: &[2]interface{}{rpcerr.CodeNotImplemented, rpcerr.MsgNotImplemented}})
	}
}

// HandleEndpointRPC serves `POST /<endpoint>`: strips `method` from the
// body and forwards the remaining params to the active device's
// matching endpoint. No active device yields {error:[404,...]};
// unknown endpoint or method is handled by Proxy.Invoke's own
// {501}/{504} rules.
func (s *Server) HandleEndpointRPC(w http.ResponseWriter, r *http.Request) {
	p := s.ActiveDevice()
	if p == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(errNoActiveDeviceJSON())

		return
	}

	var body struct {
		Method string        `json:"method"`
		Params []interface{} `json:"params"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, controlResponse{Error: &[2]interface{}{rpcerr.CodeInvalidJSON, rpcerr.MsgInvalidJSON}})
		return
	}

	endpoint := chi.URLParam(r, "endpoint")

	raw := p.Invoke(r.Context(), endpoint, body.Method, body.Params)

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func deviceNames(devices []*deviceproxy.Proxy) []string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.DeviceName)
	}

	return names
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
