package deviceproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sonyimg/gateway/internal/rpcerr"
)

// rpcRequest is the Scalar Web API request envelope.
type rpcRequest struct {
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
	Version string        `json:"version"`
}

// rpcResponse is the generic decoded response shape: either Result or
// Results carries the payload on success, Error on failure.
type rpcResponse struct {
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Results json.RawMessage `json:"results"`
	Error   []interface{}   `json:"error"`
	Raw     json.RawMessage `json:"-"`
}

// Transport posts JSON-RPC requests to a device endpoint and
// disambiguates socket timeouts, HTTP errors, and decode failures per
// spec §4.3/§4.7a's error taxonomy.
type Transport struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewTransport returns a Transport with the given default per-call
// timeout (overridable per request via context).
func NewTransport(timeout time.Duration) *Transport {
	return &Transport{
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

// Post sends {method, params, id, version} to url and returns the
// decoded response, or a reified rpcerr.Envelope describing the
// failure. Every failure, including request construction, is reported
// through the envelope; Post never returns a Go error.
func (t *Transport) Post(ctx context.Context, url, method string, params []interface{}, id int, version string) (*rpcResponse, *rpcerr.Envelope) {
	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: id, Version: version})
	if err != nil {
		e := rpcerr.New(id, rpcerr.CodeInvalidJSON, rpcerr.MsgInvalidJSON)
		return nil, &e
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		e := rpcerr.New(id, rpcerr.CodeNetworkError, err.Error())
		return nil, &e
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			e := rpcerr.New(id, rpcerr.CodeTimeout, rpcerr.MsgTimeout)
			return nil, &e
		}

		e := rpcerr.New(id, rpcerr.CodeNetworkError, err.Error())

		return nil, &e
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e := rpcerr.New(id, rpcerr.CodeNetworkError, err.Error())
		return nil, &e
	}

	if resp.StatusCode >= 400 {
		e := rpcerr.New(id, resp.StatusCode, resp.Status)
		return nil, &e
	}

	// Firmware quirk: accessControl.getMethodTypes responses sometimes
	// carry doubled commas that break strict JSON parsing.
	if method == "getMethodTypes" && strings.Contains(url, "accessControl") {
		raw = bytes.ReplaceAll(raw, []byte(",,"), []byte(","))
	}

	var rr rpcResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		e := rpcerr.New(id, rpcerr.CodeInvalidJSON, rpcerr.MsgInvalidJSON)
		return nil, &e
	}

	rr.Raw = raw

	if len(rr.Error) > 0 {
		code, _ := rr.Error[0].(float64)

		msg := ""
		if len(rr.Error) > 1 {
			msg = fmt.Sprintf("%v", rr.Error[1])
		}

		e := rpcerr.New(id, int(code), msg)

		return nil, &e
	}

	return &rr, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
