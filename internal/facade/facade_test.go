package facade

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sonyimg/gateway/internal/devicecache"
	"github.com/sonyimg/gateway/internal/ssdpdisco"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cache := devicecache.Load(filepath.Join(t.TempDir(), "cache.json"), 0, 0)
	disco := ssdpdisco.New()

	return NewServer(cache, disco, 2, 30, "")
}

func TestHandleHealthReportsUpWithNoActiveDevice(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body["status"] != "up" {
		t.Errorf("expected status up, got %v", body["status"])
	}

	if body["active_device"] != "" {
		t.Errorf("expected empty active_device, got %v", body["active_device"])
	}
}

func TestHandleEndpointRPCNoActiveDeviceReturns404Envelope(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/camera", strings.NewReader(`{"method":"getEvent","params":[false]}`))
	w := httptest.NewRecorder()

	s.HandleEndpointRPC(w, req)

	var env struct {
		Error []interface{} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(env.Error) < 1 || env.Error[0].(float64) != 404 {
		t.Errorf("expected error code 404, got %v", env.Error)
	}
}

func TestHandleServerControlUnknownMethodReturns501(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/server", strings.NewReader(`{"method":"bogus"}`))
	w := httptest.NewRecorder()

	s.HandleServerControl(w, req)

	var resp controlResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Error == nil || resp.Error[0].(float64) != 501 {
		t.Errorf("expected error code 501, got %v", resp.Error)
	}
}

func TestHandleServerControlGetEndpointsNoActiveDeviceReturns404(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/server", strings.NewReader(`{"method":"getEndpoints"}`))
	w := httptest.NewRecorder()

	s.HandleServerControl(w, req)

	var resp controlResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Error == nil || resp.Error[0].(float64) != 404 {
		t.Errorf("expected error code 404, got %v", resp.Error)
	}
}

func TestHandleServerControlGetDevicesEmptyCache(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/server", strings.NewReader(`{"method":"getDevices"}`))
	w := httptest.NewRecorder()

	s.HandleServerControl(w, req)

	var resp struct {
		Result []string `json:"result"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Result) != 0 {
		t.Errorf("expected no devices, got %v", resp.Result)
	}
}

func TestHandleLiveviewMJPGUnavailableReturns503(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/liveview.mjpg", nil)
	w := httptest.NewRecorder()

	s.HandleLiveviewMJPG(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}

	if w.Header().Get("Retry-After") != "120" {
		t.Errorf("expected Retry-After: 120, got %q", w.Header().Get("Retry-After"))
	}
}

func TestHandleMediaContentNoActiveDeviceReturns503(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/image:content/DSC0001.JPG", nil)
	w := httptest.NewRecorder()

	s.HandleMediaContent(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
