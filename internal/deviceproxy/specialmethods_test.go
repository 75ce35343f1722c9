package deviceproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestApplySpecialOverrideExposureCompensation(t *testing.T) {
	srv := companionServer(t, `[{"min":-6,"max":6,"step":3}]`)
	defer srv.Close()

	transport := NewTransport(5 * time.Second)
	ep := newEndpoint("camera", srv.URL)
	spec := &MethodSpec{Name: "setExposureCompensation"}

	applySpecialOverride(context.Background(), transport, ep, spec)

	ev, ok := spec.Args["EV"]
	if !ok || ev.Type != ArgInt {
		t.Fatalf("expected EV arg of type int, got %+v", spec.Args)
	}

	want := []interface{}{-6, -3, 0, 3, 6}
	if len(ev.Options) != len(want) {
		t.Fatalf("expected %v, got %v", want, ev.Options)
	}

	for i, v := range want {
		if ev.Options[i] != v {
			t.Errorf("option %d: expected %v, got %v", i, v, ev.Options[i])
		}
	}
}

func TestApplySpecialOverrideWhiteBalance(t *testing.T) {
	srv := companionServer(t, `[
		{"whiteBalanceMode":"Auto","colorTemperatureRange":[2500,9900,100]},
		{"whiteBalanceMode":"Daylight"}
	]`)
	defer srv.Close()

	transport := NewTransport(5 * time.Second)
	ep := newEndpoint("camera", srv.URL)
	spec := &MethodSpec{Name: "setWhiteBalance"}

	applySpecialOverride(context.Background(), transport, ep, spec)

	mode, ok := spec.Args["WhiteBalanceMode"]
	if !ok || mode.Type != ArgString {
		t.Fatalf("expected WhiteBalanceMode arg, got %+v", spec.Args)
	}

	if len(mode.Options) != 2 {
		t.Errorf("expected 2 white balance modes, got %v", mode.Options)
	}

	if _, ok := spec.Args["ColorTempEnable"]; !ok {
		t.Error("expected ColorTempEnable bool arg to always be present")
	}

	temp, ok := spec.Args["ColorTemp"]
	if !ok || temp.Type != ArgInt {
		t.Fatalf("expected ColorTemp arg, got %+v", spec.Args)
	}

	if len(temp.Options) != 75 {
		t.Errorf("expected 75 color temperatures from the 2500-9900 step-100 range, got %d", len(temp.Options))
	}
}

func TestApplySpecialOverrideStillSize(t *testing.T) {
	srv := companionServer(t, `[
		{"aspect":"3:2","size":"L"},
		{"aspect":"3:2","size":"M"},
		{"aspect":"16:9","size":"L"}
	]`)
	defer srv.Close()

	transport := NewTransport(5 * time.Second)
	ep := newEndpoint("camera", srv.URL)
	spec := &MethodSpec{Name: "setStillSize"}

	applySpecialOverride(context.Background(), transport, ep, spec)

	aspect, ok := spec.Args["aspect"]
	if !ok || len(aspect.Options) != 2 {
		t.Fatalf("expected 2 distinct aspects, got %+v", spec.Args)
	}

	size, ok := spec.Args["size"]
	if !ok || len(size.Options) != 2 {
		t.Fatalf("expected 2 distinct sizes, got %+v", spec.Args)
	}
}

func TestApplySpecialOverrideIsNoopForOrdinaryMethod(t *testing.T) {
	called := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[],"id":1}`))
	}))
	defer srv.Close()

	transport := NewTransport(5 * time.Second)
	ep := newEndpoint("camera", srv.URL)
	spec := &MethodSpec{Name: "setShootMode", Args: map[string]ArgSpec{"shootMode": {Type: ArgString}}}

	applySpecialOverride(context.Background(), transport, ep, spec)

	if called {
		t.Error("expected applySpecialOverride to skip any RPC call for a method with no special handling")
	}

	if _, ok := spec.Args["shootMode"]; !ok {
		t.Error("expected the original args to be left untouched")
	}
}
