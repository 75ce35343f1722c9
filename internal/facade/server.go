// Package facade implements the HTTP control plane: the liveview
// MJPEG route, the on-device media proxy, the server control-plane
// methods, and JSON-RPC forwarding to the active device.
package facade

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/sonyimg/gateway/internal/devicecache"
	"github.com/sonyimg/gateway/internal/deviceproxy"
	"github.com/sonyimg/gateway/internal/liveview"
	"github.com/sonyimg/gateway/internal/mjpeg"
	"github.com/sonyimg/gateway/internal/rpcerr"
	"github.com/sonyimg/gateway/internal/ssdpdisco"
)

// Server holds the shared mutable control-plane state: the active
// device and its background liveview task. A single RWMutex guards
// the struct; the MJPEG table and per-device proxies synchronize
// themselves.
type Server struct {
	cache      *devicecache.Cache
	discoverer *ssdpdisco.Discoverer
	table      *mjpeg.Table
	fps        int
	staticDir  string

	mu            sync.RWMutex
	active        *deviceproxy.Proxy
	liveviewTask  *liveview.Streamer
	liveviewDone  chan struct{}
	liveviewCtx   context.Context
	liveviewStop  context.CancelFunc
	hub           *eventHub
}

// NewServer builds a Server around an already-loaded device cache,
// ready to serve once a device is selected via ChangeDevice (the
// changeDevice control method, or the caller after startup). Scanning
// alone never selects a device.
func NewServer(cache *devicecache.Cache, discoverer *ssdpdisco.Discoverer, maxClients, fps int, staticDir string) *Server {
	return &Server{
		cache:      cache,
		discoverer: discoverer,
		table:      mjpeg.NewTable(maxClients),
		fps:        fps,
		staticDir:  staticDir,
		hub:        newEventHub(),
	}
}

// ActiveDevice returns the currently selected proxy, or nil.
func (s *Server) ActiveDevice() *deviceproxy.Proxy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// Devices returns every cached device proxy.
func (s *Server) Devices() []*deviceproxy.Proxy {
	return s.cache.All()
}

// RefreshDevices rescans the network for devices, returning every
// known proxy afterward.
func (s *Server) RefreshDevices(ctx context.Context) ([]*deviceproxy.Proxy, error) {
	return s.cache.Scan(ctx, s.discoverer)
}

// ChangeDevice switches the active device by exact name. A no-op if
// name already names the active device. Otherwise it stops (and
// joins) the current liveview task, selects the new device, and
// starts a fresh liveview task against its startLiveview URL, per
// §4.7b.
func (s *Server) ChangeDevice(ctx context.Context, name string) error {
	devices := s.cache.All()

	var target *deviceproxy.Proxy

	for _, p := range devices {
		if p.DeviceName == name {
			target = p
			break
		}
	}

	if target == nil {
		return nil
	}

	s.mu.Lock()
	current := s.active
	s.mu.Unlock()

	if current != nil && current.DeviceName == target.DeviceName {
		return nil
	}

	s.stopLiveview()

	s.mu.Lock()
	s.active = target
	s.mu.Unlock()

	s.hub.broadcast(event{Type: "device_changed", Device: target.DeviceName})

	s.startLiveview(ctx, target)

	return nil
}

func (s *Server) startLiveview(ctx context.Context, p *deviceproxy.Proxy) {
	raw := p.Invoke(ctx, "camera", "startLiveview", nil)

	var resp struct {
		Result []string `json:"result"`
	}

	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Result) == 0 {
		log.Printf("facade: startLiveview failed for %s: %v", p.DeviceName, err)
		return
	}

	streamer := liveview.NewStreamer(resp.Result[0], s.fps)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.liveviewTask = streamer
	s.liveviewCtx = runCtx
	s.liveviewStop = cancel
	s.liveviewDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		streamer.Run(runCtx, func(jpeg []byte) {
			s.table.AddFrame(jpeg)
		})
	}()

	s.hub.broadcast(event{Type: "liveview_availability", Device: p.DeviceName, Available: true})
}

func (s *Server) stopLiveview() {
	s.mu.Lock()
	task := s.liveviewTask
	cancel := s.liveviewStop
	done := s.liveviewDone
	s.liveviewTask = nil
	s.liveviewStop = nil
	s.liveviewDone = nil
	s.mu.Unlock()

	if task == nil {
		return
	}

	task.Stop()

	if cancel != nil {
		cancel()
	}

	if done != nil {
		<-done
	}
}

// liveviewAvailable polls camera.getEvent per §4.7a: unavailable if
// there is no active device or the call fails or the status bit is
// false.
func (s *Server) liveviewAvailable(ctx context.Context) bool {
	p := s.ActiveDevice()
	if p == nil {
		return false
	}

	raw := p.Invoke(ctx, "camera", "getEvent", []interface{}{false})

	var resp struct {
		Result []json.RawMessage `json:"result"`
		Error  []interface{}     `json:"error"`
	}

	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Error) > 0 {
		return false
	}

	if len(resp.Result) < 4 {
		return false
	}

	var liveviewStatus struct {
		LiveviewStatus bool `json:"liveviewStatus"`
	}

	if err := json.Unmarshal(resp.Result[3], &liveviewStatus); err != nil {
		return false
	}

	return liveviewStatus.LiveviewStatus
}

// errNoActiveDeviceJSON is the reified {error:[404,...]} body shared
// by every route that requires a selected device.
func errNoActiveDeviceJSON() []byte {
	data, _ := json.Marshal(rpcerr.NoActiveDevice())
	return data
}

// frameTimeout is the GetFrame wait bound: 1/fps, clamped to a
// sensible floor so a misconfigured fps=0 never blocks forever.
func (s *Server) frameTimeout() time.Duration {
	fps := s.fps
	if fps <= 0 {
		fps = 30
	}

	return time.Second / time.Duration(fps)
}
