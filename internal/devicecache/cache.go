// Package devicecache persists the mapping from Discovery Records to
// hydrated Device Proxies across runs, keyed by the record's sorted
// header tuple.
package devicecache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sonyimg/gateway/internal/deviceproxy"
	"github.com/sonyimg/gateway/internal/ssdpdisco"
)

// entry is the on-disk representation of one cached device: its key
// plus a full Device Proxy snapshot, so Load rebuilds the proxy
// (including its discovered endpoint/method catalog) without
// re-fetching the description XML or re-running discovery.
type entry struct {
	Key      string               `json:"key"`
	Snapshot deviceproxy.Snapshot `json:"snapshot"`
}

// Cache maps Discovery Record keys to hydrated Device Proxies. A cache
// hit never re-fetches the device description.
type Cache struct {
	path string

	mu      sync.RWMutex
	proxies map[string]*deviceproxy.Proxy

	descTimeout time.Duration
	rpcTimeout  time.Duration
}

// defaultPath returns $XDG_RUNTIME_DIR/sony_device_cache if set, else
// ./.sony_device_cache, per spec §6.
func defaultPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "sony_device_cache")
	}

	return "./.sony_device_cache"
}

// Load reads the serialized cache from path (or the default location
// if path is empty). A corrupt or missing store resets to an empty
// cache with a logged warning rather than aborting startup — the
// invariant is "never fatal", not "never log".
func Load(path string, descTimeout, rpcTimeout time.Duration) *Cache {
	if path == "" {
		path = defaultPath()
	}

	c := &Cache{
		path:        path,
		proxies:     make(map[string]*deviceproxy.Proxy),
		descTimeout: descTimeout,
		rpcTimeout:  rpcTimeout,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("devicecache: failed to read %s, starting empty: %v", path, err)
		}

		return c
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("devicecache: corrupt store at %s, resetting to empty: %v", path, err)
		return c
	}

	for _, e := range entries {
		if e.Snapshot.Location == "" {
			log.Printf("devicecache: skipping entry %s with no location", e.Key)
			continue
		}

		c.proxies[e.Key] = deviceproxy.Restore(e.Snapshot, rpcTimeout)
	}

	return c
}

// Scan queries the discoverer, and for every valid Discovery Record
// matching a Sony imaging device, inserts (hydrating a new proxy) or
// reuses the cached one keyed by the record's sorted header tuple.
func (c *Cache) Scan(ctx context.Context, d *ssdpdisco.Discoverer) ([]*deviceproxy.Proxy, error) {
	records, err := d.Query(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*deviceproxy.Proxy, 0, len(records))

	for _, r := range records {
		key := r.Key()

		c.mu.RLock()
		p, ok := c.proxies[key]
		c.mu.RUnlock()

		if ok {
			out = append(out, p)
			continue
		}

		p, err := deviceproxy.Build(ctx, r["location"], c.descTimeout, c.rpcTimeout)
		if err != nil {
			log.Printf("devicecache: failed to build proxy for %s: %v", r["location"], err)
			continue
		}

		c.mu.Lock()
		c.proxies[key] = p
		c.mu.Unlock()

		out = append(out, p)
	}

	return out, nil
}

// Find locates a proxy by name: if the cache is empty, it scans first.
// An empty name returns the first cached proxy; otherwise the first
// whose device name contains name case-insensitively.
func (c *Cache) Find(ctx context.Context, d *ssdpdisco.Discoverer, name string) (*deviceproxy.Proxy, error) {
	c.mu.RLock()
	empty := len(c.proxies) == 0
	c.mu.RUnlock()

	var candidates []*deviceproxy.Proxy

	if empty {
		scanned, err := c.Scan(ctx, d)
		if err != nil {
			return nil, err
		}

		candidates = scanned
	} else {
		c.mu.RLock()
		for _, p := range c.proxies {
			candidates = append(candidates, p)
		}
		c.mu.RUnlock()
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	if name == "" {
		return candidates[0], nil
	}

	lname := strings.ToLower(name)
	for _, p := range candidates {
		if strings.Contains(strings.ToLower(p.DeviceName), lname) {
			return p, nil
		}
	}

	return nil, nil
}

// Insert adds or replaces a proxy under key, for discovery sources
// other than SSDP (e.g. mDNS) that build their own Proxy out of band.
func (c *Cache) Insert(key string, p *deviceproxy.Proxy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.proxies[key] = p
}

// Has reports whether key is already cached.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.proxies[key]

	return ok
}

// All returns every cached proxy.
func (c *Cache) All() []*deviceproxy.Proxy {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*deviceproxy.Proxy, 0, len(c.proxies))
	for _, p := range c.proxies {
		out = append(out, p)
	}

	return out
}

// Save persists the current cache to disk. Called at shutdown.
func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]entry, 0, len(c.proxies))

	for key, p := range c.proxies {
		entries = append(entries, entry{Key: key, Snapshot: p.Snapshot()})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(c.path, data, 0o644)
}
