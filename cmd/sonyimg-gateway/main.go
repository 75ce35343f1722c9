// Package main provides the sonyimg-gateway daemon: SSDP/mDNS device
// discovery, an HTTP control plane, and a background liveview task for
// a Sony Scalar Web API imaging device.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/sonyimg/gateway/internal/devicecache"
	"github.com/sonyimg/gateway/internal/deviceproxy"
	"github.com/sonyimg/gateway/internal/facade"
	"github.com/sonyimg/gateway/internal/mdnsdisco"
	"github.com/sonyimg/gateway/internal/ssdpdisco"
	"github.com/sonyimg/gateway/pkg/config"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func updateBuildInfo() {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
}

func main() {
	updateBuildInfo()

	app := &cli.App{
		Name:    "sonyimg-gateway",
		Usage:   "HTTP gateway for Sony Scalar Web API imaging devices",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Host address to bind the HTTP server to", EnvVars: []string{"BIND_ADDR"}},
			&cli.IntFlag{Name: "port", Usage: "HTTP port to bind the service to", Value: 8080, EnvVars: []string{"PORT"}},
			&cli.IntFlag{Name: "verbosity", Usage: "Log verbosity (0=normal, 1=verbose); stored in the config, no log output depends on it", EnvVars: []string{"VERBOSITY"}},
			&cli.IntFlag{Name: "liveview-fps", Usage: "Target liveview frame rate", Value: 30, EnvVars: []string{"LIVEVIEW_FPS"}},
			&cli.IntFlag{Name: "liveview-threads", Usage: "Reserved for future parallel liveview decoding", Value: 1, EnvVars: []string{"LIVEVIEW_THREADS"}},
			&cli.IntFlag{Name: "max-mjpeg-clients", Usage: "Maximum concurrent MJPEG stream viewers", Value: 4, EnvVars: []string{"MAX_MJPEG_CLIENTS"}},
			&cli.StringFlag{Name: "device-name", Usage: "Preferred device name to select on startup", EnvVars: []string{"DEVICE_NAME"}},
			&cli.StringFlag{Name: "static-dir", Usage: "Directory of static assets to serve as a fallback", EnvVars: []string{"STATIC_DIR"}},
			&cli.StringFlag{Name: "cache-path", Usage: "Path to the device cache store", EnvVars: []string{"DEVICE_CACHE_PATH"}},
			&cli.BoolFlag{Name: "mdns", Usage: "Also discover devices via mDNS/Bonjour", EnvVars: []string{"MDNS_ENABLED"}},
			&cli.DurationFlag{Name: "discovery-timeout", Usage: "Per-socket discovery timeout", Value: 2 * time.Second, EnvVars: []string{"DISCOVERY_TIMEOUT"}},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	applyFlags(cfg, c)

	if err := cfg.Validate(); err != nil {
		return err
	}

	staticDir := c.String("static-dir")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cache := devicecache.Load(cfg.CachePath, cfg.DeviceDescriptionTimeout, cfg.RPCTimeout)
	discoverer := &ssdpdisco.Discoverer{Timeout: cfg.DiscoveryTimeout}

	if _, err := cache.Scan(ctx, discoverer); err != nil {
		log.Printf("sonyimg-gateway: initial SSDP scan failed: %v", err)
	}

	if cfg.MDNSEnabled {
		scanMDNS(ctx, cache, cfg)
	}

	srv := facade.NewServer(cache, discoverer, cfg.MaxMJPEGClients, cfg.LiveviewFPS, staticDir)

	if cfg.PreferredDeviceName != "" {
		if err := srv.ChangeDevice(ctx, cfg.PreferredDeviceName); err != nil {
			log.Printf("sonyimg-gateway: failed to select preferred device %q: %v", cfg.PreferredDeviceName, err)
		}
	} else if devices := srv.Devices(); len(devices) > 0 {
		if err := srv.ChangeDevice(ctx, devices[0].DeviceName); err != nil {
			log.Printf("sonyimg-gateway: failed to select default device %q: %v", devices[0].DeviceName, err)
		}
	}

	addr := cfg.BindAddr + ":" + strconv.Itoa(cfg.Port)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Routes(),
	}

	go func() {
		log.Printf("sonyimg-gateway listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("sonyimg-gateway: server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("sonyimg-gateway: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)

	if err := cache.Save(); err != nil {
		log.Printf("sonyimg-gateway: failed to persist device cache: %v", err)
	}

	return nil
}

func applyFlags(cfg *config.Config, c *cli.Context) {
	if c.IsSet("bind") {
		cfg.BindAddr = c.String("bind")
	}

	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}

	if c.IsSet("verbosity") {
		cfg.Verbosity = c.Int("verbosity")
	}

	if c.IsSet("liveview-fps") {
		cfg.LiveviewFPS = c.Int("liveview-fps")
	}

	if c.IsSet("liveview-threads") {
		cfg.LiveviewWorkers = c.Int("liveview-threads")
	}

	if c.IsSet("max-mjpeg-clients") {
		cfg.MaxMJPEGClients = c.Int("max-mjpeg-clients")
	}

	if c.IsSet("device-name") {
		cfg.PreferredDeviceName = c.String("device-name")
	}

	if c.IsSet("cache-path") {
		cfg.CachePath = c.String("cache-path")
	}

	if c.IsSet("mdns") {
		cfg.MDNSEnabled = c.Bool("mdns")
	}

	if c.IsSet("discovery-timeout") {
		cfg.DiscoveryTimeout = c.Duration("discovery-timeout")
	}
}

// scanMDNS supplements the device cache with mDNS-advertised devices,
// keyed by "mdns:" plus their description URL since mDNS responses
// carry no SSDP header tuple to hash. Only entries already cached under
// that mDNS key are skipped; a device also found via SSDP gets a second
// entry.
func scanMDNS(ctx context.Context, cache *devicecache.Cache, cfg *config.Config) {
	found, err := mdnsdisco.Lookup(ctx, cfg.DiscoveryTimeout)
	if err != nil {
		log.Printf("sonyimg-gateway: mDNS discovery failed: %v", err)
	}

	for _, f := range found {
		key := "mdns:" + f.Location
		if cache.Has(key) {
			continue
		}

		p, err := deviceproxy.Build(ctx, f.Location, cfg.DeviceDescriptionTimeout, cfg.RPCTimeout)
		if err != nil {
			log.Printf("sonyimg-gateway: failed to build proxy for mDNS device %s at %s: %v", f.Name, f.Location, err)
			continue
		}

		cache.Insert(key, p)
	}
}
