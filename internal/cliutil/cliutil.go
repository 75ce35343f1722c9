// Package cliutil collects the small conventions shared by the
// gateway's standalone command-line utilities: flags for resolving a
// target device, and the terse success/error/warning print style.
package cliutil

import (
	"context"
	"fmt"
	"time"

	"github.com/sonyimg/gateway/internal/devicecache"
	"github.com/sonyimg/gateway/internal/deviceproxy"
	"github.com/sonyimg/gateway/internal/ssdpdisco"
	"github.com/urfave/cli/v2"
)

// CommonFlags are shared across every standalone CLI utility.
var CommonFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "device-name",
		Aliases: []string{"d"},
		Usage:   "Target device name (contains-match, case-insensitive); first cached device if omitted",
		EnvVars: []string{"DEVICE_NAME"},
	},
	&cli.StringFlag{
		Name:    "cache-path",
		Usage:   "Path to the device cache store",
		EnvVars: []string{"DEVICE_CACHE_PATH"},
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "Device description/RPC timeout",
		Value: 10 * time.Second,
	},
}

// ResolveDevice loads the device cache, scans via SSDP if it's empty,
// and returns the proxy matching --device-name (or the first cached
// device if unset).
func ResolveDevice(ctx context.Context, c *cli.Context) (*deviceproxy.Proxy, error) {
	timeout := c.Duration("timeout")

	cache := devicecache.Load(c.String("cache-path"), timeout, timeout)
	disco := ssdpdisco.New()

	p, err := cache.Find(ctx, disco, c.String("device-name"))
	if err != nil {
		return nil, fmt.Errorf("cliutil: device discovery failed: %w", err)
	}

	if p == nil {
		return nil, fmt.Errorf("cliutil: no Sony imaging device found")
	}

	return p, nil
}

// PrintDeviceHeader announces the operation and target device.
func PrintDeviceHeader(operation, deviceName string) {
	fmt.Printf("%s on %s...\n", operation, deviceName)
}

// PrintSuccess prints a standard success message.
func PrintSuccess(message string) {
	fmt.Printf("✓ %s\n", message)
}

// PrintError prints a standard error message.
func PrintError(message string) {
	fmt.Printf("✗ %s\n", message)
}

// PrintWarning prints a standard warning message.
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}
