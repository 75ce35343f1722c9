// Package config provides configuration management for the sonyimg-gateway service.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the gateway process.
type Config struct {
	// Network binding
	BindAddr  string `env:"BIND_ADDR" default:""`
	Port      int    `env:"PORT" default:"8080"`
	Verbosity int    `env:"VERBOSITY" default:"0"`

	// Discovery settings
	DiscoveryTimeout time.Duration `env:"DISCOVERY_TIMEOUT" default:"2s"`
	MDNSEnabled      bool          `env:"MDNS_ENABLED" default:"false"`

	// Device HTTP settings
	DeviceDescriptionTimeout time.Duration `env:"DEVICE_DESCRIPTION_TIMEOUT" default:"10s"`
	RPCTimeout               time.Duration `env:"RPC_TIMEOUT" default:"10s"`
	UserAgent                string        `env:"USER_AGENT" default:"sonyimg-gateway/1.0"`
	PreferredDeviceName      string        `env:"DEVICE_NAME" default:""`

	// Liveview settings
	LiveviewFPS     int `env:"LIVEVIEW_FPS" default:"30"`
	LiveviewWorkers int `env:"LIVEVIEW_THREADS" default:"1"`
	MaxMJPEGClients int `env:"MAX_MJPEG_CLIENTS" default:"4"`

	// Media browsing
	FolderView string `env:"FOLDER_VIEW" default:"flat"` // flat | date
	OutputDir  string `env:"OUTPUT_DIR" default:"."`

	// Snapshot/transfer collaborators (non-core)
	Force     bool   `env:"FORCE" default:"false"`
	Delete    bool   `env:"DELETE" default:"false"`
	StoreMode string `env:"STORE_MODE" default:"none"` // none | postview | original

	// Device cache persistence
	CachePath string `env:"DEVICE_CACHE_PATH" default:""`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:                     8080,
		DiscoveryTimeout:         2 * time.Second,
		MDNSEnabled:              false,
		DeviceDescriptionTimeout: 10 * time.Second,
		RPCTimeout:               10 * time.Second,
		UserAgent:                "sonyimg-gateway/1.0",
		LiveviewFPS:              30,
		LiveviewWorkers:          1,
		MaxMJPEGClients:          4,
		FolderView:               "flat",
		OutputDir:                ".",
		StoreMode:                "none",
	}
}

// LoadFromEnv loads configuration from environment variables and an optional .env file.
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	_ = loadDotEnv() // missing .env is not an error

	if v := os.Getenv("BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}

	if v := os.Getenv("VERBOSITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbosity = n
		}
	}

	if v := os.Getenv("DISCOVERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DiscoveryTimeout = d
		}
	}

	if v := os.Getenv("MDNS_ENABLED"); v != "" {
		cfg.MDNSEnabled = v == "true" || v == "1"
	}

	if v := os.Getenv("DEVICE_DESCRIPTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DeviceDescriptionTimeout = d
		}
	}

	if v := os.Getenv("RPC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RPCTimeout = d
		}
	}

	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}

	if v := os.Getenv("DEVICE_NAME"); v != "" {
		cfg.PreferredDeviceName = v
	}

	if v := os.Getenv("LIVEVIEW_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LiveviewFPS = n
		}
	}

	if v := os.Getenv("LIVEVIEW_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LiveviewWorkers = n
		}
	}

	if v := os.Getenv("MAX_MJPEG_CLIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxMJPEGClients = n
		}
	}

	if v := os.Getenv("FOLDER_VIEW"); v != "" {
		cfg.FolderView = v
	}

	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if v := os.Getenv("FORCE"); v != "" {
		cfg.Force = v == "true" || v == "1"
	}

	if v := os.Getenv("DELETE"); v != "" {
		cfg.Delete = v == "true" || v == "1"
	}

	if v := os.Getenv("STORE_MODE"); v != "" {
		cfg.StoreMode = v
	}

	if v := os.Getenv("DEVICE_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}

	return cfg, nil
}

// loadDotEnv loads variables from a .env file in the current directory.
func loadDotEnv() error {
	file, err := os.Open(".env")
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 {
			if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				value = value[1 : len(value)-1]
			}
		}

		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DiscoveryTimeout <= 0 {
		return fmt.Errorf("discovery timeout must be positive")
	}

	if c.RPCTimeout <= 0 {
		return fmt.Errorf("RPC timeout must be positive")
	}

	if c.LiveviewFPS <= 0 {
		return fmt.Errorf("liveview fps must be positive")
	}

	if c.MaxMJPEGClients <= 0 {
		return fmt.Errorf("max MJPEG clients must be positive")
	}

	switch c.FolderView {
	case "flat", "date":
	default:
		return fmt.Errorf("invalid folder view %q: must be flat or date", c.FolderView)
	}

	switch c.StoreMode {
	case "none", "postview", "original":
	default:
		return fmt.Errorf("invalid store mode %q", c.StoreMode)
	}

	return nil
}
