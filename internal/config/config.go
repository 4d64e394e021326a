// Package config provides JSON-based application configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const configFile = "config.json"

// Config holds application settings. Vendor prefixes map a vendor key to the
// string prepended to normalized item numbers when naming extracted crops.
type Config struct {
	// OutputDir is where extracted crops are written.
	OutputDir string `json:"output_dir"`

	// ListenAddr is the HTTP service listen address.
	ListenAddr string `json:"listen_addr"`

	// VendorPrefixes maps vendor keys to filename prefixes.
	VendorPrefixes map[string]string `json:"vendor_prefixes,omitempty"`

	// RecognizerPoolSize bounds the number of concurrently live OCR engines.
	RecognizerPoolSize int `json:"recognizer_pool_size"`

	// MaxSessions bounds the number of concurrently open image sessions.
	MaxSessions int `json:"max_sessions"`

	// Debug enables debug logging.
	Debug bool `json:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		OutputDir:          "crops",
		ListenAddr:         ":8085",
		VendorPrefixes:     map[string]string{},
		RecognizerPoolSize: 2,
		MaxSessions:        5,
	}
}

// Load reads configuration from ~/.config/moulding-cropper/config.json.
// Returns defaults if the file doesn't exist.
func Load() *Config {
	cfg := Default()

	data, err := os.ReadFile(path())
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(data, cfg)

	if cfg.RecognizerPoolSize < 1 {
		cfg.RecognizerPoolSize = 1
	}
	if cfg.MaxSessions < 1 {
		cfg.MaxSessions = 1
	}
	return cfg
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	p := path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func path() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "moulding-cropper", configFile)
}
