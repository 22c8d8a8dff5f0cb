// Package config loads the tuning table that supplements the static
// vendor/product model table of the touchpad dispatcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"evinput/internal/dispatch"
)

// DeviceOverride is one row of the tuning table: a vendor/product
// match plus the values it overrides.
type DeviceOverride struct {
	Vendor  uint16 `toml:"vendor"`
	Product uint16 `toml:"product"`
	Model   string `toml:"model"`
	AccelMin float64 `toml:"accel_min"`
	AccelMax float64 `toml:"accel_max"`
}

// Config is the on-disk tuning table format.
type Config struct {
	Devices []DeviceOverride `toml:"device"`
}

var modelNames = map[string]dispatch.Model{
	"unknown":     dispatch.ModelUnknown,
	"synaptics":   dispatch.ModelSynaptics,
	"alps":        dispatch.ModelALPS,
	"appletouch":  dispatch.ModelAppletouch,
	"elantech":    dispatch.ModelElantech,
}

// DefaultConfig returns an empty table; absent a file, the static
// vendor/product table and §4.1 defaults apply unchanged.
func DefaultConfig() *Config {
	return &Config{}
}

// DefaultPath returns the default tuning-table location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "evinput", "devices.toml")
}

// Load reads the tuning table from path. A missing file is not an
// error: it returns DefaultConfig().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// ResolveModel implements device.ModelResolver: it looks the
// vendor/product pair up in the loaded overrides, falling back to
// "not found" so the caller keeps using the static table.
func (c *Config) ResolveModel(vendor, product uint16) (dispatch.Model, bool) {
	for _, d := range c.Devices {
		if d.Vendor != vendor || d.Product != product {
			continue
		}
		model, ok := modelNames[d.Model]
		if !ok {
			return dispatch.ModelUnknown, false
		}
		return model, true
	}
	return dispatch.ModelUnknown, false
}

// AccelOverride returns the accel-curve override for vendor/product,
// if the tuning table names one.
func (c *Config) AccelOverride(vendor, product uint16) (min, max float64, ok bool) {
	for _, d := range c.Devices {
		if d.Vendor == vendor && d.Product == product && (d.AccelMin != 0 || d.AccelMax != 0) {
			return d.AccelMin, d.AccelMax, true
		}
	}
	return 0, 0, false
}
