package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinput/internal/dispatch"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Devices)
}

func TestLoadParsesDeviceOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.toml")
	contents := `
[[device]]
vendor = 2
product = 14
model = "elantech"
accel_min = 0.2
accel_max = 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, uint16(2), cfg.Devices[0].Vendor)
	assert.Equal(t, "elantech", cfg.Devices[0].Model)
}

func TestResolveModelOverridesStaticTable(t *testing.T) {
	cfg := &Config{Devices: []DeviceOverride{
		{Vendor: 0x05ac, Product: 0x0001, Model: "synaptics"},
	}}

	model, ok := cfg.ResolveModel(0x05ac, 0x0001)
	require.True(t, ok)
	assert.Equal(t, dispatch.ModelSynaptics, model)
}

func TestResolveModelMissesFallThroughToCaller(t *testing.T) {
	cfg := DefaultConfig()
	_, ok := cfg.ResolveModel(0x1234, 0x5678)
	assert.False(t, ok)
}

func TestAccelOverride(t *testing.T) {
	cfg := &Config{Devices: []DeviceOverride{
		{Vendor: 1, Product: 1, AccelMin: 0.1, AccelMax: 0.5},
	}}

	min, max, ok := cfg.AccelOverride(1, 1)
	require.True(t, ok)
	assert.Equal(t, 0.1, min)
	assert.Equal(t, 0.5, max)
}
