package seat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDirectOpenFallback covers the common CI/container topology: no
// system bus reachable, so OpenDevice must fall back to a plain
// os.OpenFile rather than fail (§4.10).
func TestDirectOpenFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake-event0")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	s := &Seat{} // no session: always direct-open
	f, err := s.OpenDevice(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, path, f.Name())
}

func TestCloseDeviceWithNoSessionJustClosesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake-event1")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s := &Seat{}
	f, err := s.OpenDevice(path)
	require.NoError(t, err)

	assert.NoError(t, s.CloseDevice(f))
}

func TestSeatCloseWithoutConnectionIsNoop(t *testing.T) {
	s := &Seat{}
	assert.NoError(t, s.Close())
}
