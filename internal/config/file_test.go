package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadEmptyPath(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`device: linkit-lab
sync_interval: 250ms
pins:
  buzzer: "12"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "linkit-lab", s.Device)
	assert.Equal(t, 250*time.Millisecond, s.SyncInterval)
	assert.Equal(t, "12", s.Pins.Buzzer)

	// untouched keys keep defaults
	assert.Equal(t, 15*time.Second, s.ScanTimeout)
	assert.Equal(t, "2", s.Pins.Pin)
	assert.Equal(t, "8", s.Pins.Ultrasonic)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
