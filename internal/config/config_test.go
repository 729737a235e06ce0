package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), c)
	assert.Equal(t, DefaultDiscoveryTimeout, c.DiscoveryTimeout())
	assert.Equal(t, time.Duration(0), c.DeviceExpiration())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"adapter": "hci1", "device_expiration_seconds": 600, "goroutines": 4}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hci1", c.Adapter)
	assert.Equal(t, 10*time.Minute, c.DeviceExpiration())
	assert.Equal(t, uint(4), c.Goroutines)
	assert.Equal(t, DefaultEventBacklog, c.EventBacklog)
	assert.Equal(t, DefaultDiscoveryTimeout, c.DiscoveryTimeout())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, Error.Has(err))
}

func TestReadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"adapter":`},
		{name: "wrong type", content: `{"goroutines": "many"}`},
		{name: "negative backlog", content: `{"event_backlog": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.content))
			assert.True(t, Error.Has(err))
		})
	}
}
