package config

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/zeebo/errs"
)

var Error = errs.Class("config")

const (
	DefaultDiscoveryTimeout = 30 * time.Second
	DefaultEventBacklog     = 64
)

type Config struct {
	Adapter                 string `json:"adapter"`
	DiscoveryTimeoutSeconds uint   `json:"discovery_timeout_seconds"`
	DeviceExpirationSeconds uint   `json:"device_expiration_seconds"`
	EventBacklog            int    `json:"event_backlog"`
	Goroutines              uint   `json:"goroutines"`
}

func Default() Config {
	return Config{
		DiscoveryTimeoutSeconds: uint(DefaultDiscoveryTimeout / time.Second),
		EventBacklog:            DefaultEventBacklog,
	}
}

// Load reads a JSON config file on top of the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, Error.Wrap(err)
	}
	defer f.Close()

	return Read(f)
}

func Read(r io.Reader) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, Error.Wrap(err)
	}

	config := Default()
	if err := json.Unmarshal(raw, &config); err != nil {
		return Config{}, Error.Wrap(err)
	}

	if config.EventBacklog < 0 {
		return Config{}, Error.New("event_backlog must not be negative: %d", config.EventBacklog)
	}

	return config, nil
}

func (c Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoveryTimeoutSeconds) * time.Second
}

func (c Config) DeviceExpiration() time.Duration {
	return time.Duration(c.DeviceExpirationSeconds) * time.Second
}
