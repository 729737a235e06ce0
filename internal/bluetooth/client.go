// Package bluetooth manages the default bluetooth adapter of the system: its
// settings, the devices it knows about and the discovery of new ones.
package bluetooth

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/exp/slices"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
	"github.com/Philanthropists/bluetooth-manager/internal/logging"
	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
)

const defaultAdapter = "hci0"

// Backend is the bluetooth daemon the manager drives. bluez.Client is the
// production implementation.
type Backend interface {
	AdapterNames(ctx context.Context) ([]string, error)
	AdapterProperties(ctx context.Context, adapter string) (map[string]any, error)
	SetAdapterProperty(ctx context.Context, adapter, name string, value any) error
	DeviceAddresses(ctx context.Context, adapter string) ([]bluetoothtypes.Address, error)
	DeviceProperties(ctx context.Context, adapter string, addr bluetoothtypes.Address) (map[string]any, error)
	StartDiscovery(ctx context.Context, adapter string) error
	StopDiscovery(ctx context.Context, adapter string) error
	Connect(ctx context.Context, adapter string, addr bluetoothtypes.Address) error
	Disconnect(ctx context.Context, adapter string, addr bluetoothtypes.Address) error
	Watch(ctx context.Context, adapter string) (<-chan result.Result[bluetoothtypes.PropertyEvent, error], error)
}

type Options struct {
	// Adapter is the preferred adapter name; empty picks the default one.
	Adapter string
	// DeviceExpiration forgets devices that were not refreshed for this long.
	// Zero keeps them forever.
	DeviceExpiration time.Duration
	// EventBacklog bounds the events waiting for the consumer; zero means
	// unbounded.
	EventBacklog int
	// Goroutines used to load the known devices; zero uses one per CPU.
	Goroutines uint

	Log *logging.Logger
}

func (o Options) log() *logging.Logger {
	if o.Log == nil {
		return logging.New()
	}
	return o.Log
}

func (o Options) goroutines() int {
	if o.Goroutines == 0 {
		return runtime.NumCPU()
	}
	return int(o.Goroutines)
}

// Client represents the bluetooth side of the host system.
type Client struct {
	adapterNames []string
	adapter      *Adapter
}

func NewClient(ctx context.Context, backend Backend, opts Options) (*Client, error) {
	names, err := backend.AdapterNames(ctx)
	if err != nil {
		return nil, err
	}

	slices.Sort(names)

	name, err := pickAdapter(names, opts.Adapter)
	if err != nil {
		return nil, err
	}

	opts.log().Debug("selected adapter",
		logging.String("adapter", name),
		logging.Strings("available", names),
	)

	adapter, err := NewAdapter(ctx, backend, name, opts)
	if err != nil {
		return nil, err
	}

	return &Client{
		adapterNames: names,
		adapter:      adapter,
	}, nil
}

func pickAdapter(names []string, preferred string) (string, error) {
	if len(names) == 0 {
		return "", bluetoothtypes.ErrAdapterNotFound.New("")
	}

	for _, c := range []string{preferred, defaultAdapter} {
		if c != "" && slices.Contains(names, c) {
			return c, nil
		}
	}

	return names[0], nil
}

func (c *Client) Adapter() *Adapter {
	return c.adapter
}

func (c *Client) AdapterNames() []string {
	return append([]string{}, c.adapterNames...)
}
