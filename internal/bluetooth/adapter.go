package bluetooth

import (
	"context"
	"sync"
	"time"

	"github.com/zeebo/errs"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/devicelist"
	"github.com/Philanthropists/bluetooth-manager/internal/logging"
	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
	"github.com/Philanthropists/bluetooth-manager/pkg/pipe"
)

const stopDiscoveryTimeout = 5 * time.Second

type discovery struct {
	stop chan struct{}
	once sync.Once
}

func (d *discovery) cancel() {
	d.once.Do(func() {
		close(d.stop)
	})
}

// Adapter is a single bluetooth adapter together with the devices it knows.
type Adapter struct {
	name    string
	backend Backend
	log     *logging.Logger
	backlog int

	mu        sync.Mutex
	info      bluetoothtypes.AdapterInfo
	discovery *discovery
	watching  bool

	devices *devicelist.DeviceList
}

func NewAdapter(ctx context.Context, backend Backend, name string, opts Options) (*Adapter, error) {
	props, err := backend.AdapterProperties(ctx, name)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		name:    name,
		backend: backend,
		log:     opts.log().With(logging.String("adapter", name)),
		backlog: opts.EventBacklog,
		info:    bluetoothtypes.NewAdapterInfo(name, props),
		devices: devicelist.New(opts.DeviceExpiration),
	}

	if err := a.loadDevices(ctx, opts.goroutines()); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Adapter) loadDevices(ctx context.Context, goroutines int) error {
	addrs, err := a.backend.DeviceAddresses(ctx, a.name)
	if err != nil {
		return err
	}

	done := ctx.Done()

	in := make(chan bluetoothtypes.Address)
	go func() {
		defer close(in)
		for _, addr := range addrs {
			select {
			case <-done:
				return
			case in <- addr:
			}
		}
	}()

	load := func(addr bluetoothtypes.Address) result.Result[bluetoothtypes.DeviceInfo, error] {
		props, err := a.backend.DeviceProperties(ctx, a.name, addr)
		if err != nil {
			return result.Failure[bluetoothtypes.DeviceInfo](err)
		}
		return result.Success[bluetoothtypes.DeviceInfo, error](bluetoothtypes.NewDeviceInfo(a.name, addr, props))
	}

	loaded, failures := pipe.Collect(done, pipe.ConcurrentMap(done, goroutines, in, load))

	if err := ctx.Err(); err != nil {
		return errs.Wrap(err)
	}

	for _, info := range loaded {
		a.devices.Put(info)
	}

	if len(failures) > 0 {
		a.log.Warn("some known devices could not be loaded",
			logging.Int("failed", len(failures)),
			logging.Error(errs.Combine(failures...)),
		)
	}

	a.log.Debug("loaded known devices",
		logging.Int("found", len(addrs)),
		logging.Int("loaded", len(loaded)),
		logging.Int("failed", len(failures)),
	)

	return nil
}

func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) AdapterInfo() bluetoothtypes.AdapterInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.info.Clone()
}

func (a *Adapter) KnownDevices() []bluetoothtypes.DeviceInfo {
	return a.devices.List()
}

func (a *Adapter) SetPowered(ctx context.Context, powered bool) error {
	return a.setProperty(ctx, "Powered", powered)
}

func (a *Adapter) SetAlias(ctx context.Context, alias string) error {
	return a.setProperty(ctx, "Alias", alias)
}

func (a *Adapter) SetPairable(ctx context.Context, pairable bool) error {
	return a.setProperty(ctx, "Pairable", pairable)
}

func (a *Adapter) SetDiscoverable(ctx context.Context, discoverable bool) error {
	return a.setProperty(ctx, "Discoverable", discoverable)
}

func (a *Adapter) SetDiscoverableTimeout(ctx context.Context, seconds uint32) error {
	return a.setProperty(ctx, "DiscoverableTimeout", seconds)
}

func (a *Adapter) setProperty(ctx context.Context, name string, value any) error {
	if err := a.backend.SetAdapterProperty(ctx, a.name, name, value); err != nil {
		return err
	}

	a.mu.Lock()
	a.info.UpdateProperty(name, value)
	a.mu.Unlock()

	a.log.Debug("adapter property set", logging.String("property", name), logging.Any("value", value))

	return nil
}

func (a *Adapter) IsDiscovering() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.discovery != nil
}

// DiscoverDevices starts looking for devices in range. Discovery stops after
// timeout, on CancelDiscovering or when ctx is done, whichever comes first; a
// non-positive timeout only stops on the latter two. Devices found show up in
// the event stream and in KnownDevices.
func (a *Adapter) DiscoverDevices(ctx context.Context, timeout time.Duration) error {
	a.mu.Lock()
	if a.discovery != nil {
		a.mu.Unlock()
		return bluetoothtypes.ErrAdapterIsDiscovering.New("%s", a.name)
	}
	if !a.info.IsPowered {
		a.mu.Unlock()
		return bluetoothtypes.ErrAdapterNotPoweredOn.New("%s", a.name)
	}
	d := &discovery{stop: make(chan struct{})}
	a.discovery = d
	a.mu.Unlock()

	if err := a.backend.StartDiscovery(ctx, a.name); err != nil {
		a.finishDiscovery(d)
		return err
	}

	a.log.Info("discovery started", logging.Duration("timeout", timeout))

	go func() {
		defer a.finishDiscovery(d)

		var expired <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			expired = timer.C
		}

		select {
		case <-expired:
			a.log.Debug("discovery timed out")
		case <-d.stop:
			a.log.Debug("discovery cancelled")
		case <-ctx.Done():
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), stopDiscoveryTimeout)
		defer cancel()

		if err := a.backend.StopDiscovery(stopCtx, a.name); err != nil {
			a.log.Warn("could not stop discovery", logging.Error(err))
		}
	}()

	return nil
}

// CancelDiscovering ends a running discovery. It does nothing otherwise.
func (a *Adapter) CancelDiscovering() {
	a.mu.Lock()
	d := a.discovery
	a.mu.Unlock()

	if d != nil {
		d.cancel()
	}
}

func (a *Adapter) finishDiscovery(d *discovery) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.discovery == d {
		a.discovery = nil
	}
}

func (a *Adapter) ConnectDevice(ctx context.Context, addr bluetoothtypes.Address) error {
	if _, ok := a.devices.Get(addr); !ok {
		return bluetoothtypes.ErrDeviceNotFound.New("%s", addr)
	}

	return a.backend.Connect(ctx, a.name, addr)
}

func (a *Adapter) DisconnectDevice(ctx context.Context, addr bluetoothtypes.Address) error {
	if _, ok := a.devices.Get(addr); !ok {
		return bluetoothtypes.ErrDeviceNotFound.New("%s", addr)
	}

	return a.backend.Disconnect(ctx, a.name, addr)
}
