package bluetooth

import (
	"context"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
	"github.com/Philanthropists/bluetooth-manager/internal/logging"
	"github.com/Philanthropists/bluetooth-manager/internal/queue"
	"github.com/Philanthropists/bluetooth-manager/internal/queue/impl/mutex"
	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
	"github.com/Philanthropists/bluetooth-manager/pkg/pipe"
)

type eventResult = result.Result[bluetoothtypes.AdapterEvent, error]

// Events streams the changes of the adapter and its devices until ctx is
// done. Only one consumer may listen at a time. Failures reported by the
// backend are delivered in the stream instead of ending it.
func (a *Adapter) Events(ctx context.Context) (<-chan eventResult, error) {
	a.mu.Lock()
	if a.watching {
		a.mu.Unlock()
		return nil, bluetoothtypes.ErrEventConsumerExists.New("%s", a.name)
	}
	a.watching = true
	a.mu.Unlock()

	changes, err := a.backend.Watch(ctx, a.name)
	if err != nil {
		a.mu.Lock()
		a.watching = false
		a.mu.Unlock()
		return nil, err
	}

	var backlog queue.FIFOQueue[eventResult] = mutex.CreateQueue[eventResult](a.backlog)
	notify := make(chan struct{}, 1)
	finished := make(chan struct{})

	push := func(r eventResult) {
		if !backlog.PushBack(&r) {
			a.log.Warn("event backlog is full, dropping event", logging.Int("backlog", a.backlog))
			return
		}
		select {
		case notify <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(finished)

		for change := range pipe.OrDone(ctx.Done(), changes) {
			if change.IsError() {
				push(result.Failure[bluetoothtypes.AdapterEvent](change.GetError()))
				continue
			}

			if ev, ok := a.apply(ctx, change.Unwrap()); ok {
				push(result.Success[bluetoothtypes.AdapterEvent, error](ev))
			}
		}
	}()

	out := make(chan eventResult)

	go func() {
		defer func() {
			a.mu.Lock()
			a.watching = false
			a.mu.Unlock()
		}()
		defer close(out)

		drain := func() bool {
			for {
				r, err := backlog.Pop()
				if err != nil {
					return true
				}
				select {
				case <-ctx.Done():
					return false
				case out <- *r:
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
				if !drain() {
					return
				}
			case <-finished:
				drain()
				return
			}
		}
	}()

	return out, nil
}

// apply updates the cached adapter and device state with a backend change
// and describes it as an AdapterEvent.
func (a *Adapter) apply(ctx context.Context, change bluetoothtypes.PropertyEvent) (bluetoothtypes.AdapterEvent, bool) {
	switch change.Kind {
	case bluetoothtypes.AdapterChanged:
		a.mu.Lock()
		for k, v := range change.Properties {
			a.info.UpdateProperty(k, v)
		}
		info := a.info.Clone()
		a.mu.Unlock()

		return bluetoothtypes.AdapterEvent{
			Kind:    bluetoothtypes.AdapterPropertyChanged,
			Adapter: &info,
		}, true

	case bluetoothtypes.DeviceAppeared:
		info, ok := a.devices.Merge(change.Address, change.Properties)
		if !ok {
			info = bluetoothtypes.NewDeviceInfo(a.name, change.Address, change.Properties)
			a.devices.Put(info)
		}
		return a.devicesUpdated(bluetoothtypes.DeviceAdded, info), true

	case bluetoothtypes.DeviceVanished:
		info, ok := a.devices.Remove(change.Address)
		if !ok {
			info = bluetoothtypes.NewDeviceInfo(a.name, change.Address, nil)
		}
		return a.devicesUpdated(bluetoothtypes.DeviceRemoved, info), true

	case bluetoothtypes.DeviceChanged:
		info, ok := a.devices.Merge(change.Address, change.Properties)
		if !ok {
			props, err := a.backend.DeviceProperties(ctx, a.name, change.Address)
			if err != nil {
				a.log.Warn("could not load changed device",
					logging.Stringer("address", change.Address),
					logging.Error(err),
				)
				return bluetoothtypes.AdapterEvent{}, false
			}
			info = bluetoothtypes.NewDeviceInfo(a.name, change.Address, props)
			a.devices.Put(info)
		}
		return a.devicesUpdated(bluetoothtypes.DeviceUpdated, info), true
	}

	return bluetoothtypes.AdapterEvent{}, false
}

func (a *Adapter) devicesUpdated(kind bluetoothtypes.DeviceEventKind, info bluetoothtypes.DeviceInfo) bluetoothtypes.AdapterEvent {
	return bluetoothtypes.AdapterEvent{
		Kind:    bluetoothtypes.DevicesUpdated,
		Devices: a.devices.List(),
		Change: &bluetoothtypes.DeviceEvent{
			Kind:   kind,
			Device: info,
		},
	}
}
