package bluez

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
	"github.com/Philanthropists/bluetooth-manager/internal/logging"
	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
)

const (
	interfacesAdded   = objectManagerInterface + ".InterfacesAdded"
	interfacesRemoved = objectManagerInterface + ".InterfacesRemoved"
	propertiesChanged = propertiesInterface + ".PropertiesChanged"

	signalBuffer = 16
)

// Watch streams the changes BlueZ reports for adapter and its devices until
// ctx is done. Signals that cannot be decoded are delivered as failures.
func (c *Client) Watch(
	ctx context.Context,
	adapter string,
) (<-chan result.Result[bluetoothtypes.PropertyEvent, error], error) {
	matches := [][]dbus.MatchOption{
		{
			dbus.WithMatchSender(service),
			dbus.WithMatchInterface(objectManagerInterface),
		},
		{
			dbus.WithMatchSender(service),
			dbus.WithMatchInterface(propertiesInterface),
			dbus.WithMatchMember("PropertiesChanged"),
		},
	}

	for i, m := range matches {
		if err := c.conn.AddMatchSignalContext(ctx, m...); err != nil {
			for _, added := range matches[:i] {
				_ = c.conn.RemoveMatchSignalContext(context.Background(), added...)
			}
			return nil, Error.Wrap(err)
		}
	}

	signals := make(chan *dbus.Signal, signalBuffer)
	c.conn.Signal(signals)

	out := make(chan result.Result[bluetoothtypes.PropertyEvent, error])

	go func() {
		defer close(out)
		defer func() {
			c.conn.RemoveSignal(signals)
			for _, m := range matches {
				_ = c.conn.RemoveMatchSignalContext(context.Background(), m...)
			}
		}()

		log := logging.FromContext(ctx).With(logging.String("adapter", adapter))

		for {
			var (
				sig *dbus.Signal
				ok  bool
			)

			select {
			case <-ctx.Done():
				return
			case sig, ok = <-signals:
				if !ok {
					return
				}
			}

			ev, relevant, err := decodeSignal(adapter, sig)
			if err != nil {
				log.Debug("could not decode signal", logging.String("name", sig.Name), logging.Error(err))
				select {
				case <-ctx.Done():
					return
				case out <- result.Failure[bluetoothtypes.PropertyEvent](err):
				}
				continue
			}

			if !relevant {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- result.Success[bluetoothtypes.PropertyEvent, error](ev):
			}
		}
	}()

	return out, nil
}

// decodeSignal turns a BlueZ signal into a PropertyEvent. The boolean is false
// for signals about other adapters or interfaces the manager does not track.
func decodeSignal(adapter string, sig *dbus.Signal) (bluetoothtypes.PropertyEvent, bool, error) {
	switch sig.Name {
	case interfacesAdded:
		return decodeInterfacesAdded(adapter, sig.Body)
	case interfacesRemoved:
		return decodeInterfacesRemoved(adapter, sig.Body)
	case propertiesChanged:
		return decodePropertiesChanged(adapter, sig.Path, sig.Body)
	default:
		return bluetoothtypes.PropertyEvent{}, false, nil
	}
}

func decodeInterfacesAdded(adapter string, body []any) (bluetoothtypes.PropertyEvent, bool, error) {
	if len(body) < 2 {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("InterfacesAdded: unexpected body length %d", len(body))
	}

	p, ok := body[0].(dbus.ObjectPath)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("InterfacesAdded: unexpected path type %T", body[0])
	}

	ifaces, ok := body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("InterfacesAdded: unexpected interfaces type %T", body[1])
	}

	if p == adapterPath(adapter) {
		if _, ok := ifaces[adapterInterface]; !ok {
			if _, ok := ifaces[advertisingInterface]; !ok {
				return bluetoothtypes.PropertyEvent{}, false, nil
			}
		}
		return bluetoothtypes.PropertyEvent{
			Kind:       bluetoothtypes.AdapterChanged,
			Properties: mergeInterfaces(ifaces, adapterInterface, advertisingInterface),
		}, true, nil
	}

	addr, ok := deviceAddress(adapter, p)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, nil
	}

	kind := bluetoothtypes.DeviceAppeared
	if _, ok := ifaces[deviceInterface]; !ok {
		if _, ok := ifaces[batteryInterface]; !ok {
			return bluetoothtypes.PropertyEvent{}, false, nil
		}
		kind = bluetoothtypes.DeviceChanged
	}

	return bluetoothtypes.PropertyEvent{
		Kind:       kind,
		Address:    addr,
		Properties: mergeInterfaces(ifaces, deviceInterface, batteryInterface),
	}, true, nil
}

func decodeInterfacesRemoved(adapter string, body []any) (bluetoothtypes.PropertyEvent, bool, error) {
	if len(body) < 2 {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("InterfacesRemoved: unexpected body length %d", len(body))
	}

	p, ok := body[0].(dbus.ObjectPath)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("InterfacesRemoved: unexpected path type %T", body[0])
	}

	ifaces, ok := body[1].([]string)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("InterfacesRemoved: unexpected interfaces type %T", body[1])
	}

	addr, ok := deviceAddress(adapter, p)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, nil
	}

	for _, iface := range ifaces {
		if iface == deviceInterface {
			return bluetoothtypes.PropertyEvent{
				Kind:    bluetoothtypes.DeviceVanished,
				Address: addr,
			}, true, nil
		}
	}

	return bluetoothtypes.PropertyEvent{}, false, nil
}

func decodePropertiesChanged(adapter string, p dbus.ObjectPath, body []any) (bluetoothtypes.PropertyEvent, bool, error) {
	if len(body) < 2 {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("PropertiesChanged: unexpected body length %d", len(body))
	}

	iface, ok := body[0].(string)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("PropertiesChanged: unexpected interface type %T", body[0])
	}

	changed, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return bluetoothtypes.PropertyEvent{}, false, Error.New("PropertiesChanged: unexpected properties type %T", body[1])
	}

	props := make(map[string]any, len(changed))
	for k, v := range changed {
		props[k] = plainValue(v)
	}

	switch iface {
	case adapterInterface, advertisingInterface:
		if p != adapterPath(adapter) {
			return bluetoothtypes.PropertyEvent{}, false, nil
		}
		return bluetoothtypes.PropertyEvent{
			Kind:       bluetoothtypes.AdapterChanged,
			Properties: props,
		}, true, nil

	case deviceInterface, batteryInterface:
		addr, ok := deviceAddress(adapter, p)
		if !ok {
			return bluetoothtypes.PropertyEvent{}, false, nil
		}
		return bluetoothtypes.PropertyEvent{
			Kind:       bluetoothtypes.DeviceChanged,
			Address:    addr,
			Properties: props,
		}, true, nil
	}

	return bluetoothtypes.PropertyEvent{}, false, nil
}
