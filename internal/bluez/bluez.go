// Package bluez talks to the BlueZ daemon over the system D-Bus.
package bluez

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/zeebo/errs"
	"golang.org/x/exp/slices"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
)

const (
	service = "org.bluez"
	root    = "/org/bluez"

	adapterInterface     = "org.bluez.Adapter1"
	advertisingInterface = "org.bluez.LEAdvertisingManager1"
	deviceInterface      = "org.bluez.Device1"
	batteryInterface     = "org.bluez.Battery1"

	objectManagerInterface = "org.freedesktop.DBus.ObjectManager"
	propertiesInterface    = "org.freedesktop.DBus.Properties"
)

// Error wraps failures reported by the bus or the daemon.
var Error = errs.Class("bluez")

// Conn is the part of *dbus.Conn the client relies on.
type Conn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	AddMatchSignalContext(ctx context.Context, options ...dbus.MatchOption) error
	RemoveMatchSignalContext(ctx context.Context, options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

type Client struct {
	conn Conn
}

// Dial opens a private connection to the system bus.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return NewClient(conn), nil
}

func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	return Error.Wrap(c.conn.Close())
}

func (c *Client) AdapterNames(ctx context.Context) ([]string, error) {
	objects, err := c.managedObjects(ctx)
	if err != nil {
		return nil, err
	}

	return adapterNames(objects), nil
}

func (c *Client) AdapterProperties(ctx context.Context, adapter string) (map[string]any, error) {
	objects, err := c.managedObjects(ctx)
	if err != nil {
		return nil, err
	}

	props, ok := adapterProperties(objects, adapter)
	if !ok {
		return nil, bluetoothtypes.ErrAdapterNotFound.New("%s", adapter)
	}

	return props, nil
}

func (c *Client) SetAdapterProperty(ctx context.Context, adapter, name string, value any) error {
	call := c.conn.Object(service, adapterPath(adapter)).CallWithContext(ctx,
		propertiesInterface+".Set", 0,
		adapterInterface, name, dbus.MakeVariant(value),
	)
	return Error.Wrap(call.Err)
}

func (c *Client) DeviceAddresses(ctx context.Context, adapter string) ([]bluetoothtypes.Address, error) {
	objects, err := c.managedObjects(ctx)
	if err != nil {
		return nil, err
	}

	return deviceAddresses(objects, adapter), nil
}

func (c *Client) DeviceProperties(
	ctx context.Context,
	adapter string,
	addr bluetoothtypes.Address,
) (map[string]any, error) {
	objects, err := c.managedObjects(ctx)
	if err != nil {
		return nil, err
	}

	props, ok := deviceProperties(objects, adapter, addr)
	if !ok {
		return nil, bluetoothtypes.ErrDeviceNotFound.New("%s", addr)
	}

	return props, nil
}

func (c *Client) StartDiscovery(ctx context.Context, adapter string) error {
	return c.call(ctx, adapterPath(adapter), adapterInterface+".StartDiscovery")
}

func (c *Client) StopDiscovery(ctx context.Context, adapter string) error {
	return c.call(ctx, adapterPath(adapter), adapterInterface+".StopDiscovery")
}

func (c *Client) Connect(ctx context.Context, adapter string, addr bluetoothtypes.Address) error {
	return c.call(ctx, devicePath(adapter, addr), deviceInterface+".Connect")
}

func (c *Client) Disconnect(ctx context.Context, adapter string, addr bluetoothtypes.Address) error {
	return c.call(ctx, devicePath(adapter, addr), deviceInterface+".Disconnect")
}

func (c *Client) call(ctx context.Context, p dbus.ObjectPath, method string) error {
	call := c.conn.Object(service, p).CallWithContext(ctx, method, 0)
	return Error.Wrap(call.Err)
}

func (c *Client) managedObjects(ctx context.Context) (managedObjects, error) {
	var objects managedObjects

	err := c.conn.Object(service, "/").
		CallWithContext(ctx, objectManagerInterface+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return objects, nil
}

func adapterPath(adapter string) dbus.ObjectPath {
	return dbus.ObjectPath(root + "/" + adapter)
}

func devicePath(adapter string, addr bluetoothtypes.Address) dbus.ObjectPath {
	id := strings.ReplaceAll(addr.String(), ":", "_")
	return dbus.ObjectPath(string(adapterPath(adapter)) + "/dev_" + id)
}

// deviceAddress extracts the address of a device object that belongs to
// adapter. Objects below a device, like GATT services, are not devices.
func deviceAddress(adapter string, p dbus.ObjectPath) (bluetoothtypes.Address, bool) {
	prefix := string(adapterPath(adapter)) + "/dev_"

	s := string(p)
	if !strings.HasPrefix(s, prefix) {
		return bluetoothtypes.Address{}, false
	}

	id := strings.TrimPrefix(s, prefix)
	if strings.Contains(id, "/") {
		return bluetoothtypes.Address{}, false
	}

	addr, err := bluetoothtypes.ParseAddress(strings.ReplaceAll(id, "_", ":"))
	if err != nil {
		return bluetoothtypes.Address{}, false
	}

	return addr, true
}

func adapterNames(objects managedObjects) []string {
	names := []string{}
	for p, ifaces := range objects {
		if _, ok := ifaces[adapterInterface]; ok {
			names = append(names, path.Base(string(p)))
		}
	}

	slices.Sort(names)
	return names
}

func adapterProperties(objects managedObjects, adapter string) (map[string]any, bool) {
	ifaces, ok := objects[adapterPath(adapter)]
	if !ok {
		return nil, false
	}

	if _, ok := ifaces[adapterInterface]; !ok {
		return nil, false
	}

	return mergeInterfaces(ifaces, adapterInterface, advertisingInterface), true
}

func deviceAddresses(objects managedObjects, adapter string) []bluetoothtypes.Address {
	var addrs []bluetoothtypes.Address
	for p, ifaces := range objects {
		if _, ok := ifaces[deviceInterface]; !ok {
			continue
		}

		if addr, ok := deviceAddress(adapter, p); ok {
			addrs = append(addrs, addr)
		}
	}

	slices.SortFunc(addrs, func(a, b bluetoothtypes.Address) int {
		return bytes.Compare(a[:], b[:])
	})

	return addrs
}

func deviceProperties(objects managedObjects, adapter string, addr bluetoothtypes.Address) (map[string]any, bool) {
	ifaces, ok := objects[devicePath(adapter, addr)]
	if !ok {
		return nil, false
	}

	if _, ok := ifaces[deviceInterface]; !ok {
		return nil, false
	}

	return mergeInterfaces(ifaces, deviceInterface, batteryInterface), true
}

func mergeInterfaces(ifaces map[string]map[string]dbus.Variant, names ...string) map[string]any {
	props := make(map[string]any)
	for _, name := range names {
		for k, v := range ifaces[name] {
			props[k] = plainValue(v)
		}
	}
	return props
}

// plainValue strips the D-Bus wrappers from a property value so that callers
// only see plain Go types.
func plainValue(v any) any {
	switch t := v.(type) {
	case dbus.Variant:
		return plainValue(t.Value())
	case dbus.ObjectPath:
		return string(t)
	case map[string]dbus.Variant:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[k] = plainValue(v)
		}
		return m
	case []dbus.ObjectPath:
		s := make([]string, len(t))
		for i, p := range t {
			s[i] = string(p)
		}
		return s
	default:
		return v
	}
}
