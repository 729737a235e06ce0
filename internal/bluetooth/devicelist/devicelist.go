package devicelist

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slices"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
)

type inMemoryCache interface {
	SetDefault(k string, v any)
	Get(k string) (any, bool)
	Delete(k string)
	Items() map[string]cache.Item
}

// DeviceList keeps the devices known to a single adapter. Devices that are not
// refreshed within the expiration are forgotten; a non-positive expiration
// keeps them forever.
type DeviceList struct {
	mu    sync.Mutex
	cache inMemoryCache
}

func New(expiration time.Duration) *DeviceList {
	const defaultCleanupInterval = 1 * time.Minute

	if expiration <= 0 {
		expiration = cache.NoExpiration
	}

	return &DeviceList{
		cache: cache.New(expiration, defaultCleanupInterval),
	}
}

func (l *DeviceList) Put(info bluetoothtypes.DeviceInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.SetDefault(info.Address.String(), info.Clone())
}

func (l *DeviceList) Get(addr bluetoothtypes.Address) (bluetoothtypes.DeviceInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.get(addr)
	if !ok {
		return bluetoothtypes.DeviceInfo{}, false
	}
	return info.Clone(), true
}

func (l *DeviceList) Remove(addr bluetoothtypes.Address) (bluetoothtypes.DeviceInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.get(addr)
	if !ok {
		return bluetoothtypes.DeviceInfo{}, false
	}

	l.cache.Delete(addr.String())
	return info, true
}

// Update applies one property to a known device and returns the new info.
func (l *DeviceList) Update(addr bluetoothtypes.Address, name string, value any) (bluetoothtypes.DeviceInfo, bool) {
	return l.Merge(addr, map[string]any{name: value})
}

// Merge applies props to a known device and returns the new info.
func (l *DeviceList) Merge(addr bluetoothtypes.Address, props map[string]any) (bluetoothtypes.DeviceInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.get(addr)
	if !ok {
		return bluetoothtypes.DeviceInfo{}, false
	}

	info = info.Clone()
	for k, v := range props {
		info.UpdateProperty(k, v)
	}
	l.cache.SetDefault(addr.String(), info)

	return info.Clone(), true
}

// List returns every known device: disconnected devices first, then
// connected ones, each group sorted by name and then by address.
func (l *DeviceList) List() []bluetoothtypes.DeviceInfo {
	l.mu.Lock()
	items := l.cache.Items()
	l.mu.Unlock()

	devices := make([]bluetoothtypes.DeviceInfo, 0, len(items))
	for _, item := range items {
		if info, ok := item.Object.(bluetoothtypes.DeviceInfo); ok {
			devices = append(devices, info.Clone())
		}
	}

	slices.SortFunc(devices, func(a, b bluetoothtypes.DeviceInfo) int {
		if a.IsConnected != b.IsConnected {
			if a.IsConnected {
				return 1
			}
			return -1
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.AddressString, b.AddressString)
	})

	return devices
}

func (l *DeviceList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.cache.Items())
}

func (l *DeviceList) get(addr bluetoothtypes.Address) (bluetoothtypes.DeviceInfo, bool) {
	v, found := l.cache.Get(addr.String())
	if !found {
		return bluetoothtypes.DeviceInfo{}, false
	}

	info, ok := v.(bluetoothtypes.DeviceInfo)
	return info, ok
}
