package bluetoothtypes

import (
	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/assigned"
)

type DeviceInfo struct {
	DiscoveredAdapter string            `json:"discovered_adapter"`
	Name              string            `json:"name"`
	Alias             string            `json:"alias"`
	Address           Address           `json:"address"`
	AddressString     string            `json:"address_string"`
	AddressType       string            `json:"address_type"`
	Class             uint32            `json:"class"`
	DeviceMajorName   string            `json:"device_major_name"`
	DeviceMinorName   string            `json:"device_minor_name"`
	ServiceCategories []string          `json:"service_categories"`
	UUIDs             map[string]string `json:"uuids"`
	IsPaired          bool              `json:"is_paired"`
	IsConnected       bool              `json:"is_connected"`
	IsTrusted         bool              `json:"is_trusted"`
	IsBlocked         bool              `json:"is_blocked"`
	IsWakeAllowed     bool              `json:"is_wake_allowed"`
	IsLegacyPairing   bool              `json:"is_legacy_pairing"`
	BatteryPercentage uint8             `json:"battery_percentage"`
}

func NewDeviceInfo(adapter string, addr Address, props map[string]any) DeviceInfo {
	info := DeviceInfo{
		DiscoveredAdapter: adapter,
		Address:           addr,
		AddressString:     addr.String(),
		DeviceMajorName:   assigned.Unknown,
		DeviceMinorName:   assigned.Unknown,
		ServiceCategories: []string{},
		UUIDs:             map[string]string{},
	}

	for k, v := range props {
		info.UpdateProperty(k, v)
	}

	return info
}

// UpdateProperty applies a single BlueZ Device1 or Battery1 property.
// Properties the device record does not carry are ignored.
func (d *DeviceInfo) UpdateProperty(name string, value any) {
	switch name {
	case "Name":
		setValue(&d.Name, value)
	case "Alias":
		setValue(&d.Alias, value)
	case "AddressType":
		setValue(&d.AddressType, value)
	case "Class":
		if class, ok := value.(uint32); ok {
			d.Class = class
			d.DeviceMajorName, d.DeviceMinorName, d.ServiceCategories = describeClass(class)
		}
	case "UUIDs":
		if uuids, ok := value.([]string); ok {
			d.UUIDs = assigned.ServiceNames(uuids)
		}
	case "Paired":
		setValue(&d.IsPaired, value)
	case "Connected":
		setValue(&d.IsConnected, value)
	case "Trusted":
		setValue(&d.IsTrusted, value)
	case "Blocked":
		setValue(&d.IsBlocked, value)
	case "WakeAllowed":
		setValue(&d.IsWakeAllowed, value)
	case "LegacyPairing":
		setValue(&d.IsLegacyPairing, value)
	case "Percentage":
		setValue(&d.BatteryPercentage, value)
	}
}

// Clone returns a copy that shares no slices or maps with d.
func (d DeviceInfo) Clone() DeviceInfo {
	c := d
	c.ServiceCategories = append([]string{}, d.ServiceCategories...)
	c.UUIDs = make(map[string]string, len(d.UUIDs))
	for k, v := range d.UUIDs {
		c.UUIDs[k] = v
	}
	return c
}
