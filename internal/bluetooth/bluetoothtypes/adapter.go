package bluetoothtypes

import (
	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/assigned"
)

type AdapterInfo struct {
	Discovering                        bool              `json:"discovering"`
	Address                            string            `json:"address"`
	AddressType                        string            `json:"address_type"`
	Alias                              string            `json:"alias"`
	Pairable                           bool              `json:"pairable"`
	Name                               string            `json:"name"`
	IsDiscoverable                     bool              `json:"is_discoverable"`
	IsPowered                          bool              `json:"is_powered"`
	SystemName                         string            `json:"system_name"`
	PairableTimeout                    uint32            `json:"pairable_timeout"`
	DiscoverableTimeout                uint32            `json:"discoverable_timeout"`
	Class                              uint32            `json:"class"`
	DeviceMajorName                    string            `json:"device_major_name"`
	DeviceMinorName                    string            `json:"device_minor_name"`
	ServiceCategories                  []string          `json:"service_categories"`
	Icon                               string            `json:"icon"`
	ActiveAdvertisingInstances         uint8             `json:"active_advertising_instances"`
	SupportedAdvertisingInstances      uint8             `json:"supported_advertising_instances"`
	SupportedAdvertisingSystemIncludes []string          `json:"supported_advertising_system_includes"`
	SupportedAdvertisingFeatures       []string          `json:"supported_advertising_features"`
	MaxAdvertisementLength             uint8             `json:"max_advertisement_length"`
	MaxScanResponseLength              uint8             `json:"max_scan_response_length"`
	MinTxPower                         int16             `json:"min_tx_power"`
	MaxTxPower                         int16             `json:"max_tx_power"`
	UUIDs                              map[string]string `json:"uuids"`
}

// NewAdapterInfo builds the info of the adapter called name (e.g. hci0) from
// its BlueZ properties.
func NewAdapterInfo(name string, props map[string]any) AdapterInfo {
	info := AdapterInfo{
		Name:                               name,
		DeviceMajorName:                    assigned.Unknown,
		DeviceMinorName:                    assigned.Unknown,
		ServiceCategories:                  []string{},
		SupportedAdvertisingSystemIncludes: []string{},
		SupportedAdvertisingFeatures:       []string{},
		UUIDs:                              map[string]string{},
	}

	for k, v := range props {
		info.UpdateProperty(k, v)
	}

	return info
}

// UpdateProperty applies a single BlueZ Adapter1 or LEAdvertisingManager1
// property. Unknown properties and values of an unexpected type are ignored.
func (a *AdapterInfo) UpdateProperty(name string, value any) {
	switch name {
	case "Address":
		setValue(&a.Address, value)
	case "AddressType":
		setValue(&a.AddressType, value)
	case "Name":
		setValue(&a.SystemName, value)
	case "Alias":
		setValue(&a.Alias, value)
	case "Icon":
		setValue(&a.Icon, value)
	case "Class":
		if class, ok := value.(uint32); ok {
			a.Class = class
			a.DeviceMajorName, a.DeviceMinorName, a.ServiceCategories = describeClass(class)
		}
	case "Powered":
		setValue(&a.IsPowered, value)
	case "Discoverable":
		setValue(&a.IsDiscoverable, value)
	case "Pairable":
		setValue(&a.Pairable, value)
	case "PairableTimeout":
		setValue(&a.PairableTimeout, value)
	case "DiscoverableTimeout":
		setValue(&a.DiscoverableTimeout, value)
	case "Discovering":
		setValue(&a.Discovering, value)
	case "UUIDs":
		if uuids, ok := value.([]string); ok {
			a.UUIDs = assigned.ServiceNames(uuids)
		}
	case "ActiveInstances":
		setValue(&a.ActiveAdvertisingInstances, value)
	case "SupportedInstances":
		setValue(&a.SupportedAdvertisingInstances, value)
	case "SupportedIncludes":
		setValue(&a.SupportedAdvertisingSystemIncludes, value)
	case "SupportedFeatures":
		setValue(&a.SupportedAdvertisingFeatures, value)
	case "SupportedCapabilities":
		caps, ok := value.(map[string]any)
		if !ok {
			return
		}
		setValue(&a.MaxAdvertisementLength, caps["MaxAdvLen"])
		setValue(&a.MaxScanResponseLength, caps["MaxScnRspLen"])
		setValue(&a.MinTxPower, caps["MinTxPower"])
		setValue(&a.MaxTxPower, caps["MaxTxPower"])
	}
}

func setValue[T any](dst *T, value any) {
	if v, ok := value.(T); ok {
		*dst = v
	}
}

func describeClass(class uint32) (major, minor string, services []string) {
	major, ok := assigned.MajorDeviceClass(class)
	if !ok {
		major = assigned.Unknown
	}

	minor, ok = assigned.MinorDeviceClass(class)
	if !ok {
		minor = assigned.Unknown
	}

	return major, minor, assigned.ServiceClasses(class)
}

// Clone returns a copy that shares no slices or maps with a.
func (a AdapterInfo) Clone() AdapterInfo {
	c := a
	c.ServiceCategories = append([]string{}, a.ServiceCategories...)
	c.SupportedAdvertisingSystemIncludes = append([]string{}, a.SupportedAdvertisingSystemIncludes...)
	c.SupportedAdvertisingFeatures = append([]string{}, a.SupportedAdvertisingFeatures...)
	c.UUIDs = make(map[string]string, len(a.UUIDs))
	for k, v := range a.UUIDs {
		c.UUIDs[k] = v
	}
	return c
}
