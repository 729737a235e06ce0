package bluetoothtypes

type DeviceEventKind int

const (
	DeviceAdded DeviceEventKind = iota
	DeviceRemoved
	DeviceUpdated
)

func (k DeviceEventKind) String() string {
	switch k {
	case DeviceAdded:
		return "device_added"
	case DeviceRemoved:
		return "device_removed"
	case DeviceUpdated:
		return "device_updated"
	default:
		return "unknown"
	}
}

type DeviceEvent struct {
	Kind   DeviceEventKind `json:"kind"`
	Device DeviceInfo      `json:"device"`
}

type AdapterEventKind int

const (
	AdapterPropertyChanged AdapterEventKind = iota
	DevicesUpdated
)

func (k AdapterEventKind) String() string {
	switch k {
	case AdapterPropertyChanged:
		return "adapter_info_update"
	case DevicesUpdated:
		return "devices_update"
	default:
		return "unknown"
	}
}

// AdapterEvent is what consumers of an adapter observe. Adapter is set for
// AdapterPropertyChanged; Devices and Change are set for DevicesUpdated.
type AdapterEvent struct {
	Kind    AdapterEventKind `json:"kind"`
	Adapter *AdapterInfo     `json:"adapter,omitempty"`
	Devices []DeviceInfo     `json:"devices,omitempty"`
	Change  *DeviceEvent     `json:"change,omitempty"`
}

type PropertyEventKind int

const (
	AdapterChanged PropertyEventKind = iota
	DeviceAppeared
	DeviceVanished
	DeviceChanged
)

// PropertyEvent is a raw change notification coming from the bluetooth
// daemon. Address is only meaningful for device events.
type PropertyEvent struct {
	Kind       PropertyEventKind
	Address    Address
	Properties map[string]any
}
