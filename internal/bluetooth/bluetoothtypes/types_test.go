package bluetoothtypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("00:1a:7D:DA:71:13")
	require.NoError(t, err)
	assert.Equal(t, Address{0x00, 0x1A, 0x7D, 0xDA, 0x71, 0x13}, addr)
	assert.Equal(t, "00:1A:7D:DA:71:13", addr.String())
}

func Test_ParseAddressRejectsMalformedInput(t *testing.T) {
	inputs := []string{
		"",
		"00:1A:7D:DA:71",
		"00:1A:7D:DA:71:13:00",
		"00:1A:7D:DA:71:1",
		"00:1A:7D:DA:71:GG",
		"001A7DDA7113",
	}

	for _, in := range inputs {
		_, err := ParseAddress(in)
		assert.True(t, ErrInvalidAddress.Has(err), "input %q", in)
	}
}

func Test_AddressEncodesAsNumbers(t *testing.T) {
	raw, err := json.Marshal(Address{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3,4,5,6]", string(raw))
}

func TestNewAdapterInfo(t *testing.T) {
	info := NewAdapterInfo("hci0", map[string]any{
		"Address":             "00:1A:7D:DA:71:13",
		"AddressType":         "public",
		"Name":                "workstation",
		"Alias":               "desk",
		"Class":               uint32(0x7C010C),
		"Powered":             true,
		"Discoverable":        false,
		"Pairable":            true,
		"PairableTimeout":     uint32(0),
		"DiscoverableTimeout": uint32(180),
		"Discovering":         false,
		"UUIDs":               []string{"0000110b-0000-1000-8000-00805f9b34fb"},
		"ActiveInstances":     uint8(1),
		"SupportedInstances":  uint8(4),
		"SupportedIncludes":   []string{"tx-power", "appearance"},
		"SupportedFeatures":   []string{"CanSetTxPower"},
		"SupportedCapabilities": map[string]any{
			"MaxAdvLen":    uint8(31),
			"MaxScnRspLen": uint8(31),
			"MinTxPower":   int16(-34),
			"MaxTxPower":   int16(7),
		},
		"Modalias": "usb:v1D6Bp0246d0540",
	})

	assert.Equal(t, "hci0", info.Name)
	assert.Equal(t, "workstation", info.SystemName)
	assert.Equal(t, "desk", info.Alias)
	assert.Equal(t, "00:1A:7D:DA:71:13", info.Address)
	assert.Equal(t, "public", info.AddressType)
	assert.True(t, info.IsPowered)
	assert.True(t, info.Pairable)
	assert.False(t, info.IsDiscoverable)
	assert.Equal(t, uint32(180), info.DiscoverableTimeout)
	assert.Equal(t, "Computer", info.DeviceMajorName)
	assert.Equal(t, "Laptop", info.DeviceMinorName)
	assert.Equal(t, []string{"Rendering", "Capturing", "Object Transfer", "Audio", "Telephony"}, info.ServiceCategories)
	assert.Equal(t, map[string]string{"0000110b-0000-1000-8000-00805f9b34fb": "Audio Sink"}, info.UUIDs)
	assert.Equal(t, uint8(1), info.ActiveAdvertisingInstances)
	assert.Equal(t, uint8(4), info.SupportedAdvertisingInstances)
	assert.Equal(t, []string{"tx-power", "appearance"}, info.SupportedAdvertisingSystemIncludes)
	assert.Equal(t, []string{"CanSetTxPower"}, info.SupportedAdvertisingFeatures)
	assert.Equal(t, uint8(31), info.MaxAdvertisementLength)
	assert.Equal(t, uint8(31), info.MaxScanResponseLength)
	assert.Equal(t, int16(-34), info.MinTxPower)
	assert.Equal(t, int16(7), info.MaxTxPower)
}

func Test_AdapterInfoDefaultsWithoutProperties(t *testing.T) {
	info := NewAdapterInfo("hci1", nil)
	assert.Equal(t, "hci1", info.Name)
	assert.Equal(t, "UNKNOWN", info.DeviceMajorName)
	assert.Equal(t, "UNKNOWN", info.DeviceMinorName)
	assert.NotNil(t, info.ServiceCategories)
	assert.NotNil(t, info.UUIDs)

	raw, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"service_categories":[]`)
	assert.Contains(t, string(raw), `"uuids":{}`)
}

func Test_AdapterInfoIgnoresMistypedValues(t *testing.T) {
	info := NewAdapterInfo("hci0", map[string]any{"Powered": true})

	info.UpdateProperty("Powered", "yes")
	info.UpdateProperty("Class", 12)
	info.UpdateProperty("Unknown", 1)

	assert.True(t, info.IsPowered)
	assert.Zero(t, info.Class)
}

func Test_AdapterInfoCloneDoesNotShare(t *testing.T) {
	info := NewAdapterInfo("hci0", map[string]any{
		"UUIDs": []string{"0000110b-0000-1000-8000-00805f9b34fb"},
	})

	c := info.Clone()
	c.UUIDs["x"] = "y"
	c.ServiceCategories = append(c.ServiceCategories, "z")

	assert.Len(t, info.UUIDs, 1)
	assert.Empty(t, info.ServiceCategories)
}

func TestNewDeviceInfo(t *testing.T) {
	addr := Address{0xAA, 0xBB, 0xCC, 0x00, 0x11, 0x22}
	info := NewDeviceInfo("hci0", addr, map[string]any{
		"Name":          "Headphones",
		"Alias":         "My Headphones",
		"AddressType":   "public",
		"Class":         uint32(0x240418),
		"UUIDs":         []string{"0000110b-0000-1000-8000-00805f9b34fb", "0000111e-0000-1000-8000-00805f9b34fb"},
		"Paired":        true,
		"Connected":     true,
		"Trusted":       true,
		"Blocked":       false,
		"WakeAllowed":   false,
		"LegacyPairing": false,
		"Percentage":    uint8(80),
		"RSSI":          int16(-60),
	})

	assert.Equal(t, "hci0", info.DiscoveredAdapter)
	assert.Equal(t, addr, info.Address)
	assert.Equal(t, "AA:BB:CC:00:11:22", info.AddressString)
	assert.Equal(t, "Headphones", info.Name)
	assert.Equal(t, "My Headphones", info.Alias)
	assert.Equal(t, "Audio/Video", info.DeviceMajorName)
	assert.Equal(t, "Headphones", info.DeviceMinorName)
	assert.Equal(t, []string{"Rendering", "Audio"}, info.ServiceCategories)
	assert.Len(t, info.UUIDs, 2)
	assert.True(t, info.IsPaired)
	assert.True(t, info.IsConnected)
	assert.True(t, info.IsTrusted)
	assert.Equal(t, uint8(80), info.BatteryPercentage)
}

func Test_DeviceInfoUpdateProperty(t *testing.T) {
	info := NewDeviceInfo("hci0", Address{}, nil)
	assert.False(t, info.IsConnected)

	info.UpdateProperty("Connected", true)
	info.UpdateProperty("Percentage", uint8(42))

	assert.True(t, info.IsConnected)
	assert.Equal(t, uint8(42), info.BatteryPercentage)
}

func TestEventKindNames(t *testing.T) {
	assert.Equal(t, "adapter_info_update", AdapterPropertyChanged.String())
	assert.Equal(t, "devices_update", DevicesUpdated.String())
	assert.Equal(t, "device_added", DeviceAdded.String())
	assert.Equal(t, "device_removed", DeviceRemoved.String())
	assert.Equal(t, "device_updated", DeviceUpdated.String())
}
