// Package assigned decodes the Bluetooth assigned numbers reported by BlueZ:
// the class of device bit field and 16-bit service UUIDs.
package assigned

import (
	"github.com/google/uuid"
)

const Unknown = "UNKNOWN"

const (
	serviceClassMask = 0xFFE000
	majorClassMask   = 0x1F00
	minorClassMask   = 0x1FFC
)

type bitName struct {
	bit  uint32
	name string
}

// ordered by bit so results are stable
var serviceClasses = []bitName{
	{0x002000, "Limited Discoverable Mode"},
	{0x004000, "LE audio"},
	{0x008000, "Reserved for future use"},
	{0x010000, "Positioning"},
	{0x020000, "Networking"},
	{0x040000, "Rendering"},
	{0x080000, "Capturing"},
	{0x100000, "Object Transfer"},
	{0x200000, "Audio"},
	{0x400000, "Telephony"},
	{0x800000, "Information"},
}

var majorClasses = map[uint32]string{
	0x0000: "Miscellaneous",
	0x0100: "Computer",
	0x0200: "Phone",
	0x0300: "LAN/Network Access point",
	0x0400: "Audio/Video",
	0x0500: "Peripheral",
	0x0600: "Imaging",
	0x0700: "Wearable",
	0x0800: "Toy",
	0x0900: "Health",
	0x1F00: "Uncategorized",
}

var minorClasses = map[uint32]string{
	0x0100: "Uncategorized computer",
	0x0104: "Desktop workstation",
	0x0108: "Server-class computer",
	0x010C: "Laptop",
	0x0110: "Handheld PC/PDA",
	0x0114: "Palm-size PC/PDA",
	0x0118: "Wearable computer",
	0x011C: "Tablet",

	0x0200: "Uncategorized phone",
	0x0204: "Cellular",
	0x0208: "Cordless",
	0x020C: "Smartphone",
	0x0210: "Wired modem or voice gateway",
	0x0214: "Common ISDN access",

	0x0400: "Uncategorized audio/video",
	0x0404: "Wearable Headset Device",
	0x0408: "Hands-free Device",
	0x0410: "Microphone",
	0x0414: "Loudspeaker",
	0x0418: "Headphones",
	0x041C: "Portable Audio",
	0x0420: "Car audio",
	0x0424: "Set-top box",
	0x0428: "HiFi Audio Device",
	0x042C: "VCR",
	0x0430: "Video Camera",
	0x0434: "Camcorder",
	0x0438: "Video Monitor",
	0x043C: "Video Display and Loudspeaker",
	0x0440: "Video Conferencing",
	0x0448: "Gaming/Toy",

	0x0500: "Uncategorized peripheral",
	0x0504: "Joystick",
	0x0508: "Gamepad",
	0x050C: "Remote control",
	0x0510: "Sensing device",
	0x0514: "Digitizer tablet",
	0x0518: "Card Reader",
	0x0540: "Keyboard",
	0x0580: "Pointing device",
	0x05C0: "Combo keyboard/pointing device",

	0x0610: "Display",
	0x0620: "Camera",
	0x0640: "Scanner",
	0x0680: "Printer",

	0x0704: "Wristwatch",
	0x0708: "Pager",
	0x070C: "Jacket",
	0x0710: "Helmet",
	0x0714: "Glasses",

	0x0804: "Robot",
	0x0808: "Vehicle",
	0x080C: "Doll/Action figure",
	0x0810: "Controller",
	0x0814: "Game",
}

var services = map[uint16]string{
	0x1101: "Serial Port",
	0x1103: "Dialup Networking",
	0x1105: "OBEX Object Push",
	0x1106: "OBEX File Transfer",
	0x1108: "Headset",
	0x110A: "Audio Source",
	0x110B: "Audio Sink",
	0x110C: "A/V Remote Control Target",
	0x110D: "Advanced Audio Distribution",
	0x110E: "A/V Remote Control",
	0x110F: "A/V Remote Control Controller",
	0x1112: "Headset AG",
	0x1115: "PANU",
	0x1116: "NAP",
	0x111E: "Handsfree",
	0x111F: "Handsfree Audio Gateway",
	0x1124: "Human Interface Device Service",
	0x112D: "SIM Access",
	0x112F: "Phonebook Access Server",
	0x1132: "Message Access Server",
	0x1133: "Message Notification Server",
	0x1200: "PnP Information",
	0x1203: "Generic Audio",
	0x1800: "Generic Access Profile",
	0x1801: "Generic Attribute Profile",
	0x180A: "Device Information",
	0x180F: "Battery Service",
	0x1812: "Human Interface Device",
}

// ServiceClasses returns the names of the major service classes set in class.
func ServiceClasses(class uint32) []string {
	masked := class & serviceClassMask

	names := []string{}
	for _, s := range serviceClasses {
		if masked&s.bit != 0 {
			names = append(names, s.name)
		}
	}

	return names
}

func MajorDeviceClass(class uint32) (string, bool) {
	name, ok := majorClasses[class&majorClassMask]
	return name, ok
}

func MinorDeviceClass(class uint32) (string, bool) {
	name, ok := minorClasses[class&minorClassMask]
	return name, ok
}

var baseUUID = uuid.MustParse("00000000-0000-1000-8000-00805F9B34FB")

// ServiceName resolves the service a UUID stands for. Only UUIDs derived from
// the Bluetooth base UUID carry an assigned number.
func ServiceName(s string) string {
	u, err := uuid.Parse(s)
	if err != nil {
		return "Unknown"
	}

	for i := 4; i < len(u); i++ {
		if u[i] != baseUUID[i] {
			return "Unknown"
		}
	}

	if u[0] != 0 || u[1] != 0 {
		return "Proprietary"
	}

	short := uint16(u[2])<<8 | uint16(u[3])
	if short == 0 {
		return "Audio and input profiles"
	}

	if name, ok := services[short]; ok {
		return name
	}

	return "Unknown"
}

func ServiceNames(uuids []string) map[string]string {
	names := make(map[string]string, len(uuids))
	for _, u := range uuids {
		names[u] = ServiceName(u)
	}
	return names
}
