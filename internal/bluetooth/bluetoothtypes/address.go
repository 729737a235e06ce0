package bluetoothtypes

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a 48-bit Bluetooth device address, most significant byte first.
type Address [6]byte

func ParseAddress(s string) (Address, error) {
	var addr Address

	parts := strings.Split(s, ":")
	if len(parts) != len(addr) {
		return Address{}, ErrInvalidAddress.New("%q", s)
	}

	for i, p := range parts {
		if len(p) != 2 {
			return Address{}, ErrInvalidAddress.New("%q", s)
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return Address{}, ErrInvalidAddress.New("%q", s)
		}
		addr[i] = byte(b)
	}

	return addr, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}
