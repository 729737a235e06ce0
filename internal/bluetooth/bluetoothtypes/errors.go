package bluetoothtypes

import "github.com/zeebo/errs"

var (
	ErrAdapterNotFound      = errs.Class("no adapters found in the system")
	ErrAdapterNotPoweredOn  = errs.Class("adapter is not powered on")
	ErrAdapterIsDiscovering = errs.Class("adapter is discovering")
	ErrEventConsumerExists  = errs.Class("adapter events already have a consumer")
	ErrDeviceNotFound       = errs.Class("device is not found")
	ErrInvalidAddress       = errs.Class("invalid bluetooth address")
)
