// Package hidapi is the native HID driver boundary. It exposes the
// small capability surface easyhid needs (enumerate, open, report I/O,
// descriptor string queries) and hides which of the supported driver
// libraries provides it.
package hidapi

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotSupported is reported by a backend for capabilities its driver
// library does not expose.
var ErrNotSupported = errors.New("not supported by this backend")

// DeviceInfo is one raw record from an enumeration snapshot. Records
// are plain data: they stay valid after the device is unplugged, they
// just go stale.
type DeviceInfo struct {
	Path            string
	VendorID        uint16
	ProductID       uint16
	SerialNumber    string
	ReleaseNumber   uint16
	Manufacturer    string
	Product         string
	UsagePage       uint16
	Usage           uint16
	InterfaceNumber int // -1 when the driver cannot tell
}

// Handle is an open connection to one HID device. A Handle is not safe
// for concurrent use; callers serialize access.
type Handle interface {
	// Read blocks until one input report is available and copies it
	// into p.
	Read(p []byte) (int, error)

	// ReadTimeout blocks at most timeout and returns 0 bytes when it
	// elapses with no report. A timeout <= 0 is a non-blocking poll.
	// An empty p is a liveness probe: no report is consumed and the
	// call errors only when the device is gone.
	ReadTimeout(p []byte, timeout time.Duration) (int, error)

	// Write sends one output report. p[0] is the report ID.
	Write(p []byte) (int, error)

	// SendFeatureReport sends p as a feature report, p[0] being the
	// report ID.
	SendFeatureReport(p []byte) (int, error)

	// GetFeatureReport requests the feature report whose ID is p[0]
	// and fills the rest of p with it.
	GetFeatureReport(p []byte) (int, error)

	SetNonblocking(enable bool) error

	// Manufacturer, Product and SerialNumber query the live device,
	// as opposed to the strings captured at enumeration time.
	Manufacturer() (string, error)
	Product() (string, error)
	SerialNumber() (string, error)
	IndexedString(index int) (string, error)

	Close() error
}

// Driver enumerates and opens HID devices.
type Driver interface {
	// Enumerate snapshots the attached HID devices. A non-zero
	// vendorID or productID pre-filters at the driver level; 0
	// matches any. The pre-filter is a performance hint only and
	// callers re-match on their side.
	Enumerate(vendorID, productID uint16) ([]DeviceInfo, error)

	// Open opens a device by its enumeration path.
	Open(path string) (Handle, error)

	// OpenIDs opens the first device matching vendor and product ID
	// and, when non-empty, serial number.
	OpenIDs(vendorID, productID uint16, serialNumber string) (Handle, error)
}

// Backend selects which driver library backs a Driver.
type Backend int

const (
	BackendHIDAPI Backend = iota // github.com/sstallion/go-hid
	BackendUSBHID                // rafaelmartins.com/p/usbhid
	BackendRawUSB                // github.com/karalabe/usb
)

func (b Backend) String() string {
	switch b {
	case BackendHIDAPI:
		return "hidapi"
	case BackendUSBHID:
		return "usbhid"
	case BackendRawUSB:
		return "rawusb"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// ParseBackend maps a backend name to its Backend value.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "hidapi":
		return BackendHIDAPI, nil
	case "usbhid":
		return BackendUSBHID, nil
	case "rawusb":
		return BackendRawUSB, nil
	}
	return 0, fmt.Errorf("hidapi: unknown backend %q", name)
}

// New returns a Driver backed by the selected library.
func New(b Backend) (Driver, error) {
	switch b {
	case BackendHIDAPI:
		return newGoHIDDriver(), nil
	case BackendUSBHID:
		return &usbhidDriver{}, nil
	case BackendRawUSB:
		return &rawUSBDriver{}, nil
	}
	return nil, fmt.Errorf("hidapi: unknown backend %d", int(b))
}

var (
	defaultOnce   sync.Once
	defaultDriver Driver
)

// Default returns the process-wide hidapi-backed Driver.
func Default() Driver {
	defaultOnce.Do(func() {
		defaultDriver = newGoHIDDriver()
	})
	return defaultDriver
}
