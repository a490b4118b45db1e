// Package easyhid provides enumeration, filtering and report-level I/O
// for USB HID devices on top of a native driver backend.
//
// A snapshot of the attached devices is taken with Enumerate, narrowed
// with Find, and the selected Device is opened for I/O:
//
//	en, err := easyhid.Enumerate(0, 0)
//	if err != nil {
//		return err
//	}
//	for _, dev := range en.Find(easyhid.Filter{VendorID: 0x04d8}) {
//		if err := dev.Open(); err != nil {
//			return err
//		}
//		defer dev.Close()
//		// dev.Write / dev.Read ...
//	}
//
// This package adds no synchronization: an Enumeration is immutable
// and freely shareable once built, while a Device must be confined to
// one goroutine or guarded by the caller.
package easyhid

import (
	"fmt"

	"github.com/seagrayinc/easyhid/pkg/hidapi"
)

// DefaultReadSize is a read size that fits the input reports of most
// HID devices.
const DefaultReadSize = 64

// Enumeration is a point-in-time snapshot of the HID devices attached
// to the host, in the driver's enumeration order. Records are captured
// once at construction; devices plugged or unplugged afterwards are
// only visible to a new snapshot.
type Enumeration struct {
	drv     hidapi.Driver
	records []hidapi.DeviceInfo
}

// Enumerate snapshots the currently attached HID devices using the
// default driver. A non-zero vendorID or productID narrows the
// snapshot at the driver level; 0 matches any. An empty snapshot is
// not an error.
func Enumerate(vendorID, productID uint16) (*Enumeration, error) {
	return EnumerateDriver(hidapi.Default(), vendorID, productID)
}

// EnumerateDriver is Enumerate against an explicit driver backend.
func EnumerateDriver(drv hidapi.Driver, vendorID, productID uint16) (*Enumeration, error) {
	records, err := drv.Enumerate(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("easyhid: %v: %w", err, ErrEnumeration)
	}
	return &Enumeration{drv: drv, records: records}, nil
}

// Filter selects records by exact, case-sensitive field equality.
// Zero-valued criteria are ignored: empty strings, empty Path and zero
// VendorID/ProductID. The pointer criteria exist because 0 (and -1 for
// Interface) are meaningful values for those fields.
type Filter struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	SerialNumber string
	Path         string

	Interface     *int
	ReleaseNumber *uint16
	UsagePage     *uint16
	Usage         *uint16
}

func (f Filter) matches(rec hidapi.DeviceInfo) bool {
	if f.VendorID != 0 && rec.VendorID != f.VendorID {
		return false
	}
	if f.ProductID != 0 && rec.ProductID != f.ProductID {
		return false
	}
	if f.Manufacturer != "" && rec.Manufacturer != f.Manufacturer {
		return false
	}
	if f.Product != "" && rec.Product != f.Product {
		return false
	}
	if f.SerialNumber != "" && rec.SerialNumber != f.SerialNumber {
		return false
	}
	if f.Path != "" && rec.Path != f.Path {
		return false
	}
	if f.Interface != nil && rec.InterfaceNumber != *f.Interface {
		return false
	}
	if f.ReleaseNumber != nil && rec.ReleaseNumber != *f.ReleaseNumber {
		return false
	}
	if f.UsagePage != nil && rec.UsagePage != *f.UsagePage {
		return false
	}
	if f.Usage != nil && rec.Usage != *f.Usage {
		return false
	}
	return true
}

// Find returns a closed Device for every record matching all supplied
// criteria, in enumeration order. The zero Filter selects every
// record. Matching is pure in-memory comparison and never re-queries
// the driver; each call builds fresh Devices.
func (e *Enumeration) Find(f Filter) []*Device {
	var devices []*Device
	for _, rec := range e.records {
		if f.matches(rec) {
			devices = append(devices, newDevice(e.drv, rec))
		}
	}
	return devices
}

// Devices returns one closed Device per record, in enumeration order.
func (e *Enumeration) Devices() []*Device {
	return e.Find(Filter{})
}
