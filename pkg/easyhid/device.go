package easyhid

import (
	"fmt"
	"time"

	"github.com/seagrayinc/easyhid/pkg/hidapi"
)

// Device wraps one enumeration record and, once opened, a native
// driver handle. It starts closed; every I/O operation requires a
// prior successful Open. The handle is exclusively owned: a Device is
// not safe for concurrent use, callers dedicate a goroutine per device
// or serialize access themselves.
//
// A device unplugged while open keeps its in-memory state; reads and
// writes fail until Close resets it.
type Device struct {
	// Info is the descriptor captured at enumeration time. It is
	// never updated; the Get*String methods query the live device
	// instead.
	Info hidapi.DeviceInfo

	drv    hidapi.Driver
	handle hidapi.Handle
}

func newDevice(drv hidapi.Driver, rec hidapi.DeviceInfo) *Device {
	return &Device{Info: rec, drv: drv}
}

// Open acquires a native handle, by path when the record carries one
// and by vendor/product/serial otherwise. Opening an already open
// Device is a no-op returning nil, so callers can retry blindly.
func (d *Device) Open() error {
	if d.handle != nil {
		return nil
	}
	var (
		h   hidapi.Handle
		err error
	)
	if d.Info.Path != "" {
		h, err = d.drv.Open(d.Info.Path)
	} else {
		h, err = d.drv.OpenIDs(d.Info.VendorID, d.Info.ProductID, d.Info.SerialNumber)
	}
	if err != nil {
		return fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrOpen)
	}
	d.handle = h
	return nil
}

// Close releases the native handle and is idempotent: closing a closed
// or never-opened Device is a no-op. Pair it with defer so the handle
// is released on every exit path.
func (d *Device) Close() error {
	if d.handle == nil {
		return nil
	}
	h := d.handle
	d.handle = nil
	return h.Close()
}

// IsOpen reports whether the Device currently holds a native handle.
func (d *Device) IsOpen() bool {
	return d.handle != nil
}

// IsConnected reports whether the device is still attached to the
// system. An open device is probed through its handle with a
// zero-length read; a closed one is looked up by path in a fresh
// enumeration. Driver failures count as disconnected.
func (d *Device) IsConnected() bool {
	if d.handle != nil {
		_, err := d.handle.ReadTimeout(nil, 0)
		return err == nil
	}
	records, err := d.drv.Enumerate(d.Info.VendorID, d.Info.ProductID)
	if err != nil {
		return false
	}
	for _, rec := range records {
		if rec.Path == d.Info.Path {
			return true
		}
	}
	return false
}

// Write sends one output report and returns the number of bytes the
// driver accepted. When the device uses numbered reports the caller
// puts the report ID in data[0]; no framing is added here.
func (d *Device) Write(data []byte) (int, error) {
	if d.handle == nil {
		return 0, fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	n, err := d.handle.Write(data)
	if err != nil {
		return 0, fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrWrite)
	}
	return n, nil
}

// Read blocks until one input report arrives and returns its bytes,
// at most size of them. The framing is driver-dependent; numbered
// reports lead with their report ID.
func (d *Device) Read(size int) ([]byte, error) {
	if d.handle == nil {
		return nil, fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	buf := make([]byte, size)
	n, err := d.handle.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	return buf[:n], nil
}

// ReadTimeout behaves like Read but waits at most timeout. An elapsed
// timeout yields an empty slice and no error; a timeout of zero is a
// non-blocking poll. Callers needing
// cancellable reads poll with a bounded timeout and check their
// cancellation condition between calls.
func (d *Device) ReadTimeout(size int, timeout time.Duration) ([]byte, error) {
	if d.handle == nil {
		return nil, fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	buf := make([]byte, size)
	n, err := d.handle.ReadTimeout(buf, timeout)
	if err != nil {
		return nil, fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	return buf[:n], nil
}

// SendFeatureReport sends data as a feature report with the given
// report ID over the control endpoint. It returns the number of bytes
// accepted, including the report ID byte.
func (d *Device) SendFeatureReport(reportID byte, data []byte) (int, error) {
	if d.handle == nil {
		return 0, fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, reportID)
	buf = append(buf, data...)
	n, err := d.handle.SendFeatureReport(buf)
	if err != nil {
		return 0, fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrWrite)
	}
	return n, nil
}

// GetFeatureReport requests the feature report with the given report
// ID over the control endpoint. size is the expected data length, not
// counting the report ID byte, and the returned bytes exclude it.
func (d *Device) GetFeatureReport(reportID byte, size int) ([]byte, error) {
	if d.handle == nil {
		return nil, fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	buf := make([]byte, size+1)
	buf[0] = reportID
	n, err := d.handle.GetFeatureReport(buf)
	if err != nil {
		return nil, fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	if n <= 1 {
		return nil, nil
	}
	if n > len(buf) {
		n = len(buf)
	}
	return buf[1:n], nil
}

// SetNonblocking toggles nonblocking mode on the native handle, where
// the backend supports it.
func (d *Device) SetNonblocking(enable bool) error {
	if d.handle == nil {
		return fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	return d.handle.SetNonblocking(enable)
}

// GetManufacturerString re-queries the manufacturer string from the
// live device. Some devices only populate their strings once opened,
// so this can differ from the cached Info.
func (d *Device) GetManufacturerString() (string, error) {
	if d.handle == nil {
		return "", fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	s, err := d.handle.Manufacturer()
	if err != nil {
		return "", fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	return s, nil
}

// GetProductString re-queries the product string from the live device.
func (d *Device) GetProductString() (string, error) {
	if d.handle == nil {
		return "", fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	s, err := d.handle.Product()
	if err != nil {
		return "", fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	return s, nil
}

// GetSerialNumberString re-queries the serial number from the live
// device.
func (d *Device) GetSerialNumberString() (string, error) {
	if d.handle == nil {
		return "", fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	s, err := d.handle.SerialNumber()
	if err != nil {
		return "", fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	return s, nil
}

// GetIndexedString reads the USB string descriptor at the given index.
func (d *Device) GetIndexedString(index int) (string, error) {
	if d.handle == nil {
		return "", fmt.Errorf("easyhid: %s: %w", d.id(), ErrNotOpen)
	}
	s, err := d.handle.IndexedString(index)
	if err != nil {
		return "", fmt.Errorf("easyhid: %s: %v: %w", d.id(), err, ErrRead)
	}
	return s, nil
}

// Description formats the cached descriptor for humans. It never
// touches the device and works in any state.
func (d *Device) Description() string {
	return fmt.Sprintf(`HIDDevice:
    %s | %x:%x | %s | %s | %s
    release_number: %d
    usage_page: %d
    usage: %d
    interface_number: %d`,
		d.Info.Path,
		d.Info.VendorID,
		d.Info.ProductID,
		d.Info.Manufacturer,
		d.Info.Product,
		d.Info.SerialNumber,
		d.Info.ReleaseNumber,
		d.Info.UsagePage,
		d.Info.Usage,
		d.Info.InterfaceNumber,
	)
}

func (d *Device) id() string {
	return fmt.Sprintf("%s (%04x:%04x)", d.Info.Path, d.Info.VendorID, d.Info.ProductID)
}
