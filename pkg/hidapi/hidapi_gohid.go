package hidapi

import (
	"sync"
	"time"

	hid "github.com/sstallion/go-hid"
)

// goHIDDriver talks to the C hidapi library through sstallion/go-hid.
// This is the default backend: it covers every capability in the
// Driver and Handle interfaces, including timed reads and live string
// queries.
type goHIDDriver struct {
	initOnce sync.Once
	initErr  error
}

func newGoHIDDriver() *goHIDDriver {
	return &goHIDDriver{}
}

func (d *goHIDDriver) init() error {
	d.initOnce.Do(func() {
		d.initErr = hid.Init()
	})
	return d.initErr
}

func (d *goHIDDriver) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	// hid_enumerate returns NULL both when nothing is attached and on
	// failure, so a walk error is ambiguous. Nothing collected is an
	// empty snapshot, and records collected before a mid-walk failure
	// still form a usable snapshot, so the error is dropped either
	// way. Only hid_init failures surface as enumeration errors.
	var records []DeviceInfo
	_ = hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		records = append(records, DeviceInfo{
			Path:            info.Path,
			VendorID:        info.VendorID,
			ProductID:       info.ProductID,
			SerialNumber:    info.SerialNbr,
			ReleaseNumber:   info.ReleaseNbr,
			Manufacturer:    info.MfrStr,
			Product:         info.ProductStr,
			UsagePage:       info.UsagePage,
			Usage:           info.Usage,
			InterfaceNumber: info.InterfaceNbr,
		})
		return nil
	})
	return records, nil
}

func (d *goHIDDriver) Open(path string) (Handle, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, err
	}
	return &goHIDHandle{dev: dev}, nil
}

func (d *goHIDDriver) OpenIDs(vendorID, productID uint16, serialNumber string) (Handle, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	dev, err := hid.Open(vendorID, productID, serialNumber)
	if err != nil {
		return nil, err
	}
	return &goHIDHandle{dev: dev}, nil
}

type goHIDHandle struct {
	dev *hid.Device
}

func (h *goHIDHandle) Read(p []byte) (int, error) {
	return h.dev.Read(p)
}

func (h *goHIDHandle) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	// empty p is a liveness probe. Answer it with a string request so
	// no input report is consumed.
	if len(p) == 0 {
		_, err := h.dev.GetMfrStr()
		return 0, err
	}
	return h.dev.ReadWithTimeout(p, timeout)
}

func (h *goHIDHandle) Write(p []byte) (int, error) {
	return h.dev.Write(p)
}

func (h *goHIDHandle) SendFeatureReport(p []byte) (int, error) {
	return h.dev.SendFeatureReport(p)
}

func (h *goHIDHandle) GetFeatureReport(p []byte) (int, error) {
	return h.dev.GetFeatureReport(p)
}

func (h *goHIDHandle) SetNonblocking(enable bool) error {
	return h.dev.SetNonblocking(enable)
}

func (h *goHIDHandle) Manufacturer() (string, error) {
	return h.dev.GetMfrStr()
}

func (h *goHIDHandle) Product() (string, error) {
	return h.dev.GetProductStr()
}

func (h *goHIDHandle) SerialNumber() (string, error) {
	return h.dev.GetSerialNbr()
}

func (h *goHIDHandle) IndexedString(index int) (string, error) {
	return h.dev.GetIndexedStr(index)
}

func (h *goHIDHandle) Close() error {
	return h.dev.Close()
}
