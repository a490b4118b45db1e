package hidapi

import (
	"fmt"
	"time"

	usbhid "rafaelmartins.com/p/usbhid"
)

// usbhidDriver is the pure Go backend, for builds that cannot link the
// C hidapi library. usbhid reads descriptor strings at enumeration
// time and exposes no interface index, usage page, indexed strings or
// nonblocking toggle; those gaps surface as cached values, zero
// fields or ErrNotSupported.
type usbhidDriver struct{}

func (d *usbhidDriver) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	devs, err := usbhid.Enumerate(func(dev *usbhid.Device) bool {
		if vendorID != 0 && dev.VendorId() != vendorID {
			return false
		}
		if productID != 0 && dev.ProductId() != productID {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	records := make([]DeviceInfo, 0, len(devs))
	for _, dev := range devs {
		records = append(records, DeviceInfo{
			Path:            dev.Path(),
			VendorID:        dev.VendorId(),
			ProductID:       dev.ProductId(),
			SerialNumber:    dev.SerialNumber(),
			ReleaseNumber:   dev.Version(),
			Manufacturer:    dev.Manufacturer(),
			Product:         dev.Product(),
			InterfaceNumber: -1,
		})
	}
	return records, nil
}

func (d *usbhidDriver) Open(path string) (Handle, error) {
	dev, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.Path() == path
	}, true, false)
	if err != nil {
		return nil, err
	}
	return newUSBHIDHandle(dev), nil
}

func (d *usbhidDriver) OpenIDs(vendorID, productID uint16, serialNumber string) (Handle, error) {
	dev, err := usbhid.Get(func(dev *usbhid.Device) bool {
		if dev.VendorId() != vendorID || dev.ProductId() != productID {
			return false
		}
		return serialNumber == "" || dev.SerialNumber() == serialNumber
	}, true, false)
	if err != nil {
		return nil, err
	}
	return newUSBHIDHandle(dev), nil
}

type usbhidHandle struct {
	dev  *usbhid.Device
	pump *reportPump
}

func newUSBHIDHandle(dev *usbhid.Device) *usbhidHandle {
	h := &usbhidHandle{dev: dev}
	h.pump = newReportPump(func() ([]byte, error) {
		id, data, err := dev.GetInputReport()
		if err != nil {
			return nil, err
		}
		// present reports the way hidapi does: the report ID leads
		// when the device uses numbered reports
		if id != 0 {
			return append([]byte{id}, data...), nil
		}
		return data, nil
	})
	return h
}

func (h *usbhidHandle) Read(p []byte) (int, error) {
	return h.pump.readBlocking(p)
}

func (h *usbhidHandle) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	return h.pump.read(p, timeout)
}

func (h *usbhidHandle) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := h.dev.SetOutputReport(p[0], p[1:]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (h *usbhidHandle) SendFeatureReport(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := h.dev.SetFeatureReport(p[0], p[1:]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (h *usbhidHandle) GetFeatureReport(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, err := h.dev.GetFeatureReport(p[0])
	if err != nil {
		return 0, err
	}
	return copy(p[1:], data) + 1, nil
}

func (h *usbhidHandle) SetNonblocking(enable bool) error {
	return fmt.Errorf("hidapi: %s: set nonblocking: %w", h.dev.Path(), ErrNotSupported)
}

func (h *usbhidHandle) Manufacturer() (string, error) {
	return h.dev.Manufacturer(), nil
}

func (h *usbhidHandle) Product() (string, error) {
	return h.dev.Product(), nil
}

func (h *usbhidHandle) SerialNumber() (string, error) {
	return h.dev.SerialNumber(), nil
}

func (h *usbhidHandle) IndexedString(index int) (string, error) {
	return "", fmt.Errorf("hidapi: %s: indexed string: %w", h.dev.Path(), ErrNotSupported)
}

func (h *usbhidHandle) Close() error {
	h.pump.stop()
	return h.dev.Close()
}
