package hidapi

import (
	"fmt"
	"time"

	"github.com/karalabe/usb"
)

// rawReadSize bounds one native input report.
const rawReadSize = 256

// rawUSBDriver drives HID interfaces through libusb via karalabe/usb.
// Feature reports and indexed strings are not exposed by that library
// and report ErrNotSupported; string queries return the values cached
// at enumeration time.
type rawUSBDriver struct{}

func (d *rawUSBDriver) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	if !usb.Supported() {
		return nil, fmt.Errorf("hidapi: usb enumeration: %w", ErrNotSupported)
	}
	infos, err := usb.EnumerateHid(vendorID, productID)
	if err != nil {
		return nil, err
	}
	records := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		records = append(records, DeviceInfo{
			Path:            info.Path,
			VendorID:        info.VendorID,
			ProductID:       info.ProductID,
			SerialNumber:    info.Serial,
			ReleaseNumber:   info.Release,
			Manufacturer:    info.Manufacturer,
			Product:         info.Product,
			UsagePage:       info.UsagePage,
			Usage:           info.Usage,
			InterfaceNumber: info.Interface,
		})
	}
	return records, nil
}

func (d *rawUSBDriver) Open(path string) (Handle, error) {
	infos, err := usb.EnumerateHid(0, 0)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Path == path {
			return openRawUSB(info)
		}
	}
	return nil, fmt.Errorf("hidapi: no HID device at %s", path)
}

func (d *rawUSBDriver) OpenIDs(vendorID, productID uint16, serialNumber string) (Handle, error) {
	infos, err := usb.EnumerateHid(vendorID, productID)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if serialNumber != "" && info.Serial != serialNumber {
			continue
		}
		return openRawUSB(info)
	}
	return nil, fmt.Errorf("hidapi: no HID device matching %04x:%04x", vendorID, productID)
}

func openRawUSB(info usb.DeviceInfo) (Handle, error) {
	dev, err := info.Open()
	if err != nil {
		return nil, err
	}
	h := &rawUSBHandle{dev: dev, info: info}
	h.pump = newReportPump(func() ([]byte, error) {
		buf := make([]byte, rawReadSize)
		n, err := dev.Read(buf)
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	})
	return h, nil
}

type rawUSBHandle struct {
	dev  usb.Device
	info usb.DeviceInfo
	pump *reportPump
}

func (h *rawUSBHandle) Read(p []byte) (int, error) {
	return h.pump.readBlocking(p)
}

func (h *rawUSBHandle) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	return h.pump.read(p, timeout)
}

func (h *rawUSBHandle) Write(p []byte) (int, error) {
	return h.dev.Write(p)
}

func (h *rawUSBHandle) SendFeatureReport(p []byte) (int, error) {
	return 0, fmt.Errorf("hidapi: %s: send feature report: %w", h.info.Path, ErrNotSupported)
}

func (h *rawUSBHandle) GetFeatureReport(p []byte) (int, error) {
	return 0, fmt.Errorf("hidapi: %s: get feature report: %w", h.info.Path, ErrNotSupported)
}

func (h *rawUSBHandle) SetNonblocking(enable bool) error {
	return fmt.Errorf("hidapi: %s: set nonblocking: %w", h.info.Path, ErrNotSupported)
}

func (h *rawUSBHandle) Manufacturer() (string, error) {
	return h.info.Manufacturer, nil
}

func (h *rawUSBHandle) Product() (string, error) {
	return h.info.Product, nil
}

func (h *rawUSBHandle) SerialNumber() (string, error) {
	return h.info.Serial, nil
}

func (h *rawUSBHandle) IndexedString(index int) (string, error) {
	return "", fmt.Errorf("hidapi: %s: indexed string: %w", h.info.Path, ErrNotSupported)
}

func (h *rawUSBHandle) Close() error {
	h.pump.stop()
	return h.dev.Close()
}
