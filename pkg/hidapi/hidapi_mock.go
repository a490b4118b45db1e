package hidapi

import (
	"fmt"
	"time"
)

// MockDriver is a scripted Driver for tests. It serves a fixed record
// list and hands out MockHandles keyed by device path, counting calls
// so tests can assert that filtering never re-queries the driver.
type MockDriver struct {
	Devices      []DeviceInfo
	EnumerateErr error
	OpenErr      error

	EnumerateCalls int
	OpenCalls      int

	Handles map[string]*MockHandle
}

func NewMockDriver(devices ...DeviceInfo) *MockDriver {
	return &MockDriver{
		Devices: devices,
		Handles: make(map[string]*MockHandle),
	}
}

// Handle returns the MockHandle for path, creating it on first use so
// tests can script it before or after opening.
func (m *MockDriver) Handle(path string) *MockHandle {
	h, ok := m.Handles[path]
	if !ok {
		h = NewMockHandle()
		m.Handles[path] = h
	}
	return h
}

func (m *MockDriver) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	m.EnumerateCalls++
	if m.EnumerateErr != nil {
		return nil, m.EnumerateErr
	}
	var records []DeviceInfo
	for _, d := range m.Devices {
		if vendorID != 0 && d.VendorID != vendorID {
			continue
		}
		if productID != 0 && d.ProductID != productID {
			continue
		}
		records = append(records, d)
	}
	return records, nil
}

func (m *MockDriver) Open(path string) (Handle, error) {
	m.OpenCalls++
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	for _, d := range m.Devices {
		if d.Path == path {
			return m.Handle(path), nil
		}
	}
	return nil, fmt.Errorf("hidapi: no device at %s", path)
}

func (m *MockDriver) OpenIDs(vendorID, productID uint16, serialNumber string) (Handle, error) {
	m.OpenCalls++
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	for _, d := range m.Devices {
		if d.VendorID != vendorID || d.ProductID != productID {
			continue
		}
		if serialNumber != "" && d.SerialNumber != serialNumber {
			continue
		}
		return m.Handle(d.Path), nil
	}
	return nil, fmt.Errorf("hidapi: no device matching %04x:%04x", vendorID, productID)
}

// MockHandle is a scripted Handle. Reads drain a frame channel fed by
// Queue, or by Write when Echo is set (a loopback device).
type MockHandle struct {
	Echo     bool
	ReadErr  error
	WriteErr error

	Mfr     string
	Prod    string
	Serial  string
	Indexed map[int]string
	Feature map[byte][]byte

	Written      [][]byte
	SentFeatures [][]byte
	Nonblocking  bool
	Closed       bool

	frames chan []byte
}

func NewMockHandle() *MockHandle {
	return &MockHandle{
		Indexed: make(map[int]string),
		Feature: make(map[byte][]byte),
		frames:  make(chan []byte, 16),
	}
}

// Queue schedules one input report for delivery.
func (h *MockHandle) Queue(frame []byte) {
	h.frames <- frame
}

func (h *MockHandle) Read(p []byte) (int, error) {
	if h.ReadErr != nil {
		return 0, h.ReadErr
	}
	return copy(p, <-h.frames), nil
}

func (h *MockHandle) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	if h.ReadErr != nil {
		return 0, h.ReadErr
	}
	// liveness probe: consumes nothing
	if len(p) == 0 {
		return 0, nil
	}
	if timeout <= 0 {
		select {
		case frame := <-h.frames:
			return copy(p, frame), nil
		default:
			return 0, nil
		}
	}
	select {
	case frame := <-h.frames:
		return copy(p, frame), nil
	case <-time.After(timeout):
		return 0, nil
	}
}

func (h *MockHandle) Write(p []byte) (int, error) {
	if h.WriteErr != nil {
		return 0, h.WriteErr
	}
	frame := append([]byte(nil), p...)
	h.Written = append(h.Written, frame)
	if h.Echo {
		h.frames <- frame
	}
	return len(p), nil
}

func (h *MockHandle) SendFeatureReport(p []byte) (int, error) {
	if h.WriteErr != nil {
		return 0, h.WriteErr
	}
	h.SentFeatures = append(h.SentFeatures, append([]byte(nil), p...))
	return len(p), nil
}

func (h *MockHandle) GetFeatureReport(p []byte) (int, error) {
	if h.ReadErr != nil {
		return 0, h.ReadErr
	}
	if len(p) == 0 {
		return 0, nil
	}
	return copy(p[1:], h.Feature[p[0]]) + 1, nil
}

func (h *MockHandle) SetNonblocking(enable bool) error {
	h.Nonblocking = enable
	return nil
}

func (h *MockHandle) Manufacturer() (string, error) {
	return h.Mfr, nil
}

func (h *MockHandle) Product() (string, error) {
	return h.Prod, nil
}

func (h *MockHandle) SerialNumber() (string, error) {
	return h.Serial, nil
}

func (h *MockHandle) IndexedString(index int) (string, error) {
	s, ok := h.Indexed[index]
	if !ok {
		return "", fmt.Errorf("hidapi: indexed string %d: %w", index, ErrNotSupported)
	}
	return s, nil
}

func (h *MockHandle) Close() error {
	h.Closed = true
	return nil
}
