package easyhid

import (
	"errors"
	"strings"
	"testing"

	"github.com/seagrayinc/easyhid/pkg/hidapi"
)

func ptr[T any](v T) *T { return &v }

func testRecords() []hidapi.DeviceInfo {
	return []hidapi.DeviceInfo{
		{
			Path:            "/dev/hidraw0",
			VendorID:        0x04d8,
			ProductID:       0x003f,
			SerialNumber:    "A1000",
			ReleaseNumber:   0x0100,
			Manufacturer:    "Microchip Technology Inc.",
			Product:         "Simple HID Device",
			UsagePage:       0xff00,
			Usage:           0x0001,
			InterfaceNumber: 0,
		},
		{
			Path:            "/dev/hidraw1",
			VendorID:        0x046d,
			ProductID:       0xc52b,
			SerialNumber:    "",
			ReleaseNumber:   0x1201,
			Manufacturer:    "Logitech",
			Product:         "USB Receiver",
			UsagePage:       0x0001,
			Usage:           0x0006,
			InterfaceNumber: 1,
		},
		{
			Path:            "/dev/hidraw2",
			VendorID:        0x046d,
			ProductID:       0xc52b,
			SerialNumber:    "B2000",
			ReleaseNumber:   0x1201,
			Manufacturer:    "Logitech",
			Product:         "USB Receiver",
			UsagePage:       0x0001,
			Usage:           0x0002,
			InterfaceNumber: 2,
		},
	}
}

func testEnumeration(t *testing.T) (*hidapi.MockDriver, *Enumeration) {
	t.Helper()
	drv := hidapi.NewMockDriver(testRecords()...)
	en, err := EnumerateDriver(drv, 0, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	return drv, en
}

func paths(devices []*Device) []string {
	var out []string
	for _, d := range devices {
		out = append(out, d.Info.Path)
	}
	return out
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFindFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"/dev/hidraw0", "/dev/hidraw1", "/dev/hidraw2"}},
		{"vendor match", Filter{VendorID: 0x04d8}, []string{"/dev/hidraw0"}},
		{"vendor miss", Filter{VendorID: 0x1234}, nil},
		{"vendor and product", Filter{VendorID: 0x046d, ProductID: 0xc52b}, []string{"/dev/hidraw1", "/dev/hidraw2"}},
		{"manufacturer exact", Filter{Manufacturer: "Logitech"}, []string{"/dev/hidraw1", "/dev/hidraw2"}},
		{"manufacturer case sensitive", Filter{Manufacturer: "logitech"}, nil},
		{"manufacturer not substring", Filter{Manufacturer: "Logi"}, nil},
		{"product", Filter{Product: "Simple HID Device"}, []string{"/dev/hidraw0"}},
		{"serial skips empty field", Filter{SerialNumber: "B2000"}, []string{"/dev/hidraw2"}},
		{"path", Filter{Path: "/dev/hidraw1"}, []string{"/dev/hidraw1"}},
		{"interface zero", Filter{Interface: ptr(0)}, []string{"/dev/hidraw0"}},
		{"interface", Filter{Interface: ptr(2)}, []string{"/dev/hidraw2"}},
		{"release number", Filter{ReleaseNumber: ptr(uint16(0x1201))}, []string{"/dev/hidraw1", "/dev/hidraw2"}},
		{"usage page", Filter{UsagePage: ptr(uint16(0xff00))}, []string{"/dev/hidraw0"}},
		{"usage", Filter{Usage: ptr(uint16(0x0006))}, []string{"/dev/hidraw1"}},
		{"combined", Filter{VendorID: 0x046d, Usage: ptr(uint16(0x0002)), Interface: ptr(2)}, []string{"/dev/hidraw2"}},
		{"combined miss", Filter{VendorID: 0x046d, Product: "Simple HID Device"}, nil},
	}

	_, en := testEnumeration(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paths(en.Find(tt.filter))
			if !equalPaths(got, tt.want) {
				t.Fatalf("Find(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestFindPreservesOrder(t *testing.T) {
	_, en := testEnumeration(t)
	got := paths(en.Devices())
	want := []string{"/dev/hidraw0", "/dev/hidraw1", "/dev/hidraw2"}
	if !equalPaths(got, want) {
		t.Fatalf("Devices() order = %v, want %v", got, want)
	}
}

func TestFindDoesNotRequeryDriver(t *testing.T) {
	drv, en := testEnumeration(t)

	first := paths(en.Find(Filter{VendorID: 0x046d}))
	second := paths(en.Find(Filter{VendorID: 0x046d}))
	if !equalPaths(first, second) {
		t.Fatalf("repeated Find differs: %v then %v", first, second)
	}
	if drv.EnumerateCalls != 1 {
		t.Fatalf("EnumerateCalls = %d, want 1", drv.EnumerateCalls)
	}
	if drv.OpenCalls != 0 {
		t.Fatalf("OpenCalls = %d, want 0", drv.OpenCalls)
	}
}

func TestFindReturnsClosedDevices(t *testing.T) {
	_, en := testEnumeration(t)
	for _, dev := range en.Devices() {
		if dev.IsOpen() {
			t.Fatalf("%s: new device reports open", dev.Info.Path)
		}
	}
}

func TestEnumerateEmpty(t *testing.T) {
	drv := hidapi.NewMockDriver()
	en, err := EnumerateDriver(drv, 0, 0)
	if err != nil {
		t.Fatalf("empty enumeration should not fail: %v", err)
	}
	if got := en.Devices(); len(got) != 0 {
		t.Fatalf("expected no devices, got %d", len(got))
	}
}

func TestEnumerateDriverFilter(t *testing.T) {
	drv := hidapi.NewMockDriver(testRecords()...)
	en, err := EnumerateDriver(drv, 0x046d, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	got := paths(en.Devices())
	want := []string{"/dev/hidraw1", "/dev/hidraw2"}
	if !equalPaths(got, want) {
		t.Fatalf("pre-filtered snapshot = %v, want %v", got, want)
	}
}

func TestEnumerateError(t *testing.T) {
	drv := hidapi.NewMockDriver()
	drv.EnumerateErr = errors.New("hid_init failed")

	_, err := EnumerateDriver(drv, 0, 0)
	if !errors.Is(err, ErrEnumeration) {
		t.Fatalf("expected ErrEnumeration, got %v", err)
	}
	if !strings.Contains(err.Error(), "hid_init failed") {
		t.Fatalf("driver message missing from %q", err)
	}
}
