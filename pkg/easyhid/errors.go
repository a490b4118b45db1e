package easyhid

import "errors"

// Errors returned by this package may be tested against these with
// errors.Is. The returned error text also carries the device path,
// vendor:product IDs and the native driver's message verbatim. Nothing
// is retried or logged on the caller's behalf.
var (
	ErrEnumeration = errors.New("enumeration failed")
	ErrOpen        = errors.New("cannot open device")
	ErrNotOpen     = errors.New("device is not open")
	ErrRead        = errors.New("read failed")
	ErrWrite       = errors.New("write failed")
)
