package scanner

import "errors"

// Service errors
var (
	// ErrNotFound is returned by a Reader when the frame holds no code.
	ErrNotFound = errors.New("no code found in frame")

	ErrAlreadyScanning  = errors.New("a scan session is already running")
	ErrResetRequired    = errors.New("scanner is in an error state, reset required")
	ErrDisposed         = errors.New("scanner has been disposed")
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera device available")
	ErrNoSink           = errors.New("a video sink is required")
)
