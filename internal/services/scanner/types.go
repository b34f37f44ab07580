package scanner

import "scanpay/internal/services/qr"

// Device is a capture device as reported by MediaDevices.
type Device struct {
	ID    string
	Label string
}

// State is what listeners render. HasPermission is nil until the first
// prompt is answered. Error and ScanResult are empty when unset.
type State struct {
	IsScanning    bool
	HasPermission *bool
	Error         string
	ScanResult    string
	IsLoading     bool
}

func (s State) copy() State {
	if s.HasPermission != nil {
		v := *s.HasPermission
		s.HasPermission = &v
	}
	return s
}

// Granted reports a known-granted permission.
func (s State) Granted() bool {
	return s.HasPermission != nil && *s.HasPermission
}

// Denied reports a known-denied permission.
func (s State) Denied() bool {
	return s.HasPermission != nil && !*s.HasPermission
}

// Listener receives a copy of the state after every change. It may call any
// Service method except Dispose.
type Listener func(State)

// DetectFunc receives the raw text and the interpreted payment record.
type DetectFunc func(raw string, res *qr.Result)
