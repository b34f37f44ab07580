package scanner

import "time"

// DefaultRetryDelay is the pause between decode attempts on an empty frame.
const DefaultRetryDelay = 500 * time.Millisecond

// User-facing messages
const (
	MsgPermissionDenied = "Camera permission denied"
	MsgNoDevice         = "No camera found"
	MsgNotPaymentURI    = "Not a UPI payment QR code"
	MsgInterpretFailed  = "Could not read payment details from QR code"
)

var (
	rearKeywords  = []string{"back", "rear", "environment"}
	frontKeywords = []string{"front", "user", "face"}
)
