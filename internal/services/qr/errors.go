package qr

import "errors"

// Service errors
var (
	ErrNotPaymentURI  = errors.New("not a payment URI")
	ErrInvalidPayload = errors.New("payment URI failed validation")
)
