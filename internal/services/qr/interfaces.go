package qr

import "context"

// Service interprets raw scanned text. The local implementation parses in
// process; HTTPInterpreter asks the API server.
type Service interface {
	// Interpret returns the parsed result. It fails with ErrNotPaymentURI for
	// foreign payloads and ErrInvalidPayload (alongside the result) when a
	// payment URI breaks a rule.
	Interpret(ctx context.Context, raw string) (*Result, error)
}
