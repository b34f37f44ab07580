package wallet

import "errors"

// Service errors
var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidKey       = errors.New("invalid private key")
	ErrSignerMismatch   = errors.New("authorization is for a different payer")
)
