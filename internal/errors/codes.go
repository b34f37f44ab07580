package errors

var (
	ErrInvalidQR = &DomainError{
		Code:    "INVALID_QR",
		Message: "Invalid UPI QR code format",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "Please enter a valid amount",
	}
	ErrAmountExceedsLimit = &DomainError{
		Code:    "AMOUNT_EXCEEDS_LIMIT",
		Message: "amount exceeds the per-payment limit",
	}
	ErrQuoteFailed = &DomainError{
		Code:    "QUOTE_FAILED",
		Message: "could not fetch conversion quote",
	}
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient token balance",
	}
	ErrAuthorizationFailed = &DomainError{
		Code:    "AUTHORIZATION_FAILED",
		Message: "transfer authorization failed",
	}
	ErrSettlementFailed = &DomainError{
		Code:    "SETTLEMENT_FAILED",
		Message: "token transfer failed",
	}
	ErrPayoutFailed = &DomainError{
		Code:    "PAYOUT_FAILED",
		Message: "payout to payee failed",
	}
	ErrAlreadySubmitted = &DomainError{
		Code:    "ALREADY_SUBMITTED",
		Message: "payment already submitted",
	}
	ErrRecordNotFound = &DomainError{
		Code:    "RECORD_NOT_FOUND",
		Message: "transaction record not found",
	}
	ErrHashImmutable = &DomainError{
		Code:    "HASH_IMMUTABLE",
		Message: "transaction hash already set",
	}
)
