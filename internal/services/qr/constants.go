package qr

// SchemePrefix is the fixed scheme and action every payment URI starts with.
const SchemePrefix = "upi://pay?"

// Wire keys of the fixed schema.
const (
	KeyPayeeAddress = "pa"
	KeyPayeeName    = "pn"
	KeyAmount       = "am"
	KeyCurrency     = "cu"
	KeyMerchantCode = "mc"
	KeyTxnRef       = "tr"
)

var fixedKeys = []string{KeyPayeeAddress, KeyPayeeName, KeyAmount, KeyCurrency, KeyMerchantCode, KeyTxnRef}

// Validation messages. Clients match on these strings.
const (
	MsgInvalidFormat         = "Invalid UPI QR code format"
	MsgPayeeAddressMandatory = "Payee address (pa) is mandatory"
	MsgCurrencyRequired      = "Currency code (cu) is required when amount (am) is present"
	MsgMerchantCodeNumeric   = "Merchant category code (mc) must be numeric"
	MsgAmountPositive        = "Amount (am) must be a positive number"
	MsgCurrencyFormat        = "Currency code (cu) must be 3 uppercase letters"
	MsgPayeeAddressSeparator = "Payee address (pa) must contain '@'"
)
