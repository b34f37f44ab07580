package settlement

import "scanpay/internal/eip712"

// PrepareRequest asks the relay for a nonce and validity window.
type PrepareRequest struct {
	Payer     string `json:"payer"`
	Recipient string `json:"recipient"`
	Token     string `json:"token"`
	Value     string `json:"value"`
	ChainID   int64  `json:"chainId"`
}

// PrepareResponse carries the signable skeleton. Message.Value and Message.To
// must match the request; callers check before signing.
type PrepareResponse struct {
	Nonce       string           `json:"nonce"`
	ValidAfter  string           `json:"validAfter"`
	ValidBefore string           `json:"validBefore"`
	TypedData   eip712.TypedData `json:"typedData"`
}

// ExecuteRequest hands the signed authorization back for broadcast.
type ExecuteRequest struct {
	Authorization eip712.Authorization `json:"authorization"`
	Signature     string               `json:"signature"`
	Token         string               `json:"token"`
	ChainID       int64                `json:"chainId"`
}

// Receipt is the relay's answer to execute.
type Receipt struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
	Error           string `json:"error,omitempty"`
}
