// Package eip712 hashes, signs and recovers EIP-3009 TransferWithAuthorization
// messages, the typed data a payer signs so the relay can move tokens without
// the payer paying gas.
package eip712

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	domainType   = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	transferType = "TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"

	// PrimaryType is the struct name used in typed-data payloads.
	PrimaryType = "TransferWithAuthorization"
)

var (
	domainTypeHash   = crypto.Keccak256Hash([]byte(domainType))
	transferTypeHash = crypto.Keccak256Hash([]byte(transferType))

	ErrIncompleteDomain = errors.New("incomplete domain")
	ErrBadSignature     = errors.New("signature must be 65 bytes")
)

// Domain binds a signature to one token contract on one chain.
type Domain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           int64  `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// Authorization is the EIP-3009 message. Integers are decimal strings and
// the nonce is 0x-prefixed 32-byte hex, matching the JSON the relay exchanges.
type Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// TypedData is the signable skeleton returned by the settlement prepare call.
type TypedData struct {
	PrimaryType string        `json:"primaryType"`
	Domain      Domain        `json:"domain"`
	Message     Authorization `json:"message"`
}

// DomainSeparator is keccak256(abi.encode(typeHash, name, version, chainId, verifyingContract)).
func DomainSeparator(d Domain) (common.Hash, error) {
	if d.Name == "" || d.Version == "" || d.ChainID == 0 || !common.IsHexAddress(d.VerifyingContract) {
		return common.Hash{}, ErrIncompleteDomain
	}

	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		leftPadBig(big.NewInt(d.ChainID)),
		leftPadAddress(common.HexToAddress(d.VerifyingContract)),
	), nil
}

// StructHash hashes the authorization message.
func StructHash(a Authorization) (common.Hash, error) {
	if !common.IsHexAddress(a.From) || !common.IsHexAddress(a.To) {
		return common.Hash{}, errors.New("from and to must be hex addresses")
	}

	value, err := parseUint(a.Value, "value")
	if err != nil {
		return common.Hash{}, err
	}
	validAfter, err := parseUint(a.ValidAfter, "validAfter")
	if err != nil {
		return common.Hash{}, err
	}
	validBefore, err := parseUint(a.ValidBefore, "validBefore")
	if err != nil {
		return common.Hash{}, err
	}
	nonce, err := ParseNonce(a.Nonce)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(
		transferTypeHash.Bytes(),
		leftPadAddress(common.HexToAddress(a.From)),
		leftPadAddress(common.HexToAddress(a.To)),
		leftPadBig(value),
		leftPadBig(validAfter),
		leftPadBig(validBefore),
		nonce[:],
	), nil
}

// Digest is keccak256("\x19\x01" || domainSeparator || structHash).
func Digest(td TypedData) (common.Hash, error) {
	sep, err := DomainSeparator(td.Domain)
	if err != nil {
		return common.Hash{}, err
	}
	structHash, err := StructHash(td.Message)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte("\x19\x01"), sep.Bytes(), structHash.Bytes()), nil
}

// Sign returns the 65-byte R||S||V signature with V in {27, 28}.
func Sign(td TypedData, key *ecdsa.PrivateKey) ([]byte, error) {
	digest, err := Digest(td)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("crypto.Sign: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// Recover returns the address that produced sig over td. V may be 0/1 or 27/28.
func Recover(td TypedData, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, ErrBadSignature
	}
	digest, err := Digest(td)
	if err != nil {
		return common.Address{}, err
	}

	s := make([]byte, 65)
	copy(s, sig)
	if s[64] >= 27 {
		s[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), s)
	if err != nil {
		return common.Address{}, fmt.Errorf("sig to pub failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// ParseNonce decodes a hex nonce of at most 32 bytes, left-padding shorter ones.
func ParseNonce(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, fmt.Errorf("bad nonce hex: %w", err)
	}
	if len(b) > 32 {
		return out, fmt.Errorf("nonce length=%d", len(b))
	}
	copy(out[32-len(b):], b)
	return out, nil
}

// SignatureHex formats a signature the way the relay expects it.
func SignatureHex(sig []byte) string {
	return "0x" + hex.EncodeToString(sig)
}

func parseUint(s, field string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("bad %s %q", field, s)
	}
	return n, nil
}

func leftPadBig(n *big.Int) []byte {
	return common.LeftPadBytes(n.Bytes(), 32)
}

func leftPadAddress(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}
