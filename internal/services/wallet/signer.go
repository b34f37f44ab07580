package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"scanpay/internal/eip712"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeySigner signs with an in-process secp256k1 key.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner decodes a hex private key, with or without 0x.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewKeySignerFromKey(key), nil
}

func NewKeySignerFromKey(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignAuthorization refuses typed data whose "from" is not this key.
func (s *KeySigner) SignAuthorization(ctx context.Context, td eip712.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(td.Message.From) || common.HexToAddress(td.Message.From) != s.address {
		return nil, fmt.Errorf("%w: %s", ErrSignerMismatch, td.Message.From)
	}
	return eip712.Sign(td, s.key)
}
