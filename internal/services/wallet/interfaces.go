package wallet

import (
	"context"
	"math/big"

	"scanpay/internal/eip712"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// BalanceChecker returns a token balance in display units.
type BalanceChecker interface {
	Balance(ctx context.Context, owner common.Address, chainID int64) (decimal.Decimal, error)
}

// Signer holds the payer key. It never leaves the payer's process.
type Signer interface {
	Address() common.Address
	SignAuthorization(ctx context.Context, td eip712.TypedData) ([]byte, error)
}

// ContractCaller is the read-only slice of *ethclient.Client used here.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}
