package wallet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// LookupChain returns the chain config, replacing the token contract when
// tokenOverride is set.
func LookupChain(chainID int64, tokenOverride string) (Chain, error) {
	chain, ok := KnownChains[chainID]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	if tokenOverride != "" {
		if !common.IsHexAddress(tokenOverride) {
			return Chain{}, fmt.Errorf("token address %q is not a hex address", tokenOverride)
		}
		chain.TokenAddress = tokenOverride
	}
	return chain, nil
}

// ToBaseUnits converts a display amount to token base units, rounding up so
// the payer never authorizes less than the quoted total.
func ToBaseUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Ceil().BigInt()
}

// FromBaseUnits converts token base units to a display amount.
func FromBaseUnits(units *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(units, -decimals)
}
