package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"scanpay/internal/metrics"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// EVMBalances reads ERC-20 balances through one RPC client per chain.
type EVMBalances struct {
	callers map[int64]ContractCaller
	chains  map[int64]Chain
	abi     abi.ABI
	metrics metrics.Recorder
}

func NewEVMBalances(callers map[int64]ContractCaller, chains map[int64]Chain, rec metrics.Recorder) (*EVMBalances, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &EVMBalances{
		callers: callers,
		chains:  chains,
		abi:     parsed,
		metrics: rec,
	}, nil
}

func (b *EVMBalances) Balance(ctx context.Context, owner common.Address, chainID int64) (decimal.Decimal, error) {
	chain, ok := b.chains[chainID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	caller, ok := b.callers[chainID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rpc client for %d", ErrUnsupportedChain, chainID)
	}

	callData, err := b.abi.Pack("balanceOf", owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pack balanceOf: %w", err)
	}

	token := common.HexToAddress(chain.TokenAddress)
	start := time.Now()
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	b.observe(start, chainID, err)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceOf on %s: %w", chain.Name, err)
	}

	values, err := b.abi.Unpack("balanceOf", out)
	if err != nil || len(values) != 1 {
		return decimal.Zero, fmt.Errorf("unpack balanceOf: %w", err)
	}
	units, ok := values[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unpack balanceOf: unexpected %T", values[0])
	}

	return FromBaseUnits(units, chain.Decimals), nil
}

func (b *EVMBalances) observe(start time.Time, chainID int64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	b.metrics.ObserveLatency("wallet.balance", time.Since(start), map[string]string{
		metrics.LabelResult:  result,
		metrics.LabelChainID: strconv.FormatInt(chainID, 10),
	})
}
