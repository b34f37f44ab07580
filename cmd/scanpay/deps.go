package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanpay/internal/metrics"
	"scanpay/internal/repositories"
	"scanpay/internal/repositories/cache"
	"scanpay/internal/services/conversion"
	"scanpay/internal/services/payment"
	"scanpay/internal/services/payout"
	"scanpay/internal/services/settlement"
	"scanpay/internal/services/store"
	"scanpay/internal/services/wallet"
	"scanpay/internal/utils/httpclient"

	"github.com/ethereum/go-ethereum/ethclient"
)

// cleanup releases what a builder opened.
type cleanup func()

func newAPIClient(name string) (*httpclient.Client, error) {
	if cfg.APIToken == "" {
		return nil, errors.New("API_TOKEN is not set; mint one with `scanpay token`")
	}
	token := cfg.APIToken
	return httpclient.New(name, apiURL, cfg.HTTPTimeout,
		httpclient.WithBearer(func() string { return token }),
	), nil
}

func newAPIStore() (*store.HTTPStore, error) {
	client, err := newAPIClient("api")
	if err != nil {
		return nil, err
	}
	return store.NewHTTPStore(client), nil
}

// buildPayment wires the orchestrator for one CLI run. With useRedis the
// submission guard and the quote cache are shared through Redis.
func buildPayment(ctx context.Context, useRedis bool) (payment.Service, cleanup, error) {
	var closers []func()
	done := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (payment.Service, cleanup, error) {
		done()
		return nil, nil, err
	}

	rec := metrics.NoopRecorder{}

	api, err := newAPIStore()
	if err != nil {
		return fail(err)
	}

	signer, err := wallet.NewKeySigner(cfg.WalletPrivateKey)
	if err != nil {
		return fail(fmt.Errorf("wallet key: %w", err))
	}

	chain, err := wallet.LookupChain(chainID, cfg.TokenAddress)
	if err != nil {
		return fail(err)
	}
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fail(fmt.Errorf("dial rpc: %w", err))
	}
	closers = append(closers, eth.Close)

	chains := map[int64]wallet.Chain{chainID: chain}
	balances, err := wallet.NewEVMBalances(map[int64]wallet.ContractCaller{chainID: eth}, chains, rec)
	if err != nil {
		return fail(err)
	}

	var quotes conversion.Service = conversion.NewHTTPClient(httpclient.New("conversion", cfg.ConversionAPIURL, cfg.HTTPTimeout))
	var guard payment.SubmissionGuard = payment.NewMemoryGuard()
	if useRedis {
		rdb, err := repositories.InitRedis(ctx, repositories.NewRedisConfig(cfg))
		if err != nil {
			return fail(err)
		}
		cs := cache.NewCacheService(rdb, cfg.QuoteTTL)
		closers = append(closers, func() { _ = cs.Close() })
		quotes = conversion.NewCachedService(quotes, cs, cfg.QuoteTTL, log)
		guard = payment.NewRedisGuard(cs)
	}

	svc := payment.NewService(payment.Config{
		MaxAmount: cfg.MaxFiatAmount,
		Treasury:  cfg.TreasuryAddress,
		GuardTTL:  payment.DefaultGuardTTL,
	}, payment.Dependencies{
		Conversion: quotes,
		Balances:   balances,
		Signer:     signer,
		Settlement: settlement.NewHTTPClient(httpclient.New("settlement", cfg.SettlementAPIURL, cfg.HTTPTimeout)),
		Payout: payout.NewHTTPClient(httpclient.New("payout", cfg.PayoutAPIURL, cfg.HTTPTimeout,
			httpclient.WithHeader("X-Api-Key", cfg.PayoutAPIKey))),
		Store:         api,
		Beneficiaries: api,
		Guard:         guard,
		Chains:        chains,
		Log:           log,
		Metrics:       rec,
	})
	return svc, done, nil
}

// withTimeout bounds a command when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
