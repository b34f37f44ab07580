/*
Package wallet reads the payer's stablecoin balance and signs gasless
transfer authorizations with the payer's local key.

The package handles:
- Chain lookup (token contract, EIP-712 domain, decimals)
- ERC-20 balanceOf queries over JSON-RPC
- EIP-3009 authorization signing
- Conversion between display amounts and token base units

Usage:

	// Connect balance readers per chain
	client, err := ethclient.DialContext(ctx, rpcURL)
	balances, err := wallet.NewEVMBalances(map[int64]wallet.ContractCaller{8453: client}, wallet.KnownChains, recorder)

	// Read a balance in display units
	bal, err := balances.Balance(ctx, owner, 8453)

	// Sign the typed data returned by settlement prepare
	signer, err := wallet.NewKeySigner(hexKey)
	sig, err := signer.SignAuthorization(ctx, typedData)

Configuration:

KnownChains covers Base, Polygon and Base Sepolia with native USDC. A
TOKEN_ADDRESS override replaces the contract for the configured chain:

	chain, err := wallet.LookupChain(cfg.ChainID, cfg.TokenAddress)

Error Handling:

The package returns specific errors for different scenarios:
- ErrUnsupportedChain: When no chain config or RPC client exists for the id
- ErrInvalidKey: When the private key cannot be decoded
- ErrSignerMismatch: When typed data names a different payer
*/
package wallet
