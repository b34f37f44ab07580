package wallet

// Chain ids
const (
	ChainBase        int64 = 8453
	ChainPolygon     int64 = 137
	ChainBaseSepolia int64 = 84532
)

// USDC uses 6 decimals on every supported chain.
const DefaultTokenDecimals int32 = 6

// Chain describes the token contract used on one network.
type Chain struct {
	ID           int64
	Name         string
	TokenAddress string
	TokenName    string
	TokenVersion string
	Decimals     int32
}

// KnownChains lists the networks payments can settle on.
var KnownChains = map[int64]Chain{
	ChainBase: {
		ID:           ChainBase,
		Name:         "Base",
		TokenAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		TokenName:    "USD Coin",
		TokenVersion: "2",
		Decimals:     DefaultTokenDecimals,
	},
	ChainPolygon: {
		ID:           ChainPolygon,
		Name:         "Polygon",
		TokenAddress: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		TokenName:    "USD Coin",
		TokenVersion: "2",
		Decimals:     DefaultTokenDecimals,
	},
	ChainBaseSepolia: {
		ID:           ChainBaseSepolia,
		Name:         "Base Sepolia",
		TokenAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		TokenName:    "USDC",
		TokenVersion: "2",
		Decimals:     DefaultTokenDecimals,
	},
}

const erc20ABI = `[{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`
