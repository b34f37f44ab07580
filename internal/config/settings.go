package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config groups every setting the server and the CLI read at startup.
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret   string
	APIToken    string
	TokenExpiry time.Duration

	// Collaborators
	APIBaseURL       string
	ConversionAPIURL string
	SettlementAPIURL string
	PayoutAPIURL     string
	PayoutAPIKey     string
	HTTPTimeout      time.Duration

	// Chain
	ChainID          int64
	RPCURL           string
	TokenAddress     string
	TreasuryAddress  string
	WalletPrivateKey string

	// Payment rules
	MaxFiatAmount     decimal.Decimal
	QuoteTTL          time.Duration
	ReconcileInterval time.Duration

	// Scanner
	ScanRetryDelay time.Duration

	// PubNub
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubUserID       string
}

// DefaultMaxFiatAmount is the per-payment ceiling in INR.
const DefaultMaxFiatAmount = "25000"

// Load reads the environment into a Config. Call LoadEnv first to pick up .env files.
func Load() *Config {
	maxAmount, err := decimal.NewFromString(GetEnv("MAX_FIAT_AMOUNT", DefaultMaxFiatAmount))
	if err != nil || !maxAmount.IsPositive() {
		maxAmount = decimal.RequireFromString(DefaultMaxFiatAmount)
	}

	return &Config{
		Port:        GetEnv("PORT", "3000"),
		Environment: GetEnv("ENV", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),

		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", "postgres"),
		DBName:     GetEnv("DB_NAME", "scanpay"),

		RedisHost:     GetEnv("REDIS_HOST", "localhost"),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetIntEnv("REDIS_DB", 0),

		JWTSecret:   GetEnv("JWT_SECRET", "scanpay"),
		APIToken:    GetEnv("API_TOKEN", ""),
		TokenExpiry: GetDurationEnv("TOKEN_EXPIRY", 24*time.Hour),

		APIBaseURL:       GetEnv("API_BASE_URL", "http://localhost:3000"),
		ConversionAPIURL: GetEnv("CONVERSION_API_URL", "http://localhost:4001"),
		SettlementAPIURL: GetEnv("SETTLEMENT_API_URL", "http://localhost:4002"),
		PayoutAPIURL:     GetEnv("PAYOUT_API_URL", "http://localhost:4003"),
		PayoutAPIKey:     GetEnv("PAYOUT_API_KEY", ""),
		HTTPTimeout:      GetDurationEnv("HTTP_TIMEOUT", 30*time.Second),

		ChainID:          GetInt64Env("CHAIN_ID", 8453),
		RPCURL:           GetEnv("RPC_URL", "https://mainnet.base.org"),
		TokenAddress:     GetEnv("TOKEN_ADDRESS", ""),
		TreasuryAddress:  GetEnv("TREASURY_ADDRESS", ""),
		WalletPrivateKey: GetEnv("WALLET_PRIVATE_KEY", ""),

		MaxFiatAmount:     maxAmount,
		QuoteTTL:          GetDurationEnv("QUOTE_TTL", 30*time.Second),
		ReconcileInterval: GetDurationEnv("RECONCILE_INTERVAL", 0),

		ScanRetryDelay: GetDurationEnv("SCAN_RETRY_DELAY", 500*time.Millisecond),

		PubNubPublishKey:   GetEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: GetEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubUserID:       GetEnv("PUBNUB_USER_ID", "scanpay-server"),
	}
}

// RedisAddr joins host and port.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort + " sslmode=disable"
}
