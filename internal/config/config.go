package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	Networks  NetworksConfig  `json:"networks"`
	Jupiter   JupiterConfig   `json:"jupiter"`
	Prices    PricesConfig    `json:"prices"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI              string        `json:"uri"`
	Database         string        `json:"database"`
	APIKeyCollection string        `json:"api_key_collection"`
	WalletCollection string        `json:"wallet_collection"`
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	MaxPoolSize      uint64        `json:"max_pool_size"`
}

// NetworksConfig holds per-cluster Solana RPC configuration
type NetworksConfig struct {
	MainnetRPC     string        `json:"mainnet_rpc"`
	DevnetRPC      string        `json:"devnet_rpc"`
	RequestTimeout time.Duration `json:"request_timeout"`
	ConfirmTimeout time.Duration `json:"confirm_timeout"`
}

// JupiterConfig holds the external swap aggregator endpoints
type JupiterConfig struct {
	QuoteURL string        `json:"quote_url"`
	SwapURL  string        `json:"swap_url"`
	PriceURL string        `json:"price_url"`
	Timeout  time.Duration `json:"timeout"`
}

// PricesConfig holds price cache configuration
type PricesConfig struct {
	RefreshInterval time.Duration `json:"refresh_interval"`
	RequestTimeout  time.Duration `json:"request_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	Burst             int           `json:"burst"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// LoadConfig loads configuration from environment variables with defaults.
// A .env file is loaded best-effort first.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		MongoDB: MongoDBConfig{
			URI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:         getEnv("MONGODB_DATABASE", "dcex"),
			APIKeyCollection: getEnv("MONGODB_APIKEY_COLLECTION", "api_keys"),
			WalletCollection: getEnv("MONGODB_WALLET_COLLECTION", "sol_wallets"),
			ConnectTimeout:   getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:      getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		Networks: NetworksConfig{
			MainnetRPC:     getEnv("SOLANA_MAINNET_RPC_URL", "https://api.mainnet-beta.solana.com"),
			DevnetRPC:      getEnv("SOLANA_DEVNET_RPC_URL", "https://api.devnet.solana.com"),
			RequestTimeout: getDurationEnv("SOLANA_RPC_TIMEOUT", 30*time.Second),
			ConfirmTimeout: getDurationEnv("SOLANA_CONFIRM_TIMEOUT", 90*time.Second),
		},
		Jupiter: JupiterConfig{
			QuoteURL: getEnv("JUPITER_QUOTE_URL", "https://api.jup.ag/swap/v1/quote"),
			SwapURL:  getEnv("JUPITER_SWAP_URL", "https://api.jup.ag/swap/v1/swap"),
			PriceURL: getEnv("JUPITER_PRICE_URL", "https://api.jup.ag/price/v2"),
			Timeout:  getDurationEnv("JUPITER_TIMEOUT", 15*time.Second),
		},
		Prices: PricesConfig{
			RefreshInterval: getDurationEnv("PRICE_REFRESH_INTERVAL", 60*time.Second),
			RequestTimeout:  getDurationEnv("PRICE_REQUEST_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 10),
			CleanupInterval:   getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: []string{getEnv("LOG_OUTPUT_PATH", "stdout")},
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
