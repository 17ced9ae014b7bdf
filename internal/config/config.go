package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Privy          PrivyConfig
	Blockchain     BlockchainConfig
	Reconciliation ReconciliationConfig
	Jobs           JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	LinkBaseURL     string
	LinkTTL         time.Duration
}

// IsDevelopment reports whether internal error details may be exposed
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URLOverride string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// URL returns the database connection URL; DATABASE_URL wins when set
func (c DatabaseConfig) URL() string {
	if c.URLOverride != "" {
		return c.URLOverride
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL              string
	Password         string
	IdentityCacheTTL time.Duration
}

// PrivyConfig holds identity provider settings
type PrivyConfig struct {
	AppID           string
	AppSecret       string
	APIURL          string
	Issuer          string
	VerificationKey string
	JWKSURL         string
	JWKSCacheTTL    time.Duration
	Timeout         time.Duration
}

// BlockchainConfig holds Kaia node and contract settings
type BlockchainConfig struct {
	RPCURL             string
	ContractAddress    string
	PotTokenAddress    string
	FeePayerPrivateKey string
	FeePayerAddresses  []string
	RelayMethod        string
}

// ReconciliationConfig holds retry settings for chain access
type ReconciliationConfig struct {
	ReceiptAttempts int
	ReceiptDelay    time.Duration
	RelayAttempts   int
	RelayDelay      time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	LinkExpiryEnabled bool
	LinkExpirySpec    string
	LinkExpiryTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("SERVER_ENV", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			LinkBaseURL:     strings.TrimRight(getEnv("LINK_BASE_URL", "http://localhost:3000"), "/"),
			LinkTTL:         getEnvAsDuration("LINK_TTL", 72*time.Hour),
		},
		Database: DatabaseConfig{
			URLOverride: getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "kaiapay"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:              getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:         getEnv("REDIS_PASSWORD", ""),
			IdentityCacheTTL: getEnvAsDuration("IDENTITY_CACHE_TTL", 10*time.Minute),
		},
		Privy: PrivyConfig{
			AppID:           getEnv("PRIVY_APP_ID", ""),
			AppSecret:       getEnv("PRIVY_APP_SECRET", ""),
			APIURL:          getEnv("PRIVY_API_URL", "https://auth.privy.io"),
			Issuer:          getEnv("PRIVY_ISSUER", "privy.io"),
			VerificationKey: getEnv("PRIVY_VERIFICATION_KEY", ""),
			JWKSURL:         getEnv("PRIVY_JWKS_URL", ""),
			JWKSCacheTTL:    getEnvAsDuration("PRIVY_JWKS_CACHE_TTL", time.Hour),
			Timeout:         getEnvAsDuration("PRIVY_TIMEOUT", 5*time.Second),
		},
		Blockchain: BlockchainConfig{
			RPCURL:             getEnv("KAIA_RPC_URL", "https://public-en-kairos.node.kaia.io"),
			ContractAddress:    getEnv("KAIAPAY_CONTRACT_ADDRESS", ""),
			PotTokenAddress:    getEnv("USDT_ADDRESS", ""),
			FeePayerPrivateKey: getEnv("FEE_PAYER_PRIVATE_KEY", ""),
			FeePayerAddresses:  getEnvAsList("FEE_PAYER_WATCH_ADDRESSES", nil),
			RelayMethod:        getEnv("RELAY_METHOD", "klay_sendRawTransaction"),
		},
		Reconciliation: ReconciliationConfig{
			ReceiptAttempts: getEnvAsInt("RECEIPT_FETCH_ATTEMPTS", 5),
			ReceiptDelay:    getEnvAsDuration("RECEIPT_FETCH_DELAY", time.Second),
			RelayAttempts:   getEnvAsInt("RELAY_ATTEMPTS", 3),
			RelayDelay:      getEnvAsDuration("RELAY_DELAY", 500*time.Millisecond),
		},
		Jobs: JobsConfig{
			LinkExpiryEnabled: getEnvAsBool("JOB_LINK_EXPIRY_ENABLED", true),
			LinkExpirySpec:    getEnv("JOB_LINK_EXPIRY_SPEC", "@every 1m"),
			LinkExpiryTimeout: getEnvAsDuration("JOB_LINK_EXPIRY_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
