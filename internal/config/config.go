// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Session     SessionConfig
	AWS         AWSConfig
	Storage     StorageConfig
	Blockchain  BlockchainConfig
	Backend     BackendConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
	Reconciler  ReconcilerConfig
}

type FrontendConfig struct {
	BaseURL       string
	DashboardPath string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimit    bool
	CORSOrigins  []string
}

type DatabaseConfig struct {
	Driver       string // postgres, mongo or memory
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	MongoURI     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type SessionConfig struct {
	Secret string
	Name   string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	S3Bucket        string
}

type StorageConfig struct {
	Driver         string // ipfs or s3
	IPFSAPIURL     string
	PublishTimeout time.Duration
}

type BlockchainConfig struct {
	RPCURLs          map[string]string
	FactoryAddresses map[string]string
	PrivateKey       string
	Confirmations    int
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
}

type BackendConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

type ReconcilerConfig struct {
	Enabled  bool
	Interval time.Duration
	StaleAge time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 180),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvAsBool("RATE_LIMIT_ENABLED", true),
			CORSOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "https://mintcart.xyz"}),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "mintcart"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "info"),
			MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-session-secret-change-in-production"),
			Name:   getEnv("SESSION_NAME", "mintcart_session"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", "https://s3.filebase.com"),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "mintcart-metadata"),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "ipfs"),
			IPFSAPIURL:     getEnv("IPFS_API_URL", "http://localhost:5001"),
			PublishTimeout: getEnvAsDuration("IPFS_PUBLISH_TIMEOUT", 30*time.Second),
		},
		Blockchain: BlockchainConfig{
			RPCURLs:          getEnvAsMap("BLOCKCHAIN_RPC_URLS"),
			FactoryAddresses: getEnvAsMap("BLOCKCHAIN_FACTORY_ADDRESSES"),
			PrivateKey:       getEnv("BLOCKCHAIN_PRIVATE_KEY", ""),
			Confirmations:    getEnvAsInt("BLOCKCHAIN_CONFIRMATIONS", 1),
			ConfirmTimeout:   getEnvAsDuration("BLOCKCHAIN_CONFIRM_TIMEOUT", 2*time.Minute),
			PollInterval:     getEnvAsDuration("BLOCKCHAIN_POLL_INTERVAL", 2*time.Second),
		},
		Backend: BackendConfig{
			APIURL:  getEnv("BACKEND_API_URL", "http://localhost:8080"),
			APIKey:  getEnv("BACKEND_API_KEY", ""),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
		Frontend: FrontendConfig{
			BaseURL:       getEnv("FRONTEND_BASE_URL", "https://mintcart.xyz"),
			DashboardPath: getEnv("FRONTEND_DASHBOARD_PATH", "/dashboard"),
		},
		Reconciler: ReconcilerConfig{
			Enabled:  getEnvAsBool("RECONCILER_ENABLED", true),
			Interval: getEnvAsDuration("RECONCILER_INTERVAL", time.Minute),
			StaleAge: getEnvAsDuration("RECONCILER_STALE_AGE", 5*time.Minute),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Session.Secret == "your-session-secret-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("session secret must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" && c.Database.Driver == "postgres" {
		return fmt.Errorf("database password is required in production")
	}

	switch c.Database.Driver {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "ipfs", "s3":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Blockchain.Confirmations < 1 {
		return fmt.Errorf("blockchain confirmations must be at least 1")
	}

	for chainID := range c.Blockchain.FactoryAddresses {
		if _, ok := c.Blockchain.RPCURLs[chainID]; !ok {
			return fmt.Errorf("factory configured for chain %s without an RPC URL", chainID)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvAsMap parses "1=https://a,137=https://b" into a map keyed by chain id.
func getEnvAsMap(key string) map[string]string {
	return ParseChainMap(os.Getenv(key))
}

func ParseChainMap(value string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k, v := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if k == "" || v == "" {
			continue
		}
		result[k] = v
	}
	return result
}
