// Package config loads the process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fjod/go_storefront/internal/payment/paytm"
	"github.com/fjod/go_storefront/internal/payment/upi"
	"github.com/fjod/go_storefront/internal/pricing"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Port            string
	BaseURL         string
	AdminAPIKey     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	StaticDir      string
	UploadDir      string
	UploadMaxBytes int64

	StoreDriver    string
	DataDir        string
	DatabaseURL    string
	MigrationsPath string
	MongoURI       string
	MongoDB        string

	RedisAddr     string
	RedisPassword string
	CartTTL       time.Duration
	KafkaBrokers  []string
	KafkaTopic    string

	Pricing pricing.Config
	UPI     upi.Config
	Paytm   paytm.Config
}

// Load reads .env when present, then the environment. Environment variables win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		AdminAPIKey:    getEnv("ADMIN_API_KEY", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StaticDir:      getEnv("STATIC_DIR", "./public"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreFile)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/sqlstore/migrations"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "storefront"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "storefront-orders"),
	}
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartTTL, err = getDuration("CART_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.UploadMaxBytes, err = getInt64("UPLOAD_MAX_BYTES", 5<<20); err != nil {
		return nil, err
	}

	currency := getEnv("CURRENCY", pricing.DefaultCurrency)
	cfg.Pricing = pricing.Config{Currency: currency}
	if cfg.Pricing.ShippingFee, err = getFloat("SHIPPING_FEE", pricing.DefaultShippingFee); err != nil {
		return nil, err
	}
	if cfg.Pricing.FreeShippingThreshold, err = getFloat("FREE_SHIPPING_THRESHOLD", pricing.DefaultFreeShippingThreshold); err != nil {
		return nil, err
	}

	cfg.UPI = upi.Config{
		PayeeID:   getEnv("UPI_PAYEE_ID", ""),
		PayeeName: getEnv("UPI_PAYEE_NAME", ""),
		Currency:  currency,
	}

	cfg.Paytm = paytm.Config{
		Mode:        getEnv("PAYTM_MODE", ""),
		MerchantID:  getEnv("PAYTM_MERCHANT_ID", ""),
		MerchantKey: getEnv("PAYTM_MERCHANT_KEY", ""),
		Website:     getEnv("PAYTM_WEBSITE", "WEBSTAGING"),
		Environment: getEnv("PAYTM_ENVIRONMENT", "staging"),
		CallbackURL: getEnv("PAYTM_CALLBACK_URL", cfg.BaseURL+"/payments/paytm/webhook"),
		Currency:    currency,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	switch c.StoreDriver {
	case StoreFile, StoreMongo:
	case StoreSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = "./data/storefront.db"
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
