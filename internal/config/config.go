/**
 * @description
 * This package handles configuration management for the ledger-service. It
 * uses the Viper library to read configuration from environment variables
 * (with an optional .env file), providing a centralized way to manage
 * application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	TransferEventExchange string `mapstructure:"TRANSFER_EVENT_EXCHANGE"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix  string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`

	AccessTokenSecret     string `mapstructure:"ACCESS_TOKEN_SECRET"`
	AccessTokenTTLMinutes int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	InternalAPIKey        string `mapstructure:"INTERNAL_API_KEY"`
	CORSAllowedOrigins    string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	MinTransferAmount          int64 `mapstructure:"MIN_TRANSFER_AMOUNT"`
	FeeFreeLimit               int64 `mapstructure:"FEE_FREE_LIMIT"`
	TransferFlatFee            int64 `mapstructure:"TRANSFER_FLAT_FEE"`
	BalanceConflictRetries     int   `mapstructure:"BALANCE_CONFLICT_RETRIES"`
	TransferRateLimitPerMinute int   `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
	PINBcryptCost              int   `mapstructure:"PIN_BCRYPT_COST"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TRANSFER_EVENT_EXCHANGE", "paypulse.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "paypulse:rate_limit")
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("MIN_TRANSFER_AMOUNT", 50)
	viper.SetDefault("FEE_FREE_LIMIT", 99)
	viper.SetDefault("TRANSFER_FLAT_FEE", 5)
	viper.SetDefault("BALANCE_CONFLICT_RETRIES", 3)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("PIN_BCRYPT_COST", 10)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TRANSFER_EVENT_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("ACCESS_TOKEN_SECRET")
	_ = viper.BindEnv("ACCESS_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "LEDGER_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("MIN_TRANSFER_AMOUNT")
	_ = viper.BindEnv("FEE_FREE_LIMIT")
	_ = viper.BindEnv("TRANSFER_FLAT_FEE")
	_ = viper.BindEnv("BALANCE_CONFLICT_RETRIES")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("PIN_BCRYPT_COST")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("LEDGER_SERVICE_INTERNAL_API_KEY"))
	}
	config.AccessTokenSecret = strings.TrimSpace(config.AccessTokenSecret)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "paypulse:rate_limit"
	}

	if config.MinTransferAmount < 1 {
		log.Printf("level=warn component=config msg=\"minimum transfer amount too low; coercing to default\" min_amount=%d", config.MinTransferAmount)
		config.MinTransferAmount = 50
	}
	if config.FeeFreeLimit < 0 {
		log.Printf("level=warn component=config msg=\"negative fee-free limit configured; coercing to zero\" fee_free_limit=%d", config.FeeFreeLimit)
		config.FeeFreeLimit = 0
	}
	if config.TransferFlatFee < 0 {
		log.Printf("level=warn component=config msg=\"negative flat fee configured; coercing to zero\" flat_fee=%d", config.TransferFlatFee)
		config.TransferFlatFee = 0
	}
	if config.BalanceConflictRetries <= 0 {
		config.BalanceConflictRetries = 3
	}
	if config.AccessTokenTTLMinutes <= 0 {
		config.AccessTokenTTLMinutes = 60
	}
	if config.PINBcryptCost <= 0 {
		config.PINBcryptCost = 10
	}

	return
}

// AllowedOrigins splits the configured comma-separated CORS origin allowlist.
func (c Config) AllowedOrigins() []string {
	raw := strings.TrimSpace(c.CORSAllowedOrigins)
	if raw == "" {
		return []string{"http://localhost:5173", "http://localhost:5174"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
