package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NatsURL           string
	PaymentSubject    string
	JWTSecret         string
	TokenTTL          time.Duration
	StatsCacheTTL     time.Duration
	PaynowID          string
	PaynowKey         string
	PaynowInitiateURL string
	PaynowReturnURL   string
	PaynowResultURL   string
	PaynowTimeout     time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCHOOL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "School Management API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("payment.subject", "school.payments.received")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("paynow.timeout", "30s")

	tokenTTL, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	statsTTL, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	paynowTimeout, err := time.ParseDuration(v.GetString("paynow.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid paynow timeout: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NatsURL:           v.GetString("nats.url"),
		PaymentSubject:    v.GetString("payment.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		TokenTTL:          tokenTTL,
		StatsCacheTTL:     statsTTL,
		PaynowID:          v.GetString("paynow.integration_id"),
		PaynowKey:         v.GetString("paynow.integration_key"),
		PaynowInitiateURL: v.GetString("paynow.initiate_url"),
		PaynowReturnURL:   v.GetString("paynow.return_url"),
		PaynowResultURL:   v.GetString("paynow.result_url"),
		PaynowTimeout:     paynowTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
