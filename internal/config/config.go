package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Mode selects which base endpoint pair each gateway talks to.
type Mode string

const (
	ModeSandbox    Mode = "sandbox"
	ModeProduction Mode = "production"
)

// KhaltiConfig holds Khalti ePayment credentials.
type KhaltiConfig struct {
	SecretKey string
	PublicKey string
}

// EsewaConfig holds eSewa ePay v2 credentials.
type EsewaConfig struct {
	ProductCode string
	SecretKey   string
}

// FonepayConfig holds Fonepay merchant API credentials.
type FonepayConfig struct {
	MerchantID string
	SecretKey  string
}

// Config aggregates per-gateway credentials. A nil gateway section means that
// gateway is not configured; adapters for it are simply not constructed.
type Config struct {
	AppPort string
	AppEnv  string
	Mode    Mode

	Khalti  *KhaltiConfig
	Esewa   *EsewaConfig
	Fonepay *FonepayConfig
}

// Sandbox reports whether gateways should use their test endpoints.
func (c *Config) Sandbox() bool {
	return c.Mode != ModeProduction
}

var ErrNoGatewaysConfigured = errors.New("no payment gateways configured")

// LoadConfig reads gateway credentials from the environment (an .env file is
// honored when present). A gateway missing its mandatory keys is left
// unconfigured; zero configured gateways is a startup error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort: envOrDefault("APP_PORT", "8080"),
		AppEnv:  os.Getenv("APP_ENV"),
		Mode:    ModeSandbox,
	}
	if os.Getenv("PAYMENT_MODE") == string(ModeProduction) {
		cfg.Mode = ModeProduction
	}

	if secret := os.Getenv("KHALTI_SECRET_KEY"); secret != "" {
		cfg.Khalti = &KhaltiConfig{
			SecretKey: secret,
			PublicKey: os.Getenv("KHALTI_PUBLIC_KEY"),
		}
	}

	if code, secret := os.Getenv("ESEWA_PRODUCT_CODE"), os.Getenv("ESEWA_SECRET_KEY"); code != "" && secret != "" {
		cfg.Esewa = &EsewaConfig{
			ProductCode: code,
			SecretKey:   secret,
		}
	}

	if id, secret := os.Getenv("FONEPAY_MERCHANT_ID"), os.Getenv("FONEPAY_SECRET_KEY"); id != "" && secret != "" {
		cfg.Fonepay = &FonepayConfig{
			MerchantID: id,
			SecretKey:  secret,
		}
	}

	if cfg.Khalti == nil && cfg.Esewa == nil && cfg.Fonepay == nil {
		return nil, ErrNoGatewaysConfigured
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
