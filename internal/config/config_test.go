package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KHALTI_SECRET_KEY", "KHALTI_PUBLIC_KEY",
		"ESEWA_PRODUCT_CODE", "ESEWA_SECRET_KEY",
		"FONEPAY_MERCHANT_ID", "FONEPAY_SECRET_KEY",
		"PAYMENT_MODE", "APP_PORT", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("All gateways configured", func(t *testing.T) {
		clearGatewayEnv(t)
		t.Setenv("KHALTI_SECRET_KEY", "khalti-secret")
		t.Setenv("KHALTI_PUBLIC_KEY", "khalti-public")
		t.Setenv("ESEWA_PRODUCT_CODE", "EPAYTEST")
		t.Setenv("ESEWA_SECRET_KEY", "esewa-secret")
		t.Setenv("FONEPAY_MERCHANT_ID", "MERCHANT1")
		t.Setenv("FONEPAY_SECRET_KEY", "fonepay-secret")
		t.Setenv("PAYMENT_MODE", "production")
		t.Setenv("APP_PORT", "9090")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, ModeProduction, cfg.Mode)
		assert.False(t, cfg.Sandbox())

		assert.NotNil(t, cfg.Khalti)
		assert.Equal(t, "khalti-secret", cfg.Khalti.SecretKey)
		assert.Equal(t, "khalti-public", cfg.Khalti.PublicKey)

		assert.NotNil(t, cfg.Esewa)
		assert.Equal(t, "EPAYTEST", cfg.Esewa.ProductCode)

		assert.NotNil(t, cfg.Fonepay)
		assert.Equal(t, "MERCHANT1", cfg.Fonepay.MerchantID)
	})

	t.Run("Partial configuration leaves gateways nil", func(t *testing.T) {
		clearGatewayEnv(t)
		t.Setenv("KHALTI_SECRET_KEY", "khalti-secret")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.NotNil(t, cfg.Khalti)
		assert.Nil(t, cfg.Esewa)
		assert.Nil(t, cfg.Fonepay)
	})

	t.Run("Esewa needs both keys", func(t *testing.T) {
		clearGatewayEnv(t)
		t.Setenv("KHALTI_SECRET_KEY", "khalti-secret")
		t.Setenv("ESEWA_PRODUCT_CODE", "EPAYTEST")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Nil(t, cfg.Esewa)
	})

	t.Run("No gateways is a startup error", func(t *testing.T) {
		clearGatewayEnv(t)

		cfg, err := LoadConfig()
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrNoGatewaysConfigured)
	})

	t.Run("Defaults", func(t *testing.T) {
		clearGatewayEnv(t)
		t.Setenv("FONEPAY_MERCHANT_ID", "MERCHANT1")
		t.Setenv("FONEPAY_SECRET_KEY", "secret")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, ModeSandbox, cfg.Mode)
		assert.True(t, cfg.Sandbox())
	})
}
