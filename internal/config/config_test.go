package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/linemk/checkout-service/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestMustLoadByPath_Success(t *testing.T) {
	// required environment variables
	os.Setenv("DB_PASSWORD", "mypassword")
	os.Setenv("JWT_SECRET", "mysecret")
	os.Setenv("GATEWAY_SECRET_KEY", "sk-test")
	defer os.Unsetenv("DB_PASSWORD")
	defer os.Unsetenv("JWT_SECRET")
	defer os.Unsetenv("GATEWAY_SECRET_KEY")

	content := `
env: "local"
http_server:
  address: "localhost:8080"
  timeout: "4s"
  idle_timeout: "60s"
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  name: "shop"
jwt:
  token_ttl: 60
payment_gateway:
  base_url: "https://api.chapa.co/v1"
  currency: "ETB"
  timeout: "10s"
  callback_url: "http://localhost:8080/api/payment/callback"
  return_url: "http://localhost:3000/payment/success"
migrations:
  path: "./migrations"
`
	tmpFile, err := os.CreateTemp("", "config_test_*.yaml")
	assert.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(content)
	assert.NoError(t, err)
	err = tmpFile.Close()
	assert.NoError(t, err)

	cfg := config.MustLoadByPath(tmpFile.Name())

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "shop", cfg.Database.Name)
	assert.Equal(t, 60, cfg.JWT.TokenTTL)
	assert.Equal(t, "https://api.chapa.co/v1", cfg.Gateway.BaseURL)
	assert.Equal(t, "sk-test", cfg.Gateway.SecretKey)
	assert.Equal(t, "ETB", cfg.Gateway.Currency)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "http://localhost:8080/api/payment/callback", cfg.Gateway.CallbackURL)
	assert.Equal(t, "http://localhost:3000/payment/success", cfg.Gateway.ReturnURL)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	// a missing file must panic
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}
