package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "GBP", cfg.Currency)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CURRENCY", "USD")
	t.Setenv("DATABASE_URL", "postgres://localhost/spendflow")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "postgres://localhost/spendflow", cfg.DatabaseURL)
}
