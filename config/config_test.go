package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("JWT_KEY", "k")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.True(t, cfg.Debug)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("JWT_KEY", "k")
	t.Setenv("DEBUG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.False(t, cfg.Debug)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("JWT_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}
