package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "")
	t.Setenv("PORT", "")
	t.Setenv("API_KEY", "")
	t.Setenv("APP_ENV", "")

	cfg := LoadConfig()

	require.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	require.Equal(t, "productsApi", cfg.MongoDB)
	require.Equal(t, "8080", cfg.Port)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfig_Explicit(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DB", "catalog")
	t.Setenv("PORT", ":9090")
	t.Setenv("API_KEY", "secret")
	t.Setenv("APP_ENV", "production")

	cfg := LoadConfig()

	require.Equal(t, "catalog", cfg.MongoDB)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "secret", cfg.APIKey)
	require.True(t, cfg.IsProduction())
}
