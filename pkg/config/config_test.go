package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 32, cfg.Export.MaxConcurrentFetches)
	require.True(t, cfg.Export.StreamDay)
	require.False(t, cfg.Export.IncludeManifest)
	require.Equal(t, time.Duration(0), cfg.Export.FetchTimeout)
	require.Equal(t, time.Minute, cfg.Export.HierarchyCacheTTL)
	require.Equal(t, "sb-access-token", cfg.Auth.CookieName)
	require.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("EXPORT_FETCH_TIMEOUT", "20s")
	t.Setenv("EXPORT_MAX_CONCURRENT_FETCHES", "4")
	t.Setenv("EXPORT_HIERARCHY_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)
	require.Equal(t, 20*time.Second, cfg.Export.FetchTimeout)
	require.Equal(t, 4, cfg.Export.MaxConcurrentFetches)
	require.Equal(t, time.Minute, cfg.Export.HierarchyCacheTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
