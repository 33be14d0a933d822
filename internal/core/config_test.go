package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"CURATOR_PORT", "CURATOR_DB_PATH", "CURATOR_CACHE_BACKEND", "CURATOR_FETCH_RETRIES", "CURATOR_NEWS_API_KEY", "NEWS_API_KEY"} {
		t.Setenv(key, "")
	}

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4000, config.Server.Port)
	assert.Equal(t, "./curator.db", config.Database.Path)
	assert.Equal(t, 10*time.Second, config.Providers.Timeout)
	assert.Zero(t, config.Providers.Retries)
	assert.Equal(t, "memory", config.Cache.Backend)
	assert.Equal(t, "", config.Providers.News.APIKey)
	assert.True(t, config.Auth.SeedDemoAccount)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CURATOR_PORT", "8080")
	t.Setenv("CURATOR_CACHE_BACKEND", "Redis")
	t.Setenv("CURATOR_FETCH_RETRIES", "2")
	t.Setenv("CURATOR_SEED_DEMO_ACCOUNT", "off")
	t.Setenv("CURATOR_NEWS_API_KEY", "")
	t.Setenv("NEWS_API_KEY", "legacy-key")
	t.Setenv("CURATOR_SOCIAL_INSTANCE_URL", "https://mastodon.social/")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "redis", config.Cache.Backend)
	assert.Equal(t, 2, config.Providers.Retries)
	assert.False(t, config.Auth.SeedDemoAccount)
	assert.Equal(t, "legacy-key", config.Providers.News.APIKey)
	assert.Equal(t, "https://mastodon.social", config.Providers.Social.InstanceURL)
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"CURATOR_PORT":                  "70000",
		"CURATOR_LOG_LEVEL":             "loud",
		"CURATOR_BCRYPT_COST":           "2",
		"CURATOR_FETCH_RETRIES":         "9",
		"CURATOR_CACHE_BACKEND":         "memcached",
		"CURATOR_AUTO_REFRESH_INTERVAL": "5",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := LoadConfig()
			assert.True(t, HasCode(err, ErrCodeConfiguration), "%v", err)
		})
	}
}

func TestHasLiveCredential(t *testing.T) {
	assert.False(t, HasLiveCredential(""))
	assert.False(t, HasLiveCredential("  "))
	assert.False(t, HasLiveCredential(DemoAPIKey))
	assert.True(t, HasLiveCredential("abc123"))
}
