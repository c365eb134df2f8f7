package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vintedwatch/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
telegram_bot_token = "123456:token"
polling_interval = "60s"
auth_secret_key = "secret-key-for-tests"
`

func TestGetConfigDefaults(t *testing.T) {
	config, err := GetConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8888", config.ServerAddress)
	assert.Equal(t, "mongodb://localhost:27017", config.DatabaseURI)
	assert.Equal(t, logger.LevelInfo, config.LogLevel)
	assert.Equal(t, "fr", config.VintedDomainExtension)
	assert.Equal(t, time.Minute, config.PollingInterval)
	assert.Equal(t, 5, config.ConcurrentChecks)
	assert.Equal(t, 5, config.MaxWatchesDefault)
	assert.Equal(t, 10*time.Second, config.RequestTimeout)
	assert.Equal(t, 30*time.Minute, config.CredentialRefreshInterval)
	assert.Equal(t, 5*time.Minute, config.MetricsPersistInterval)
	assert.Equal(t, "proxies.txt", config.ProxiesFile)
	assert.False(t, config.ProxyRequired)
	assert.NotNil(t, config.AuthSecretKey)
}

func TestGetConfigFull(t *testing.T) {
	config, err := GetConfig(writeConfig(t, `
server_address = "0.0.0.0:9000"
database_uri = "mongodb://db:27017"
redis_address = "redis:6379"
telegram_bot_token = "123456:token"
admin_telegram_ids = ["1111", "2222"]
auth_secret_key = "secret-key-for-tests"
log_level = "DEBUG"
log_to_file = true
vinted_domain_extension = "de"
polling_interval = "30s"
concurrent_checks = 10
filter_zero_star_profiles = true
max_watches_default = 8
request_timeout = "5s"
credential_refresh_interval = "1h"
metrics_persist_interval = "10m"
proxy_provider_url = "https://proxies.example.com/list"
proxy_provider_key = "provider-key"
proxy_required = true
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", config.ServerAddress)
	assert.Equal(t, "redis:6379", config.RedisAddress)
	assert.Equal(t, []string{"1111", "2222"}, config.AdminTelegramIDs)
	assert.Equal(t, logger.LevelDebug, config.LogLevel)
	assert.True(t, config.LogToFile)
	assert.Equal(t, "de", config.VintedDomainExtension)
	assert.Equal(t, 30*time.Second, config.PollingInterval)
	assert.Equal(t, 10, config.ConcurrentChecks)
	assert.True(t, config.FilterZeroStarProfiles)
	assert.Equal(t, 8, config.MaxWatchesDefault)
	assert.Equal(t, 5*time.Second, config.RequestTimeout)
	assert.Equal(t, time.Hour, config.CredentialRefreshInterval)
	assert.Equal(t, 10*time.Minute, config.MetricsPersistInterval)
	assert.Equal(t, "https://proxies.example.com/list", config.ProxyProviderURL)
	assert.True(t, config.ProxyRequired)
}

func TestGetConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name: "missing telegram_bot_token",
			config: `
polling_interval = "60s"
auth_secret_key = "secret-key-for-tests"
`,
		},
		{
			name: "missing polling_interval",
			config: `
telegram_bot_token = "123456:token"
auth_secret_key = "secret-key-for-tests"
`,
		},
		{
			name: "polling_interval too short",
			config: `
telegram_bot_token = "123456:token"
polling_interval = "5s"
auth_secret_key = "secret-key-for-tests"
`,
		},
		{
			name: "missing auth_secret_key",
			config: `
telegram_bot_token = "123456:token"
polling_interval = "60s"
`,
		},
		{
			name: "invalid log_level",
			config: minimalConfig + `
log_level = "LOUD"
`,
		},
		{
			name: "provider url without key",
			config: minimalConfig + `
proxy_provider_url = "https://proxies.example.com/list"
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetConfig(writeConfig(t, tt.config))
			assert.Error(t, err)
		})
	}
}

func TestGetConfigMissingFile(t *testing.T) {
	_, err := GetConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
