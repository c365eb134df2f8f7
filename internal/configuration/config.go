package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"vintedwatch/internal/logger"
)

type Config struct {
	ServerAddress             string
	DatabaseURI               string
	RedisAddress              string
	TelegramBotToken          string
	AdminTelegramIDs          []string
	AuthSecretKey             jwk.Key
	LogLevel                  logger.Level
	LogToFile                 bool
	VintedDomainExtension     string
	PollingInterval           time.Duration
	ConcurrentChecks          int
	FilterZeroStarProfiles    bool
	MaxWatchesDefault         int
	RequestTimeout            time.Duration
	CredentialRefreshInterval time.Duration
	MetricsPersistInterval    time.Duration
	ProxyProviderURL          string
	ProxyProviderKey          string
	ProxiesFile               string
	ProxyRequired             bool
}

type tomlConfig struct {
	ServerAddress             string   `toml:"server_address"`
	DatabaseURI               string   `toml:"database_uri"`
	RedisAddress              string   `toml:"redis_address"`
	TelegramBotToken          string   `toml:"telegram_bot_token"`
	AdminTelegramIDs          []string `toml:"admin_telegram_ids"`
	AuthSecretKey             string   `toml:"auth_secret_key"`
	LogLevel                  string   `toml:"log_level"`
	LogToFile                 bool     `toml:"log_to_file"`
	VintedDomainExtension     string   `toml:"vinted_domain_extension"`
	PollingInterval           string   `toml:"polling_interval"`
	ConcurrentChecks          int      `toml:"concurrent_checks"`
	FilterZeroStarProfiles    bool     `toml:"filter_zero_star_profiles"`
	MaxWatchesDefault         int      `toml:"max_watches_default"`
	RequestTimeout            string   `toml:"request_timeout"`
	CredentialRefreshInterval string   `toml:"credential_refresh_interval"`
	MetricsPersistInterval    string   `toml:"metrics_persist_interval"`
	ProxyProviderURL          string   `toml:"proxy_provider_url"`
	ProxyProviderKey          string   `toml:"proxy_provider_key"`
	ProxiesFile               string   `toml:"proxies_file"`
	ProxyRequired             bool     `toml:"proxy_required"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}

	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}

	if tc.TelegramBotToken == "" {
		return nil, errors.New("telegram_bot_token is not set")
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse log_level")
	}

	if tc.VintedDomainExtension == "" {
		tc.VintedDomainExtension = "fr"
	}

	if tc.PollingInterval == "" {
		return nil, errors.New("polling_interval is not set")
	}
	pollingInterval, err := time.ParseDuration(tc.PollingInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse polling_interval: %s", tc.PollingInterval)
	}
	if pollingInterval < 15*time.Second {
		return nil, errors.Errorf("polling_interval too short (%v), minimum interval: 15s", pollingInterval)
	}

	if tc.ConcurrentChecks <= 0 {
		tc.ConcurrentChecks = 5
	}

	if tc.MaxWatchesDefault <= 0 {
		tc.MaxWatchesDefault = 5
	}

	requestTimeout := 10 * time.Second
	if tc.RequestTimeout != "" {
		if requestTimeout, err = time.ParseDuration(tc.RequestTimeout); err != nil {
			return nil, errors.Wrapf(err, "failed to parse request_timeout: %s", tc.RequestTimeout)
		}
	}

	credentialRefreshInterval := 30 * time.Minute
	if tc.CredentialRefreshInterval != "" {
		if credentialRefreshInterval, err = time.ParseDuration(tc.CredentialRefreshInterval); err != nil {
			return nil, errors.Wrapf(err, "failed to parse credential_refresh_interval: %s", tc.CredentialRefreshInterval)
		}
	}

	metricsPersistInterval := 5 * time.Minute
	if tc.MetricsPersistInterval != "" {
		if metricsPersistInterval, err = time.ParseDuration(tc.MetricsPersistInterval); err != nil {
			return nil, errors.Wrapf(err, "failed to parse metrics_persist_interval: %s", tc.MetricsPersistInterval)
		}
	}

	if tc.ProxiesFile == "" {
		tc.ProxiesFile = "proxies.txt"
	}
	if tc.ProxyProviderURL != "" && tc.ProxyProviderKey == "" {
		return nil, errors.New("proxy_provider_url is set but proxy_provider_key is not")
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	return &Config{
		ServerAddress:             tc.ServerAddress,
		DatabaseURI:               tc.DatabaseURI,
		RedisAddress:              tc.RedisAddress,
		TelegramBotToken:          tc.TelegramBotToken,
		AdminTelegramIDs:          tc.AdminTelegramIDs,
		AuthSecretKey:             authSecretKey,
		LogLevel:                  logLevel,
		LogToFile:                 tc.LogToFile,
		VintedDomainExtension:     tc.VintedDomainExtension,
		PollingInterval:           pollingInterval,
		ConcurrentChecks:          tc.ConcurrentChecks,
		FilterZeroStarProfiles:    tc.FilterZeroStarProfiles,
		MaxWatchesDefault:         tc.MaxWatchesDefault,
		RequestTimeout:            requestTimeout,
		CredentialRefreshInterval: credentialRefreshInterval,
		MetricsPersistInterval:    metricsPersistInterval,
		ProxyProviderURL:          tc.ProxyProviderURL,
		ProxyProviderKey:          tc.ProxyProviderKey,
		ProxiesFile:               tc.ProxiesFile,
		ProxyRequired:             tc.ProxyRequired,
	}, nil
}
