package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"vintedwatch/internal/cache"
	"vintedwatch/internal/client"
	"vintedwatch/internal/configuration"
	"vintedwatch/internal/database"
	"vintedwatch/internal/logger"
	"vintedwatch/internal/metrics"
	"vintedwatch/internal/monitor"
	"vintedwatch/internal/notifier"
	"vintedwatch/internal/proxy"
	"vintedwatch/internal/server"
)

func main() {
	runApp()
	time.Sleep(10 * time.Second)
	os.Exit(1)
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("vintedwatch.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()
	db := database.Database{Database: dbConn.Database(database.Name)}

	var responseCache cache.Cache
	if config.RedisAddress != "" {
		appLogger.Info("Using Redis response cache at", config.RedisAddress)
		responseCache = cache.NewRedis(config.RedisAddress, appLogger)
	} else {
		appLogger.Info("Using in-memory response cache")
		responseCache = cache.NewMemory(0)
	}
	defer responseCache.Stop()

	proxyPool := &proxy.Pool{}
	if config.ProxyProviderURL != "" {
		err = proxyPool.InitFromProvider(&http.Client{Timeout: 15 * time.Second}, config.ProxyProviderURL, config.ProxyProviderKey)
	} else {
		err = proxyPool.InitFromFile(config.ProxiesFile)
	}
	if err != nil {
		if config.ProxyRequired {
			appLogger.Error("Error initializing proxy pool:", err)
			return err
		}
		appLogger.Warn("Continuing without proxies, error initializing proxy pool:", err)
	} else {
		appLogger.Infof("Proxy pool initialized with %d proxies", proxyPool.Size())
	}

	metricsAggregator := metrics.NewAggregator(appLogger)
	go metricsAggregator.PersistInInterval(appContext, time.NewTicker(config.MetricsPersistInterval), db)

	vintedClient := client.Client{
		DomainExtension: config.VintedDomainExtension,
		Timeout:         config.RequestTimeout,
		Proxies:         proxyPool,
		Cache:           responseCache,
		Metrics:         metricsAggregator,
		Logger:          appLogger,
	}

	monitorService := &monitor.Service{
		Repo:        db,
		Marketplace: vintedClient,
		Notifier: notifier.Telegram{
			Client: &http.Client{Timeout: 15 * time.Second},
			Token:  config.TelegramBotToken,
			Logger: appLogger,
		},
		Metrics:                metricsAggregator,
		Logger:                 appLogger,
		PollingInterval:        config.PollingInterval,
		ConcurrentChecks:       config.ConcurrentChecks,
		FilterZeroStarProfiles: config.FilterZeroStarProfiles,
	}

	if credential, err := vintedClient.FetchSession(); err != nil {
		appLogger.Error("Error fetching initial session credential:", err)
	} else {
		monitorService.SetCredential(credential)
		monitorService.Start()
	}
	go refreshCredentialInInterval(appContext, time.NewTicker(config.CredentialRefreshInterval), vintedClient, monitorService, appLogger)

	srv := server.Server{
		DB:                db,
		Monitor:           monitorService,
		Metrics:           metricsAggregator,
		Logger:            appLogger,
		AuthSecretKey:     config.AuthSecretKey,
		AdminTelegramIDs:  config.AdminTelegramIDs,
		MaxWatchesDefault: config.MaxWatchesDefault,
	}

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}

// refreshCredentialInInterval renews the marketplace session on every tick.
// When the first fetch at startup failed, a successful renewal here also
// starts the monitoring service.
func refreshCredentialInInterval(ctx context.Context, ticker *time.Ticker, c client.Client, m *monitor.Service, log *logger.Logger) {
	for {
		select {
		case <-ticker.C:
			credential, err := c.FetchSession()
			if err != nil {
				log.Errorf("Error refreshing session credential, err: %v", err)
				continue
			}
			m.SetCredential(credential)
			if !m.Running() {
				m.Start()
			}
		case <-ctx.Done():
			return
		}
	}
}
