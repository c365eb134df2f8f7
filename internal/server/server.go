package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"
	"vintedwatch/internal/database"
	"vintedwatch/internal/metrics"
	"vintedwatch/internal/monitor"
)

type Server struct {
	DB                database.Database
	Monitor           *monitor.Service
	Metrics           *metrics.Aggregator
	Logger            logger
	AuthSecretKey     jwk.Key
	AdminTelegramIDs  []string
	MaxWatchesDefault int
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
	Tracef(format string, v ...any)
}
