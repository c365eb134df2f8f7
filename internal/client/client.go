package client

import (
	"math/rand"
	"time"

	"vintedwatch/internal/cache"
	"vintedwatch/internal/metrics"
	"vintedwatch/internal/proxy"
)

type Client struct {
	DomainExtension string
	Timeout         time.Duration
	Proxies         *proxy.Pool
	Cache           cache.Cache
	Metrics         *metrics.Aggregator
	Logger          logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/101.0.4951.67 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:100.0) Gecko/20100101 Firefox/100.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/101.0.4951.64 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.4 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:100.0) Gecko/20100101 Firefox/100.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/101.0.4951.54 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:99.0) Gecko/20100101 Firefox/99.0",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// nextProxy returns the next egress entry in rotation, or nil when the pool is
// empty so the request is sent directly.
func (c Client) nextProxy() *proxy.Entry {
	if c.Proxies == nil {
		return nil
	}
	e, ok := c.Proxies.Next()
	if !ok {
		return nil
	}
	return &e
}
