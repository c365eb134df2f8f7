// Package metrics accumulates process-wide counters for the monitoring
// pipeline. Counters only grow for the lifetime of the process; the snapshot
// persisted on an interval is a point-in-time dump, not the source of truth.
package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// latencyWindowSize bounds the sliding window used for the rolling average.
const latencyWindowSize = 100

type logger interface {
	Debug(v ...any)
	Errorf(format string, v ...any)
}

type Store interface {
	MetricsSnapshotInsert(ctx context.Context, s Snapshot) error
}

type Snapshot struct {
	Timestamp         time.Time                `bson:"ts" json:"timestamp"`
	UptimeSeconds     int64                    `bson:"uptime_seconds" json:"uptime_seconds"`
	APICalls          APICallStats             `bson:"api_calls" json:"api_calls"`
	Endpoints         map[string]EndpointStats `bson:"endpoints" json:"endpoints"`
	WatchesTotal      int                      `bson:"watches_total" json:"watches_total"`
	WatchesActive     int                      `bson:"watches_active" json:"watches_active"`
	UsersTotal        int                      `bson:"users_total" json:"users_total"`
	WatchChecks       int64                    `bson:"watch_checks" json:"watch_checks"`
	ItemsFound        int64                    `bson:"items_found" json:"items_found"`
	NotificationsSent int64                    `bson:"notifications_sent" json:"notifications_sent"`
	ErrorsTotal       int64                    `bson:"errors_total" json:"errors_total"`
	ErrorsByKind      map[string]ErrorStats    `bson:"errors_by_kind" json:"errors_by_kind"`
	AvgResponseMillis float64                  `bson:"avg_response_ms" json:"avg_response_ms"`
	MemAllocBytes     uint64                   `bson:"mem_alloc_bytes" json:"mem_alloc_bytes"`
	MemSysBytes       uint64                   `bson:"mem_sys_bytes" json:"mem_sys_bytes"`
	NumGoroutine      int                      `bson:"num_goroutine" json:"num_goroutine"`
}

type APICallStats struct {
	Total   int64 `bson:"total" json:"total"`
	Success int64 `bson:"success" json:"success"`
	Failed  int64 `bson:"failed" json:"failed"`
}

type EndpointStats struct {
	Total             int64   `bson:"total" json:"total"`
	Success           int64   `bson:"success" json:"success"`
	Failed            int64   `bson:"failed" json:"failed"`
	AvgResponseMillis float64 `bson:"avg_response_ms" json:"avg_response_ms"`
}

type ErrorStats struct {
	Count       int64     `bson:"count" json:"count"`
	LastMessage string    `bson:"last_message" json:"last_message"`
	LastTime    time.Time `bson:"last_time" json:"last_time"`
}

type endpointCounters struct {
	total, success, failed int64
	totalMillis            int64
}

type Aggregator struct {
	Logger logger

	mu                sync.Mutex
	startTime         time.Time
	apiCalls          APICallStats
	endpoints         map[string]*endpointCounters
	watchesTotal      int
	watchesActive     int
	usersTotal        int
	watchChecks       int64
	itemsFound        int64
	notificationsSent int64
	errorsTotal       int64
	errorsByKind      map[string]*ErrorStats
	latencies         []int64
	latencyTotal      int64
}

func NewAggregator(log logger) *Aggregator {
	return &Aggregator{
		Logger:       log,
		startTime:    time.Now(),
		endpoints:    make(map[string]*endpointCounters),
		errorsByKind: make(map[string]*ErrorStats),
		latencies:    make([]int64, 0, latencyWindowSize),
	}
}

// RecordAPICall updates the global and per-endpoint totals and feeds the
// latency sample into the rolling window, dropping the oldest sample once the
// window is full.
func (a *Aggregator) RecordAPICall(endpoint string, success bool, latency time.Duration) {
	ms := latency.Milliseconds()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.apiCalls.Total++
	if success {
		a.apiCalls.Success++
	} else {
		a.apiCalls.Failed++
	}

	ec, ok := a.endpoints[endpoint]
	if !ok {
		ec = &endpointCounters{}
		a.endpoints[endpoint] = ec
	}
	ec.total++
	if success {
		ec.success++
	} else {
		ec.failed++
	}
	ec.totalMillis += ms

	a.latencies = append(a.latencies, ms)
	a.latencyTotal += ms
	if len(a.latencies) > latencyWindowSize {
		a.latencyTotal -= a.latencies[0]
		a.latencies = a.latencies[1:]
	}
}

func (a *Aggregator) RecordWatchCheck(itemsFound int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchChecks++
	a.itemsFound += int64(itemsFound)
}

func (a *Aggregator) RecordNotificationSent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notificationsSent++
}

// RecordError increments the per-kind counter and keeps only the most recent
// message and timestamp for the kind.
func (a *Aggregator) RecordError(kind string, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorsTotal++
	es, ok := a.errorsByKind[kind]
	if !ok {
		es = &ErrorStats{}
		a.errorsByKind[kind] = es
	}
	es.Count++
	es.LastMessage = message
	es.LastTime = time.Now()
}

func (a *Aggregator) UpdateWatchCounts(total int, active int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchesTotal = total
	a.watchesActive = active
}

func (a *Aggregator) UpdateUserCount(total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usersTotal = total
}

// Snapshot returns a point-in-time copy of all counters. Process gauges
// (uptime, memory, goroutines) are refreshed on every call.
func (a *Aggregator) Snapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	a.mu.Lock()
	defer a.mu.Unlock()

	endpoints := make(map[string]EndpointStats, len(a.endpoints))
	for name, ec := range a.endpoints {
		es := EndpointStats{Total: ec.total, Success: ec.success, Failed: ec.failed}
		if ec.total > 0 {
			es.AvgResponseMillis = float64(ec.totalMillis) / float64(ec.total)
		}
		endpoints[name] = es
	}

	errorsByKind := make(map[string]ErrorStats, len(a.errorsByKind))
	for kind, es := range a.errorsByKind {
		errorsByKind[kind] = *es
	}

	var avg float64
	if len(a.latencies) > 0 {
		avg = float64(a.latencyTotal) / float64(len(a.latencies))
	}

	return Snapshot{
		Timestamp:         time.Now(),
		UptimeSeconds:     int64(time.Since(a.startTime).Seconds()),
		APICalls:          a.apiCalls,
		Endpoints:         endpoints,
		WatchesTotal:      a.watchesTotal,
		WatchesActive:     a.watchesActive,
		UsersTotal:        a.usersTotal,
		WatchChecks:       a.watchChecks,
		ItemsFound:        a.itemsFound,
		NotificationsSent: a.notificationsSent,
		ErrorsTotal:       a.errorsTotal,
		ErrorsByKind:      errorsByKind,
		AvgResponseMillis: avg,
		MemAllocBytes:     ms.Alloc,
		MemSysBytes:       ms.Sys,
		NumGoroutine:      runtime.NumGoroutine(),
	}
}

// PersistInInterval writes a snapshot to the store on every tick until ctx is
// cancelled.
func (a *Aggregator) PersistInInterval(ctx context.Context, ticker *time.Ticker, store Store) {
	for {
		select {
		case <-ticker.C:
			if err := store.MetricsSnapshotInsert(ctx, a.Snapshot()); err != nil {
				a.Logger.Errorf("PersistInInterval: Error persisting metrics snapshot, err: %v", err)
				continue
			}
			a.Logger.Debug("PersistInInterval: Metrics snapshot persisted")
		case <-ctx.Done():
			return
		}
	}
}
