package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(v ...any)                 {}
func (nopLogger) Errorf(format string, v ...any) {}

func TestRecordAPICall(t *testing.T) {
	a := NewAggregator(nopLogger{})

	a.RecordAPICall("catalog_items", true, 100*time.Millisecond)
	a.RecordAPICall("catalog_items", false, 300*time.Millisecond)
	a.RecordAPICall("item_details", true, 50*time.Millisecond)

	snap := a.Snapshot()
	assert.EqualValues(t, 3, snap.APICalls.Total)
	assert.EqualValues(t, 2, snap.APICalls.Success)
	assert.EqualValues(t, 1, snap.APICalls.Failed)

	require.Contains(t, snap.Endpoints, "catalog_items")
	catalog := snap.Endpoints["catalog_items"]
	assert.EqualValues(t, 2, catalog.Total)
	assert.EqualValues(t, 1, catalog.Success)
	assert.EqualValues(t, 1, catalog.Failed)
	assert.InDelta(t, 200, catalog.AvgResponseMillis, 0.001)

	assert.InDelta(t, 150, snap.AvgResponseMillis, 0.001)
}

func TestLatencyWindowDropsOldest(t *testing.T) {
	a := NewAggregator(nopLogger{})

	for i := 0; i < latencyWindowSize; i++ {
		a.RecordAPICall("catalog_items", true, 100*time.Millisecond)
	}
	assert.InDelta(t, 100, a.Snapshot().AvgResponseMillis, 0.001)

	a.RecordAPICall("catalog_items", true, 0)

	// One 100ms sample fell out of the window, one 0ms sample came in.
	assert.InDelta(t, 99, a.Snapshot().AvgResponseMillis, 0.001)
	assert.EqualValues(t, latencyWindowSize+1, a.Snapshot().APICalls.Total)
}

func TestRecordError(t *testing.T) {
	a := NewAggregator(nopLogger{})

	a.RecordError("RateLimit", "status: 429")
	a.RecordError("RateLimit", "status: 429 again")
	a.RecordError("NotFound", "status: 404")

	snap := a.Snapshot()
	assert.EqualValues(t, 3, snap.ErrorsTotal)
	require.Contains(t, snap.ErrorsByKind, "RateLimit")
	require.Contains(t, snap.ErrorsByKind, "NotFound")
	assert.EqualValues(t, 2, snap.ErrorsByKind["RateLimit"].Count)
	assert.Equal(t, "status: 429 again", snap.ErrorsByKind["RateLimit"].LastMessage)
	assert.False(t, snap.ErrorsByKind["RateLimit"].LastTime.IsZero())
}

func TestCountersAndGauges(t *testing.T) {
	a := NewAggregator(nopLogger{})

	a.RecordWatchCheck(5)
	a.RecordWatchCheck(0)
	a.RecordNotificationSent()
	a.UpdateWatchCounts(10, 7)
	a.UpdateUserCount(3)

	snap := a.Snapshot()
	assert.EqualValues(t, 2, snap.WatchChecks)
	assert.EqualValues(t, 5, snap.ItemsFound)
	assert.EqualValues(t, 1, snap.NotificationsSent)
	assert.Equal(t, 10, snap.WatchesTotal)
	assert.Equal(t, 7, snap.WatchesActive)
	assert.Equal(t, 3, snap.UsersTotal)
}

func TestSnapshotProcessGauges(t *testing.T) {
	a := NewAggregator(nopLogger{})

	snap := a.Snapshot()
	assert.False(t, snap.Timestamp.IsZero())
	assert.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
	assert.Greater(t, snap.MemSysBytes, uint64(0))
	assert.Greater(t, snap.NumGoroutine, 0)
}

func TestSnapshotIsACopy(t *testing.T) {
	a := NewAggregator(nopLogger{})
	a.RecordError("APIError", "first")

	snap := a.Snapshot()
	a.RecordError("APIError", "second")

	assert.Equal(t, "first", snap.ErrorsByKind["APIError"].LastMessage)
	assert.Equal(t, "second", a.Snapshot().ErrorsByKind["APIError"].LastMessage)
}
