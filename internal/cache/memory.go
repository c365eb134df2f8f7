package cache

import (
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type memoryEntry struct {
	value  []byte
	expiry time.Time
}

// Memory is an in-process Cache. Expired entries are evicted lazily on access
// and by a background sweep that bounds memory growth from keys that are never
// read again.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	m := &Memory{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go m.sweepInInterval(time.NewTicker(sweepInterval))
	return m
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiry: time.Now().Add(ttl)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !time.Now().Before(e.expiry) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
}

func (m *Memory) Stop() {
	m.once.Do(func() {
		close(m.stop)
	})
}

func (m *Memory) sweepInInterval(ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if !now.Before(e.expiry) {
			delete(m.entries, k)
		}
	}
}
