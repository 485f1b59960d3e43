package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager coordinates the memory and disk tiers: lookups fall through from
// L1 to L2 and disk hits are promoted to memory. Disk writes happen in the
// background.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
	config Config

	writes      sync.WaitGroup
	cleanupStop chan struct{}
	cleanupWg   sync.WaitGroup
	closeOnce   sync.Once

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates hits across tiers.
type ManagerStats struct {
	Hits        int64
	Misses      int64
	MemoryHits  int64
	DiskHits    int64
	Promotions  int64
	CleanupRuns int64
	LastCleanup time.Time
	Memory      Stats
	Disk        Stats
}

// HitRate returns hits / (hits + misses).
func (s ManagerStats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// NewManager creates a cache manager. config.DiskPath is required.
func NewManager(config Config) (*Manager, error) {
	if config.DiskPath == "" {
		return nil, errors.New("cache directory is required")
	}

	disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	m := &Manager{
		memory:      NewMemoryCache(config.MemoryCapacity),
		disk:        disk,
		config:      config,
		cleanupStop: make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		m.cleanupWg.Add(1)
		go m.cleanupLoop()
	}

	return m, nil
}

// Get retrieves a value, checking memory first and then disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.mu.Lock()
		m.stats.MemoryHits++
		m.stats.Hits++
		m.mu.Unlock()
		return data, true
	}

	if data, ok := m.disk.Get(key); ok {
		// best effort
		_ = m.memory.Put(key, data)

		m.mu.Lock()
		m.stats.DiskHits++
		m.stats.Hits++
		m.stats.Promotions++
		m.mu.Unlock()
		return data, true
	}

	m.mu.Lock()
	m.stats.Misses++
	m.mu.Unlock()
	return nil, false
}

// Contains reports whether either tier holds key, without touching stats or
// LRU order.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || m.disk.Contains(key)
}

// Put stores a value in memory immediately and on disk asynchronously.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", err)
	}

	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if err := m.disk.Put(key, value); err != nil {
			log.Debug("Disk cache write failed", "key", key, "error", err)
		}
	}()
	return nil
}

// Delete removes an entry from both tiers.
func (m *Manager) Delete(key string) error {
	m.writes.Wait()
	return errors.Join(m.memory.Delete(key), m.disk.Delete(key))
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.writes.Wait()
	return errors.Join(m.memory.Clear(), m.disk.Clear())
}

// Stats returns aggregated statistics from both tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	stats.Disk = m.disk.Stats()
	return stats
}

// Cleanup removes expired entries and trims the disk tier.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	m.stats.CleanupRuns++
	m.stats.LastCleanup = time.Now()
	m.mu.Unlock()

	if m.config.TTL > 0 {
		if removed := m.disk.RemoveOlderThan(time.Now().Add(-m.config.TTL)); removed > 0 {
			log.Debug("Expired cached audio", "removed", removed)
		}
		m.memory.Prune(m.config.TTL)
	}
	m.disk.EvictLRU()
}

// Close stops the cleanup loop, waits for pending disk writes and saves the
// disk index.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.cleanupStop)
		m.cleanupWg.Wait()
		m.writes.Wait()
		if cerr := m.disk.Close(); cerr != nil {
			err = fmt.Errorf("failed to close disk cache: %w", cerr)
		}
	})
	return err
}

func (m *Manager) cleanupLoop() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.cleanupStop:
			return
		}
	}
}
