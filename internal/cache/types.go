package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgnsrekt/cueline/tone"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheMiss is returned when an item is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// Level represents the cache tier
type Level int

const (
	// LevelMemory is the in-memory tier (fastest)
	LevelMemory Level = iota

	// LevelDisk is the on-disk tier (persistent)
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache performance metrics
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

func (s *Stats) computeHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// Config holds configuration for a cache Manager.
type Config struct {
	MemoryCapacity int64 // Bytes

	DiskCapacity     int64  // Bytes
	DiskPath         string // Directory for cache files
	CompressionLevel int    // Zstd compression level, 0 disables compression

	TTL             time.Duration // Age after which disk entries expire
	CleanupInterval time.Duration // How often to run cleanup, 0 disables it
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   64 * 1024 * 1024,
		DiskCapacity:     512 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Cache is the interface shared by the two tiers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Size() int64
	Contains(key string) bool
	Stats() Stats
}

// Key derives the cache key for a line of audio. Anything that changes the
// synthesized sound must be part of the key.
func Key(backend, text string, p tone.VoiceProfile) string {
	data := fmt.Sprintf("%s|%s|%s|%.3f|%.3f|%.3f|%.3f|%.3f",
		backend, text, p.VoiceID, p.Rate, p.Pitch, p.Volume, p.Stability, p.Style)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
