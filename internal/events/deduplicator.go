package events

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// DeduplicationConfig holds configuration for event deduplication
type DeduplicationConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultDeduplicationConfig returns default deduplication settings
func DefaultDeduplicationConfig() *DeduplicationConfig {
	return &DeduplicationConfig{
		Enabled:         true,
		TTL:             30 * time.Second,
		CleanupInterval: time.Minute,
	}
}

// Deduplicator suppresses repeats of the same change to the same record
// within the TTL, e.g. a status toggled back and forth by a user.
type Deduplicator struct {
	config *DeduplicationConfig
	seen   *cache.Cache

	totalSeen       atomic.Uint64
	totalSuppressed atomic.Uint64
}

// NewDeduplicator creates a deduplicator; a nil config uses the defaults.
func NewDeduplicator(config *DeduplicationConfig) *Deduplicator {
	if config == nil {
		config = DefaultDeduplicationConfig()
	}
	return &Deduplicator{
		config: config,
		seen:   cache.New(config.TTL, config.CleanupInterval),
	}
}

// ShouldProcess reports whether event is the first of its kind in the window.
func (d *Deduplicator) ShouldProcess(event RecordEvent) bool {
	if d == nil || !d.config.Enabled {
		return true
	}
	d.totalSeen.Add(1)

	// Add fails when the key is present and unexpired.
	if err := d.seen.Add(dedupeKey(event), struct{}{}, cache.DefaultExpiration); err != nil {
		d.totalSuppressed.Add(1)
		return false
	}
	return true
}

// Stats returns seen and suppressed totals.
func (d *Deduplicator) Stats() (seen, suppressed uint64) {
	return d.totalSeen.Load(), d.totalSuppressed.Load()
}

func dedupeKey(event RecordEvent) string {
	key := fmt.Sprintf("%s|%s|%s", event.Type, event.Page, event.Ref)
	if event.Type == TypeStatusUpdated {
		if status, ok := event.Metadata["status"].(string); ok {
			key += "|" + status
		}
	}
	return key
}
