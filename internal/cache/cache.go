// Package cache provides the per-process response cache consulted before
// every upstream CMS call. Supports both in-memory and Redis backends for
// multi-instance deployments.
package cache

import (
	"context"
	"strings"
	"time"
)

// Entry is a cached payload with its insertion time. Value holds the
// normalized JSON result of an upstream call: a record object, an array,
// or the literal "null" for a cached not-found. Freshness is the caller's
// concern; Get returns entries regardless of age.
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Fresh reports whether the entry is within ttl. A ttl of zero or less
// means the entry never goes stale (process-lifetime caching).
func (e *Entry) Fresh(ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return time.Since(e.StoredAt) < ttl
}

// Store defines the interface for response cache storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the entry for key.
	// Returns nil, nil if no entry exists.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores value under key, unconditionally overwriting any prior
	// entry. The ttl is an upper bound a backend may use for its own
	// expiry (Redis); the in-memory backend keeps entries and leaves the
	// freshness check to readers.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases any resources held by the store.
	Close() error
}

// Kind identifies a category of fetched content. Each kind maps to a
// fixed TTL and prefixes the cache keys derived for it.
type Kind string

const (
	KindArticle     Kind = "article"
	KindSimilar     Kind = "similar"
	KindAuthor      Kind = "author"
	KindCategory    Kind = "category"
	KindGame        Kind = "game"
	KindAchievement Kind = "achievement"
	KindGuide       Kind = "guide"
	KindHeist       Kind = "heist"
	KindJob         Kind = "job"
	KindWeekly      Kind = "weekly"
	KindSearch      Kind = "search"
	KindMetadata    Kind = "metadata"
)

// TTLTable maps content kinds to their freshness windows. A zero value
// means entries of that kind never go stale within the process.
type TTLTable map[Kind]time.Duration

// DefaultTTLs returns the fixed kind to TTL table. Enumeration kinds
// (games, categories, achievements, heists, jobs) are assumed immutable
// for the lifetime of the process and carry no TTL.
func DefaultTTLs() TTLTable {
	return TTLTable{
		KindArticle:  24 * time.Hour,
		KindSimilar:  time.Hour,
		KindAuthor:   7 * 24 * time.Hour,
		KindWeekly:   time.Hour,
		KindSearch:   time.Hour,
		KindMetadata: 24 * time.Hour,
	}
}

// TTL returns the freshness window for kind, zero if the kind has none.
func (t TTLTable) TTL(kind Kind) time.Duration {
	return t[kind]
}

// Key builds a deterministic cache key from a kind and the identifying
// filter values, e.g. Key(KindArticle, "gta-vi-trailer") ->
// "article:gta-vi-trailer".
func Key(kind Kind, parts ...string) string {
	return string(kind) + ":" + strings.Join(parts, ":")
}
