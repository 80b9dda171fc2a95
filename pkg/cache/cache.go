// Package cache provides the byte-level caching layer used for fetched
// resources and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for multi-instance deployments of the API
//   - [MongoCache]: document-store cache with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] selects a backend from a [Config].
//
// # Keys
//
// A [Keyer] turns domain values into cache keys. [ScopedKeyer] prefixes
// every key, which gives each business its own namespace on a shared
// backend.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/postcraft/pkg/errors"
)

// Default time-to-live values.
const (
	// TTLResource applies to fetched images, templates and font files.
	TTLResource = 24 * time.Hour
	// TTLFontCSS applies to remote font descriptors, which change rarely.
	TTLFontCSS = 7 * 24 * time.Hour
	// TTLArtifact applies to rendered images.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a cache backend.
type Config struct {
	Backend string `toml:"backend"`
	// Dir is the FileCache directory.
	Dir string `toml:"dir"`
	// URL is the Redis or MongoDB connection string.
	URL string `toml:"url"`
	// Database and Collection name the MongoCache location.
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Open constructs the backend named by cfg.Backend. An empty backend
// selects the file cache when Dir is set and the null cache otherwise.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendNone
		if cfg.Dir != "" {
			backend = BackendFile
		}
	}

	switch backend {
	case BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		return NewFileCache(cfg.Dir)
	case BackendRedis:
		return NewRedisCache(ctx, cfg.URL)
	case BackendMongo:
		return NewMongoCache(ctx, MongoConfig{
			URI:        cfg.URL,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
}
