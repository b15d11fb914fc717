// Package store provides the expiring key-value stores behind the
// verified and blacklist caches. A store maps fingerprint keys to small
// string values with a fixed TTL; entries are never honored past their
// TTL regardless of when the backend physically evicts them.
//
// Three backends exist: an in-process map for single-node deployments,
// Redis for sharing verdicts across a fleet, and MongoDB for
// deployments that want verdict history to survive restarts.
package store

import (
	"context"
	"errors"
	"time"
)

// Store errors.
var (
	ErrTTL            = errors.New("store: ttl must be positive")
	ErrUnknownBackend = errors.New("store: unknown backend")
	ErrRedisAddr      = errors.New("store: redis backend requires an address")
	ErrMongoURI       = errors.New("store: mongo backend requires a uri")
)

// Store is an expiring key-value map. Implementations are safe for
// concurrent use; per-key operations are atomic. Reads must treat
// expired entries as absent even if the backend has not evicted them
// yet.
type Store interface {
	// Put inserts key or refreshes its TTL, overwriting any value.
	Put(ctx context.Context, key, value string) error

	// Get returns the live value of key. The bool reports presence.
	Get(ctx context.Context, key string) (string, bool, error)

	// Has reports whether key is present and live.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// EstimatedSize returns an approximate live entry count. It may
	// include entries that expired but were not swept yet; it exists
	// for observability, not correctness.
	EstimatedSize(ctx context.Context) (int64, error)

	// Close releases backend resources. The store is unusable after.
	Close() error
}

// Backend selects a store implementation.
type Backend string

// Supported backends.
const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendMongo  Backend = "mongo"
)

// Config selects and parameterizes a backend. The zero value is not
// usable; callers set at least TTL and use applyDefaults via New.
type Config struct {
	// Backend picks the implementation. Empty selects memory.
	Backend Backend

	// TTL is how long entries stay live after a Put.
	TTL time.Duration

	// Redis configures the redis backend.
	Redis RedisConfig

	// Mongo configures the mongo backend.
	Mongo MongoConfig
}

// RedisConfig carries redis connection details.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int

	// Prefix scopes this store's keys within the database so several
	// stores (or deployments) can share one instance. Empty means no
	// scoping.
	Prefix string
}

// MongoConfig carries mongo connection details.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "bastion"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "entries"
	}
}

// Validate checks the configuration without connecting anywhere.
func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return ErrTTL
	}
	switch c.Backend {
	case "", BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrRedisAddr
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return ErrMongoURI
		}
	default:
		return ErrUnknownBackend
	}
	return nil
}

// New opens the configured backend. Remote backends are pinged so a
// bad address fails at startup instead of on the first verdict.
func New(ctx context.Context, cfg Config) (Store, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(cfg.TTL), nil
	case BackendRedis:
		return newRedis(ctx, cfg)
	case BackendMongo:
		return newMongo(ctx, cfg)
	}
	return nil, ErrUnknownBackend
}
