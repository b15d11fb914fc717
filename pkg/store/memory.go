package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the in-process backend. Expired entries are unreadable
// immediately and physically swept in the background.
type Memory struct {
	c *gocache.Cache
}

var _ Store = (*Memory)(nil)

// NewMemory builds a memory store whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	sweep := ttl / 2
	if sweep < time.Second {
		sweep = ttl
	}
	return &Memory{c: gocache.New(ttl, sweep)}
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.DefaultExpiration)
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Has implements Store.
func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(key)
	return ok, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// EstimatedSize implements Store. The count may include expired
// entries the sweeper has not reached yet.
func (m *Memory) EstimatedSize(_ context.Context) (int64, error) {
	return int64(m.c.ItemCount()), nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
