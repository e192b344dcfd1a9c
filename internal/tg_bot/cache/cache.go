// Package cache memoizes aggregates fetched from the remote vault and the
// chain, keyed by owner address. Entries never expire; writers refresh them
// with a forced load after every mutation.
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

const (
	prefixWeb2Logins   = "WEB2_LOGINS"
	prefixDefiWallets  = "DEFI_WALLETS"
	prefixProfile      = "PROFILE"
	prefixSubscription = "SUBSCRIPTION"
)

func Web2LoginsKey(address string) string   { return prefixWeb2Logins + "_" + address }
func DefiWalletsKey(address string) string  { return prefixDefiWallets + "_" + address }
func ProfileKey(address string) string      { return prefixProfile + "_" + address }
func SubscriptionKey(address string) string { return prefixSubscription + "_" + address }

// Cache is a flat key/value memo safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
	gens    map[string]uint64 // bumped by Set, guards shared loads from overwriting newer values
	group   singleflight.Group
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set overwrites the entry for key.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.gens[key]++
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.gens[key]++
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
	for k := range c.gens {
		c.gens[k]++
	}
}

func (c *Cache) gen(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[key]
}

// setIfGen stores value only when nobody wrote key since gen was read.
func (c *Cache) setIfGen(key string, value any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	c.entries[key] = value
	c.gens[key]++
}

// Load returns the cached value of key, running fetch when forceSync is set
// or the entry is missing. A forced load always calls fetch and overwrites
// the entry. Concurrent unforced misses of one key share a single fetch.
func Load[T any](ctx context.Context, c *Cache, key string, forceSync bool, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if forceSync {
		v, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		c.Set(key, v)
		return v, nil
	}

	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.gen(key)
	v, err, _ := c.group.Do(key, func() (any, error) {
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.setIfGen(key, fetched, gen)
		return fetched, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T", key, v)
	}
	return typed, nil
}
