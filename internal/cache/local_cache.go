package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type localEntry struct {
	data    []byte
	expires time.Time
}

// LocalCache is an in-process LRU. maxTTL bounds every entry; shorter
// per-call TTLs are honored on read.
type LocalCache struct {
	lru *expirable.LRU[string, localEntry]
	now func() time.Time
}

func NewLocalCache(size int, maxTTL time.Duration) *LocalCache {
	if size <= 0 {
		size = 256
	}
	return &LocalCache{lru: expirable.NewLRU[string, localEntry](size, nil, maxTTL), now: time.Now}
}

func (c *LocalCache) Get(_ context.Context, key string, value interface{}) error {
	e, ok := c.lru.Get(key)
	if !ok {
		return ErrMiss
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return ErrMiss
	}
	return json.Unmarshal(e.data, value)
}

func (c *LocalCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := localEntry{data: b}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *LocalCache) InvalidatePrefix(_ context.Context, prefix string) error {
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

func (c *LocalCache) Close() error {
	c.lru.Purge()
	return nil
}
