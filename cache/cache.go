// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides a two-tier (in-process LRU, optional Redis)
// byte-slice cache used by the engine to memoize season (name, year)
// resolutions. Schedule and holiday queries are not cached; the engine
// sends them to the Store directly. Values are lz4-compressed before crossing
// either tier, the way the teacher's common.CacheSet/CacheGet did.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

// Cache wraps an in-process LRU with an optional Redis tier. The local tier
// is always consulted first; Redis (when configured) backstops it so a
// process restart doesn't cold-start every memoized lookup. A Cache is safe
// for concurrent use -- the LRU is internally locked and the Redis client is
// safe for concurrent use by design.
type Cache struct {
	local *lru.Cache
	redis *redis.Client
	ttl   time.Duration
}

// Config controls how a Cache is constructed.
type Config struct {
	LocalSize int           // number of entries kept in the in-process LRU
	RedisURL  string        // empty disables the Redis tier
	TTL       time.Duration // Redis expiry; ignored by the local tier
}

// New builds a Cache per cfg. A zero LocalSize defaults to 1024 entries.
func New(cfg Config) (*Cache, error) {
	size := cfg.LocalSize
	if size <= 0 {
		size = 1024
	}
	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	c := &Cache{local: local, ttl: cfg.TTL}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		c.redis = redis.NewClient(opt)
	}

	return c, nil
}

// Set stores value under key in both tiers (Redis only if configured).
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	compressed, err := compress(value)
	if err != nil {
		return err
	}
	c.local.Add(key, compressed)

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, compressed, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("Key", key).Msg("could not write to redis cache tier")
			return err
		}
	}
	return nil
}

// Get returns the cached value for key, and whether it was found in either
// tier. A Redis hit is not written back into the local tier -- the local
// tier stays strictly per-process, matching spec.md §5's note that a
// process-wide memo table "must be immutable-after-publish or guarded"; we
// choose "guarded" by never mutating an entry once Set, only adding new
// keys or evicting via LRU.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if raw, ok := c.local.Get(key); ok {
		value, err := decompress(raw.([]byte))
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, false, nil
		}
		if err != nil {
			log.Warn().Err(err).Str("Key", key).Msg("could not read from redis cache tier")
			return nil, false, err
		}
		value, err := decompress(raw)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	}

	return nil, false, nil
}
