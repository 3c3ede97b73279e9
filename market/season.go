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

package market

import (
	"context"
	"fmt"
	"time"
)

// SeasonResolver resolves a (season-name, year) pair to a concrete date
// (spec.md §4.1). It is a pure lookup into the season definitions table --
// no fuzzy matching -- optionally memoized through a byteCache so repeated
// resolutions of the same (name, year) across schedules and dates in one
// generate_phases call, or across calls, don't re-hit the Store.
type SeasonResolver struct {
	store Store
	cache byteCache
}

// byteCache is the subset of cache.Cache the engine depends on, so tests
// can substitute an in-memory fake without importing the cache package.
type byteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// NewSeasonResolver builds a resolver. cache may be nil, in which case
// every Resolve call hits the Store directly.
func NewSeasonResolver(store Store, cache byteCache) *SeasonResolver {
	return &SeasonResolver{store: store, cache: cache}
}

// Resolve looks up (name, year). Returns ErrNotFound if the dataset has no
// row for the pair -- the contract explicitly forbids fuzzy matching.
func (r *SeasonResolver) Resolve(ctx context.Context, name string, year int) (time.Time, error) {
	key := fmt.Sprintf("season:%s:%d", name, year)

	if r.cache != nil {
		if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			t, parseErr := time.Parse(time.RFC3339, string(cached))
			if parseErr == nil {
				return t, nil
			}
		}
	}

	sd, err := r.store.Season(ctx, name, year)
	if err != nil {
		return time.Time{}, err
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, key, []byte(sd.Date.Format(time.RFC3339)))
	}

	return sd.Date, nil
}
