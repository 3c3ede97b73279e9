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
	"strings"
)

// Lookup resolves user-supplied identifiers (FinID or MIC) to a Market,
// honoring replaced_by redirection (spec.md §4.7). It is the engine's
// single entry point -- Markets it returns are pre-wired with the Store
// and season cache needed to run GeneratePhases/ListHolidays/ListSchedules.
type Lookup struct {
	store    Store
	resolver *SeasonResolver
}

// NewLookup builds a Lookup. cache may be nil to disable season
// memoization.
func NewLookup(store Store, cache byteCache) *Lookup {
	return &Lookup{store: store, resolver: NewSeasonResolver(store, cache)}
}

// GetByFinID resolves a dotted FinID. follow controls whether a
// replaced_by redirection is honored. At most one redirection hop is ever
// performed, regardless of what the redirected market's own replaced_by
// points to -- this bounds the walk even if the dataset contains a cycle
// (spec.md §3: "implementers should guard against cycles by limiting
// hops").
func (l *Lookup) GetByFinID(ctx context.Context, id string, follow bool) (*Market, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty fin_id", ErrInvalidArgument)
	}

	row, err := l.store.MarketByFinID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	if follow && row.ReplacedBy != "" {
		redirected, err := l.store.MarketByFinID(ctx, row.ReplacedBy)
		if err != nil {
			return nil, err
		}
		if redirected != nil {
			row = redirected
		}
	}

	return l.newMarket(*row), nil
}

// GetByMIC resolves an ISO 10383 MIC via the mic_mappings table, then
// delegates to GetByFinID.
func (l *Lookup) GetByMIC(ctx context.Context, mic string, follow bool) (*Market, error) {
	mic = strings.ToUpper(strings.TrimSpace(mic))
	if mic == "" {
		return nil, fmt.Errorf("%w: empty mic", ErrInvalidArgument)
	}

	mapping, err := l.store.MicMapping(ctx, mic)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}

	return l.GetByFinID(ctx, mapping.FinID, follow)
}

// Get dispatches on the presence of "." in identifier: dotted identifiers
// are treated as a FinID, anything else as a MIC (uppercased before
// lookup).
func (l *Lookup) Get(ctx context.Context, identifier string, follow bool) (*Market, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidArgument)
	}
	if strings.Contains(trimmed, ".") {
		return l.GetByFinID(ctx, trimmed, follow)
	}
	return l.GetByMIC(ctx, trimmed, follow)
}

func (l *Lookup) newMarket(row MarketRow) *Market {
	return &Market{
		FinID:      row.FinID,
		MIC:        row.MIC,
		ReplacedBy: row.ReplacedBy,
		store:      l.store,
		resolver:   l.resolver,
	}
}
