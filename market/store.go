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
	"time"
)

// MarketRow is the positional projection of one row of the markets table.
type MarketRow struct {
	FinID      string
	MIC        string
	ReplacedBy string
}

// MicMappingRow is one row of the mic_mappings table.
type MicMappingRow struct {
	MIC   string
	FinID string
}

// Store is the read-only collaborator the phase generation engine consumes.
// It models the relational query layer described as "external" in spec.md
// §1 -- ingestion and SQL dialect details live behind this interface, not
// in the engine. Every method takes a context so a caller can cancel or
// bound a potentially-blocking query (spec.md §5).
type Store interface {
	MarketByFinID(ctx context.Context, finID string) (*MarketRow, error)
	MarketByMIC(ctx context.Context, mic string) (*MarketRow, error)
	MicMapping(ctx context.Context, mic string) (*MicMappingRow, error)

	// SchedulesForMarket returns every schedule row for finID, ordered
	// per spec.md §4.6: (schedule_group nulls-first, in_force_start_date
	// nulls-first, season_start nulls-first, start, end).
	SchedulesForMarket(ctx context.Context, finID string) ([]Schedule, error)

	// HolidaysForMarket returns holiday rows for finID whose date falls
	// within [start, end] inclusive.
	HolidaysForMarket(ctx context.Context, finID string, start, end time.Time) ([]MarketHoliday, error)

	// Season resolves a (name, year) pair. Returns ErrNotFound if absent.
	Season(ctx context.Context, name string, year int) (SeasonDefinition, error)

	// PhaseTypesAll returns the full phase-type catalog.
	PhaseTypesAll(ctx context.Context) ([]PhaseType, error)
}
