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
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxOffsetDays bounds Schedule.OffsetDays (spec.md §3 invariant 3) and is
// how far before the requested window the generator must start scanning to
// catch overnight phases that began before it (spec.md §4.6).
const MaxOffsetDays = 2

// PhaseResult pairs an emitted Phase with any error encountered producing
// it. A non-nil Err always carries a zero Phase, and ends the sequence --
// no further values are sent after an error.
type PhaseResult struct {
	Phase Phase
	Err   error
}

// GeneratePhases implements spec.md §4.6: for each date in
// [start-MaxOffsetDays, end], run the filter cascade (and fallback when
// needed), materialize survivors, and emit phases in calendar order, each
// date's phases sorted by (start time, duration).
//
// Argument validation happens synchronously before any Store access, and
// the Store is queried eagerly once up front -- the laziness is only in
// how emission proceeds date-by-date, so a consumer that stops reading
// early does not force computation of the remaining dates. Cancel ctx to
// stop the background goroutine and close the channel early.
func (m *Market) GeneratePhases(ctx context.Context, start, end time.Time) (<-chan PhaseResult, error) {
	start = civilDate(start)
	end = civilDate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidArgument, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	genID := uuid.New().String()
	sublog := log.With().Str("GenerationID", genID).Str("FinID", m.FinID).Logger()

	offsetStart := start.AddDate(0, 0, -MaxOffsetDays)

	schedules, err := m.store.SchedulesForMarket(ctx, m.FinID)
	if err != nil {
		return nil, err
	}

	holidays, err := loadHolidayIndex(ctx, m.store, m.FinID, offsetStart, end)
	if err != nil {
		return nil, err
	}

	phaseTypeRows, err := m.store.PhaseTypesAll(ctx)
	if err != nil {
		return nil, err
	}
	phaseTypes := make(map[string]PhaseType, len(phaseTypeRows))
	for _, pt := range phaseTypeRows {
		if pt.Status == "" || pt.Settlement == "" {
			return nil, fmt.Errorf("%w: phase type %q has no status/settlement", ErrDataInconsistent, pt.Name)
		}
		phaseTypes[pt.Name] = pt
	}

	groupOpen := groupOpenness(schedules, phaseTypes)

	out := make(chan PhaseResult)

	go func() {
		defer close(out)
		sublog.Debug().Str("Start", start.Format("2006-01-02")).Str("End", end.Format("2006-01-02")).Msg("generating phases")

		for currentDate := offsetStart; !currentDate.After(end); currentDate = currentDate.AddDate(0, 0, 1) {
			survivors, err := m.survivorsForDate(ctx, currentDate, schedules, holidays, groupOpen)
			if err != nil {
				select {
				case out <- PhaseResult{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			for _, s := range survivors {
				phase, err := materializePhase(s, currentDate, start, phaseTypes)
				if err != nil {
					select {
					case out <- PhaseResult{Err: err}:
					case <-ctx.Done():
					}
					return
				}
				if phase == nil {
					continue // pruned by lookback
				}
				select {
				case out <- PhaseResult{Phase: *phase}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// survivorsForDate runs stages 1-5 (plus fallback) of the cascade for one
// date and returns the schedules to materialize, sorted by (start time,
// duration) per spec.md invariant 4.
func (m *Market) survivorsForDate(ctx context.Context, date time.Time, allSchedules []Schedule, holidays map[time.Time]MarketHoliday, groupOpen map[string]bool) ([]Schedule, error) {
	group, fallbackAllowed := pickScheduleGroup(date, holidays, groupOpen)

	candidates := filterGroup(allSchedules, group)
	candidates = filterInForce(candidates, date)
	candidates, err := filterSeason(ctx, m.resolver, candidates, date)
	if err != nil {
		return nil, err
	}

	weekday := goWeekday(date)
	survivors := filterWeekday(candidates, weekday)

	if len(survivors) == 0 && fallbackAllowed {
		survivors = selectFallback(candidates, weekday)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		di, erri := survivors[i].duration()
		dj, errj := survivors[j].duration()
		if erri != nil || errj != nil {
			return false
		}
		if survivors[i].Start != survivors[j].Start {
			return survivors[i].Start < survivors[j].Start
		}
		return di < dj
	})

	return survivors, nil
}

// ListHolidays returns every holiday row for the market within [start, end]
// inclusive, in date order (spec.md §6 public surface).
func (m *Market) ListHolidays(ctx context.Context, start, end time.Time) ([]MarketHoliday, error) {
	start, end = civilDate(start), civilDate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidArgument, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	holidays, err := m.store.HolidaysForMarket(ctx, m.FinID, start, end)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays, nil
}

// ListSchedules returns every schedule row for the market, ordered per
// spec.md §4.6 (spec.md §6 public surface).
func (m *Market) ListSchedules(ctx context.Context) ([]Schedule, error) {
	return m.store.SchedulesForMarket(ctx, m.FinID)
}
