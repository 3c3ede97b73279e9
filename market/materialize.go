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
	"fmt"
	"time"
)

// zonedInstant combines a civil date and a local time-of-day into a zoned
// instant, per spec.md §9's disambiguation policy: an ambiguous wall-clock
// reading (fall-back fold) resolves to the earlier of its two valid UTC
// instants, and a nonexistent wall-clock reading (spring-forward gap)
// resolves by shifting forward past the gap rather than back before it.
// Go's time.Date does not implement this on its own -- its docs say only
// that it "returns a time that is correct in one of the two zones involved
// in the transition, but it does not guarantee which" -- so both cases are
// resolved explicitly here, using the documented behavior of ZoneBounds
// rather than relying on time.Date's unspecified choice.
//
// The approach: find the next zone transition on or after local midnight of
// the date (ZoneBounds' "end"), and try interpreting the requested reading
// under both the offset before that transition and the offset after it.
// Whichever interpretation lands on the correct side of the transition
// (before it, for the pre-transition offset; at or after it, for the
// post-transition offset) is the unambiguous answer. A reading for which
// the pre-transition offset overshoots past the transition while the
// post-transition offset undershoots before it falls inside the gap itself
// -- there the pre-transition interpretation is exactly the "shift forward"
// answer, so it is used as the fallback.
func zonedInstant(date, tod time.Time, loc *time.Location) time.Time {
	year, month, day := date.Date()

	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
	_, preOffset := midnight.Zone()
	_, transitionEnd := midnight.ZoneBounds()

	naiveUnix := time.Date(year, month, day, tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC).Unix()
	viaPre := time.Unix(naiveUnix-int64(preOffset), 0)

	if transitionEnd.IsZero() || viaPre.Before(transitionEnd) {
		return viaPre.In(loc)
	}

	_, postOffset := transitionEnd.Zone()
	viaPost := time.Unix(naiveUnix-int64(postOffset), 0)
	if !viaPost.Before(transitionEnd) {
		return viaPost.In(loc)
	}

	return viaPre.In(loc)
}

// materializePhase implements spec.md §4.5. It returns (nil, nil) when the
// phase is pruned by lookback (its end falls before the requested window
// start), and a data error when the schedule's timezone or phase-type is
// unusable.
func materializePhase(schedule Schedule, today, windowStart time.Time, phaseTypes map[string]PhaseType) (*Phase, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q: %v", ErrDataInconsistent, schedule.Timezone, err)
	}

	startTOD, err := time.Parse("15:04:05", schedule.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse start time %q: %v", ErrDataInconsistent, schedule.Start, err)
	}
	endTOD, err := time.Parse("15:04:05", schedule.End)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse end time %q: %v", ErrDataInconsistent, schedule.End, err)
	}

	startDate := civilDate(today)
	endDate := startDate.AddDate(0, 0, schedule.OffsetDays)

	// Lookback pruning: this schedule only surfaced because we started
	// scanning MAX_OFFSET_DAYS before the window to catch overnight
	// phases; drop it if it never reaches into the requested window.
	if endDate.Before(civilDate(windowStart)) {
		return nil, nil
	}

	start := zonedInstant(startDate, startTOD, loc)
	end := zonedInstant(endDate, endTOD, loc)

	phaseType, ok := phaseTypes[schedule.PhaseType]
	if !ok {
		return nil, fmt.Errorf("%w: schedule references unknown phase type %q", ErrDataInconsistent, schedule.PhaseType)
	}

	return &Phase{
		PhaseType:  schedule.PhaseType,
		PhaseName:  schedule.PhaseName,
		PhaseMemo:  schedule.PhaseMemo,
		Status:     phaseType.Status,
		Settlement: phaseType.Settlement,
		Start:      start,
		End:        end,
	}, nil
}
