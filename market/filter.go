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
	"strings"
	"time"
)

// groupOpenness maps a lowercased schedule_group name to whether any of its
// schedules references an Open phase-type (spec.md §9, "Open group
// classification for fallback"). Computed once per market and passed
// immutable to every date's filter pass.
func groupOpenness(schedules []Schedule, phaseTypes map[string]PhaseType) map[string]bool {
	open := make(map[string]bool)
	for _, s := range schedules {
		group := strings.ToLower(s.ScheduleGroup)
		if open[group] {
			continue
		}
		if pt, ok := phaseTypes[s.PhaseType]; ok && pt.IsOpen() {
			open[group] = true
		}
	}
	return open
}

// pickScheduleGroup implements spec.md §4.3 Stage 1: if today is a holiday,
// the target group is the holiday's substitute schedule group (lowercased)
// and fallback is allowed iff that group is "open"; otherwise the target
// group is "regular" and fallback is never allowed.
func pickScheduleGroup(date time.Time, holidays map[time.Time]MarketHoliday, groupOpen map[string]bool) (group string, fallbackAllowed bool) {
	if h, ok := holidays[civilDate(date)]; ok {
		group = strings.ToLower(h.Schedule)
		return group, groupOpen[group]
	}
	return "regular", false
}

// filterGroup keeps schedules whose schedule_group matches group
// case-insensitively (spec.md §4.3 Stage 2).
func filterGroup(schedules []Schedule, group string) []Schedule {
	out := make([]Schedule, 0, len(schedules))
	for _, s := range schedules {
		if strings.EqualFold(s.ScheduleGroup, group) {
			out = append(out, s)
		}
	}
	return out
}

// filterInForce keeps schedules whose in-force range covers date (spec.md
// §4.3 Stage 3).
func filterInForce(schedules []Schedule, date time.Time) []Schedule {
	out := make([]Schedule, 0, len(schedules))
	for _, s := range schedules {
		if s.IsInForce(date) {
			out = append(out, s)
		}
	}
	return out
}

// filterSeason keeps schedules with no season restriction unconditionally,
// and seasonal schedules whose resolved [start, end] range (using date's
// year) covers date, handling wrap-around per spec.md §4.3 Stage 4.
func filterSeason(ctx context.Context, resolver *SeasonResolver, schedules []Schedule, date time.Time) ([]Schedule, error) {
	out := make([]Schedule, 0, len(schedules))
	dateStr := date.Format("2006-01-02")
	year := date.Year()

	for _, s := range schedules {
		if !s.HasSeason() {
			out = append(out, s)
			continue
		}

		startDate, err := resolver.Resolve(ctx, s.SeasonStart, year)
		if err != nil {
			return nil, err
		}
		endDate, err := resolver.Resolve(ctx, s.SeasonEnd, year)
		if err != nil {
			return nil, err
		}
		startStr := startDate.Format("2006-01-02")
		endStr := endDate.Format("2006-01-02")

		if endStr < startStr {
			// Wrap-around: the season straddles the year boundary, e.g.
			// Dec 1 .. Feb 28. Do NOT normalize by picking "the other
			// year" for one endpoint -- this two-branch comparison
			// handles it directly (spec.md §9).
			if dateStr <= endStr || dateStr >= startStr {
				out = append(out, s)
			}
		} else if dateStr >= startStr && dateStr <= endStr {
			out = append(out, s)
		}
	}

	return out, nil
}

// filterWeekday keeps schedules whose Days pattern matches weekday
// (spec.md §4.3 Stage 5).
func filterWeekday(schedules []Schedule, weekday int) []Schedule {
	out := make([]Schedule, 0, len(schedules))
	for _, s := range schedules {
		if s.Days.Matches(weekday) {
			out = append(out, s)
		}
	}
	return out
}

// goWeekday converts Go's time.Weekday (0=Sunday) to the 0=Monday..6=Sunday
// numbering spec.md §4.3 Stage 5 specifies.
func goWeekday(t time.Time) int {
	wd := int(t.Weekday())
	return (wd + 6) % 7
}
