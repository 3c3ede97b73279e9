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

// Package market implements the TradingHours phase generation engine: it
// turns a curated dataset of schedules, holidays, phase-types and seasons
// into concrete, timezone-correct trading phases for a market and date
// range.
package market

import (
	"fmt"
	"time"
)

// civilDate truncates a time.Time to a date-only instant in UTC so that
// calendar-date comparisons agree with ISO-8601 lexicographic ordering
// regardless of which representation a caller prefers (spec.md §4.3).
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 "YYYY-MM-DD" string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return civilDate(t), nil
}

// Market is a tradeable venue identified by a FinID, optionally mapped to
// an ISO 10383 MIC, and optionally superseded by another FinID.
type Market struct {
	FinID      string
	MIC        string
	ReplacedBy string

	store    Store
	resolver *SeasonResolver
}

// CountryCode returns the two-letter ISO country code embedded in the
// market's FinID (the FinID's first dotted segment). This mirrors
// `Market.country_code` in the original Python implementation, which the
// distilled spec describes informally but never names as an operation.
func (m Market) CountryCode() string {
	parsed, err := ParseFinID(m.FinID)
	if err != nil {
		return ""
	}
	return parsed.Country
}

// Schedule is one row of the schedules table: a named phase that applies
// on a set of weekdays, optionally gated by an in-force date range and/or
// a season.
type Schedule struct {
	FinID          string
	ScheduleGroup  string
	Timezone       string
	PhaseType      string
	PhaseName      string
	PhaseMemo      string
	Days           WeekdayPattern
	Start          string // HH:MM:SS, local time-of-day
	End            string // HH:MM:SS, local time-of-day
	OffsetDays     int
	InForceStart   *time.Time
	InForceEnd     *time.Time
	SeasonStart    string // season name, empty if no season restriction
	SeasonEnd      string
}

// HasSeason reports whether this schedule's validity is season-gated.
// Invariant 1 (spec.md §3): both season bounds are present, or neither.
func (s Schedule) HasSeason() bool {
	return s.SeasonStart != "" && s.SeasonEnd != ""
}

// IsInForce reports whether `date` falls within [InForceStart, InForceEnd],
// treating a missing bound as an open end (spec.md §4.3 Stage 3).
func (s Schedule) IsInForce(date time.Time) bool {
	date = civilDate(date)
	if s.InForceStart != nil && date.Before(civilDate(*s.InForceStart)) {
		return false
	}
	if s.InForceEnd != nil && date.After(civilDate(*s.InForceEnd)) {
		return false
	}
	return true
}

// duration returns the schedule's wall-clock span, ignoring offset days, for
// use as the secondary sort key in spec.md invariant 4 ("(start, duration)").
func (s Schedule) duration() (time.Duration, error) {
	start, err := parseTimeOfDay(s.Start)
	if err != nil {
		return 0, err
	}
	end, err := parseTimeOfDay(s.End)
	if err != nil {
		return 0, err
	}
	d := end - start
	if d < 0 {
		d += 24 * time.Hour
	}
	return d, nil
}

func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("%w: could not parse time-of-day %q: %v", ErrDataInconsistent, s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// MarketHoliday is one row of the market_holidays table.
type MarketHoliday struct {
	FinID       string
	Date        time.Time
	HolidayName string
	Schedule    string // substitute schedule group, e.g. "Thanksgiving", "Regular"
	Settlement  string // "Yes", "No", or empty
	Status      string // "Open" or "Closed"
	Observed    bool
	Memo        string
}

// SeasonDefinition resolves a (season name, year) pair to a concrete date.
type SeasonDefinition struct {
	SeasonName string
	Year       int
	Date       time.Time
}

// PhaseType is a category of phase, carrying default open/settlement flags.
type PhaseType struct {
	Name       string
	Status     string // "Open" or "Closed"
	Settlement string // "Yes" or "No"
}

// IsOpen reports whether this phase type represents an open market state.
func (p PhaseType) IsOpen() bool {
	return p.Status == "Open"
}

// HasSettlement reports whether this phase type carries settlement.
func (p PhaseType) HasSettlement() bool {
	return p.Settlement == "Yes"
}

// Phase is a single concrete, timezone-correct trading interval.
type Phase struct {
	PhaseType  string
	PhaseName  string
	PhaseMemo  string
	Status     string
	Settlement string
	Start      time.Time
	End        time.Time
}
