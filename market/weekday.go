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
	"strings"
)

// weekdayNames maps the three-letter day tokens used in a Schedule's Days
// field to the 0=Monday..6=Sunday numbering spec.md §4.3 Stage 5 specifies.
var weekdayNames = map[string]int{
	"mon": 0,
	"tue": 1,
	"wed": 2,
	"thu": 3,
	"fri": 4,
	"sat": 5,
	"sun": 6,
}

// WeekdayPattern is a parsed "days" field: a comma-separated list of day
// names or hyphen-ranges thereof, e.g. "Mon-Fri", "Sat", "Mon,Wed,Fri".
type WeekdayPattern struct {
	raw  string
	days [7]bool
}

// ParseWeekdayPattern parses a days pattern. A malformed pattern is a data
// error (spec.md §7, DataInconsistent), not an invalid argument, because it
// originates from the reference dataset rather than from caller input.
func ParseWeekdayPattern(pattern string) (WeekdayPattern, error) {
	wp := WeekdayPattern{raw: pattern}
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return wp, fmt.Errorf("%w: empty days pattern", ErrDataInconsistent)
	}

	for _, element := range strings.Split(trimmed, ",") {
		element = strings.TrimSpace(element)
		if element == "" {
			return wp, fmt.Errorf("%w: days pattern %q has an empty element", ErrDataInconsistent, pattern)
		}

		if from, to, ok := strings.Cut(element, "-"); ok {
			fromIdx, err := dayIndex(from)
			if err != nil {
				return wp, fmt.Errorf("%w: days pattern %q: %v", ErrDataInconsistent, pattern, err)
			}
			toIdx, err := dayIndex(to)
			if err != nil {
				return wp, fmt.Errorf("%w: days pattern %q: %v", ErrDataInconsistent, pattern, err)
			}
			markRange(&wp.days, fromIdx, toIdx)
		} else {
			idx, err := dayIndex(element)
			if err != nil {
				return wp, fmt.Errorf("%w: days pattern %q: %v", ErrDataInconsistent, pattern, err)
			}
			wp.days[idx] = true
		}
	}

	return wp, nil
}

func dayIndex(token string) (int, error) {
	idx, ok := weekdayNames[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("unrecognized weekday token %q", token)
	}
	return idx, nil
}

// markRange marks from..to inclusive, wrapping around the week the way
// "Fri-Mon" means {Fri, Sat, Sun, Mon}.
func markRange(days *[7]bool, from, to int) {
	i := from
	for {
		days[i] = true
		if i == to {
			return
		}
		i = (i + 1) % 7
	}
}

// Matches reports whether the given weekday (0=Monday..6=Sunday) is in the
// pattern.
func (wp WeekdayPattern) Matches(weekday int) bool {
	return wp.days[((weekday%7)+7)%7]
}

func (wp WeekdayPattern) String() string {
	return wp.raw
}
