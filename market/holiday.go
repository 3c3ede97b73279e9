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

// loadHolidayIndex fetches every holiday row for finID within
// [windowStart, windowEnd] and indexes it by date (spec.md §4.2). If more
// than one holiday row shares a date, the last one read wins -- the
// dataset is assumed deduplicated upstream, and this tie-break is
// deliberately preserved rather than second-guessed (spec.md §9, "Open
// question -- duplicate holidays"). The index is built once per
// generate_phases call and never mutated afterward.
func loadHolidayIndex(ctx context.Context, store Store, finID string, windowStart, windowEnd time.Time) (map[time.Time]MarketHoliday, error) {
	rows, err := store.HolidaysForMarket(ctx, finID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	index := make(map[time.Time]MarketHoliday, len(rows))
	for _, h := range rows {
		index[civilDate(h.Date)] = h
	}
	return index, nil
}
