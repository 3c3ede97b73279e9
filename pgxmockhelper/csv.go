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

// Package pgxmockhelper loads the reference-data CSV fixtures under
// store/testdata/ into pgxmock.Rows, so store's tests can stand in rows
// shaped like the markets/schedules/market_holidays tables without a real
// Postgres connection.
package pgxmockhelper

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pashagolub/pgxmock"
	"github.com/rs/zerolog/log"
)

// ErrMalformedFixture signals a CSV fixture that is not a valid
// header-plus-rows file, or a column value that does not match the type
// requested for it.
var ErrMalformedFixture = errors.New("pgxmockhelper: malformed csv fixture")

// RowsFromCSV reads csvFn and returns its contents as pgxmock.Rows, one row
// per data line. Columns are returned as strings unless typeMap names a
// column, in which case "date" (YYYY-MM-DD), "int", or "bool" ("true"/
// "false"/empty) coerce it to the matching Go type -- covering the column
// kinds store's Schedule/MarketHoliday/SeasonDefinition rows actually use
// (in_force_start_date, offset_days, observed, ...). The file must have a
// header line, at least one data line, and a trailing newline; fields are
// plain comma-separated, no quoting.
func RowsFromCSV(csvFn string, typeMap map[string]string) (*pgxmock.Rows, error) {
	raw, err := os.ReadFile(csvFn)
	if err != nil {
		return nil, err
	}

	sublog := log.With().Str("CsvFn", csvFn).Logger()

	lines := strings.Split(string(raw), "\n")
	if len(lines) < 3 {
		sublog.Error().Int("NumLines", len(lines)).Msg("fixture needs a header, at least one row, and a trailing newline")
		return nil, fmt.Errorf("%w: %s has too few lines", ErrMalformedFixture, csvFn)
	}
	if lines[len(lines)-1] != "" {
		sublog.Error().Msg("fixture is missing its trailing newline")
		return nil, fmt.Errorf("%w: %s has no trailing newline", ErrMalformedFixture, csvFn)
	}

	header := strings.Split(lines[0], ",")
	dataLines := lines[1 : len(lines)-1]

	rows := pgxmock.NewRows(header)
	for _, line := range dataLines {
		fields := strings.Split(line, ",")
		cols := make([]any, len(header))
		for idx, raw := range fields {
			col := header[idx]
			coerced, err := coerce(raw, typeMap[col])
			if err != nil {
				sublog.Error().Err(err).Str("Column", col).Str("Val", raw).Msg("could not coerce fixture value")
				return nil, err
			}
			cols[idx] = coerced
		}
		rows = rows.AddRow(cols...)
	}

	return rows, nil
}

func coerce(val, kind string) (any, error) {
	switch kind {
	case "":
		return val, nil
	case "date":
		parsed, err := time.Parse("2006-01-02", val)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date: %v", ErrMalformedFixture, val, err)
		}
		return parsed, nil
	case "int":
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int: %v", ErrMalformedFixture, val, err)
		}
		return parsed, nil
	case "bool":
		return val == "true" || val == "OBS", nil
	default:
		return nil, fmt.Errorf("%w: unknown type coercion %q", ErrMalformedFixture, kind)
	}
}
