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

// Package store provides a concrete, optional Postgres-backed
// implementation of market.Store, adapted from the teacher's
// data/database package: a pooled connection plus a role-scoped read-only
// transaction helper. Ingestion into these tables is out of scope (spec.md
// §1) -- this package only ever issues the seven read queries market.Store
// requires.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/quantfin/tradinghours/market"
)

// PgxIface is the one pool operation PostgresStore depends on. Narrowing to
// this interface (rather than depending on *pgxpool.Pool directly) is
// lifted from the teacher's data/database.PgxIface -- it lets tests swap in
// a pgxmock connection in place of a real pool.
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

// PostgresStore implements market.Store against a reference-data schema of
// markets / schedules / market_holidays / season_definitions / phase_types
// / mic_mappings tables, each read through a "SET ROLE <role>" scoped
// transaction (role defaults to th_readonly) the way the teacher's
// TrxForUser did for pvuser.
type PostgresStore struct {
	pool     PgxIface
	role     string
	closable *pgxpool.Pool // non-nil only when Connect built the pool; Close is a no-op otherwise
}

// Config configures Connect.
type Config struct {
	DSN  string
	Role string // defaults to "th_readonly"
}

// Connect opens a pgxpool against cfg.DSN and pings it.
func Connect(ctx context.Context, cfg Config) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}

	s := NewWithConn(pool, cfg.Role)
	s.closable = pool
	return s, nil
}

// NewWithConn builds a PostgresStore around an already-open connection or
// pool. Exposed so tests can pass a pgxmock connection in place of a real
// pgxpool.Pool; Connect uses it internally for the real-pool path.
func NewWithConn(conn PgxIface, role string) *PostgresStore {
	if role == "" {
		role = "th_readonly"
	}
	return &PostgresStore{pool: conn, role: role}
}

// Close releases the underlying connection pool, if Connect opened one.
func (s *PostgresStore) Close() {
	if s.closable != nil {
		s.closable.Close()
	}
}

// roleTx begins a transaction scoped to the store's read-only role. If
// SET ROLE fails, that transaction is rolled back and a new, unscoped
// transaction under the pool's own role is returned instead.
func (s *PostgresStore) roleTx(ctx context.Context) (pgx.Tx, error) {
	trx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	ident := pgx.Identifier{s.role}
	if _, err := trx.Exec(ctx, fmt.Sprintf("SET ROLE %s", ident.Sanitize())); err != nil {
		_ = trx.Rollback(ctx)
		log.Warn().Err(err).Str("Role", s.role).Msg("could not switch to read-only role, continuing with pool role")
		return s.pool.Begin(ctx)
	}
	return trx, nil
}

func (s *PostgresStore) MarketByFinID(ctx context.Context, finID string) (*market.MarketRow, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return nil, err
	}
	defer trx.Rollback(ctx)

	row := trx.QueryRow(ctx,
		`SELECT fin_id, coalesce(mic, ''), coalesce(replaced_by, '') FROM markets WHERE fin_id = $1`,
		finID)

	var m market.MarketRow
	if err := row.Scan(&m.FinID, &m.MIC, &m.ReplacedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return &m, nil
}

func (s *PostgresStore) MarketByMIC(ctx context.Context, mic string) (*market.MarketRow, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return nil, err
	}
	defer trx.Rollback(ctx)

	row := trx.QueryRow(ctx,
		`SELECT fin_id, coalesce(mic, ''), coalesce(replaced_by, '') FROM markets WHERE mic = $1`,
		mic)

	var m market.MarketRow
	if err := row.Scan(&m.FinID, &m.MIC, &m.ReplacedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return &m, nil
}

func (s *PostgresStore) MicMapping(ctx context.Context, mic string) (*market.MicMappingRow, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return nil, err
	}
	defer trx.Rollback(ctx)

	row := trx.QueryRow(ctx, `SELECT mic, fin_id FROM mic_mappings WHERE mic = $1`, mic)

	var m market.MicMappingRow
	if err := row.Scan(&m.MIC, &m.FinID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return &m, nil
}

// schedulesQuery orders rows exactly per spec.md §4.6 / the original
// Python's Market.list_schedules: schedule_group nulls-first,
// in_force_start_date nulls-first, season_start nulls-first, start, end.
const schedulesQuery = `
SELECT fin_id, schedule_group, timezone, phase_type, phase_name,
       coalesce(phase_memo, ''), days, start, "end", offset_days,
       in_force_start_date, in_force_end_date,
       coalesce(season_start, ''), coalesce(season_end, '')
FROM schedules
WHERE fin_id = $1
ORDER BY schedule_group ASC NULLS FIRST,
         in_force_start_date ASC NULLS FIRST,
         season_start ASC NULLS FIRST,
         start ASC, "end" ASC`

func (s *PostgresStore) SchedulesForMarket(ctx context.Context, finID string) ([]market.Schedule, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return nil, err
	}
	defer trx.Rollback(ctx)

	rows, err := trx.Query(ctx, schedulesQuery, finID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	defer rows.Close()

	var out []market.Schedule
	for rows.Next() {
		var sch market.Schedule
		var daysRaw string
		var inForceStart, inForceEnd *time.Time

		if err := rows.Scan(
			&sch.FinID, &sch.ScheduleGroup, &sch.Timezone, &sch.PhaseType, &sch.PhaseName,
			&sch.PhaseMemo, &daysRaw, &sch.Start, &sch.End, &sch.OffsetDays,
			&inForceStart, &inForceEnd, &sch.SeasonStart, &sch.SeasonEnd,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
		}

		pattern, err := market.ParseWeekdayPattern(daysRaw)
		if err != nil {
			return nil, err
		}
		sch.Days = pattern
		sch.InForceStart = inForceStart
		sch.InForceEnd = inForceEnd

		out = append(out, sch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return out, nil
}

func (s *PostgresStore) HolidaysForMarket(ctx context.Context, finID string, start, end time.Time) ([]market.MarketHoliday, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return nil, err
	}
	defer trx.Rollback(ctx)

	rows, err := trx.Query(ctx,
		`SELECT fin_id, date, holiday_name, schedule, coalesce(settlement, ''),
                status, observed, coalesce(memo, '')
         FROM market_holidays
         WHERE fin_id = $1 AND date >= $2 AND date <= $3
         ORDER BY date ASC`,
		finID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	defer rows.Close()

	var out []market.MarketHoliday
	for rows.Next() {
		var h market.MarketHoliday
		if err := rows.Scan(&h.FinID, &h.Date, &h.HolidayName, &h.Schedule, &h.Settlement, &h.Status, &h.Observed, &h.Memo); err != nil {
			return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return out, nil
}

func (s *PostgresStore) Season(ctx context.Context, name string, year int) (market.SeasonDefinition, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return market.SeasonDefinition{}, err
	}
	defer trx.Rollback(ctx)

	row := trx.QueryRow(ctx,
		`SELECT season_name, year, date FROM season_definitions WHERE season_name = $1 AND year = $2`,
		name, year)

	var sd market.SeasonDefinition
	if err := row.Scan(&sd.SeasonName, &sd.Year, &sd.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.SeasonDefinition{}, fmt.Errorf("%w: season %q has no definition for year %d", market.ErrNotFound, name, year)
		}
		return market.SeasonDefinition{}, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return sd, nil
}

func (s *PostgresStore) PhaseTypesAll(ctx context.Context) ([]market.PhaseType, error) {
	trx, err := s.roleTx(ctx)
	if err != nil {
		return nil, err
	}
	defer trx.Rollback(ctx)

	rows, err := trx.Query(ctx, `SELECT name, status, settlement FROM phase_types`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	defer rows.Close()

	var out []market.PhaseType
	for rows.Next() {
		var pt market.PhaseType
		if err := rows.Scan(&pt.Name, &pt.Status, &pt.Settlement); err != nil {
			return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrStoreError, err)
	}
	return out, nil
}
