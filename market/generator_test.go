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

package market_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantfin/tradinghours/market"
)

// drain reads every PhaseResult off ch, failing the spec immediately on the
// first error.
func drain(ch <-chan market.PhaseResult) []market.Phase {
	var out []market.Phase
	for r := range ch {
		Expect(r.Err).To(BeNil())
		out = append(out, r.Phase)
	}
	return out
}

var _ = Describe("GeneratePhases", func() {
	var (
		ctx   context.Context
		store *fakeStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		store.phaseTypes = regularPhaseTypes
	})

	newMarket := func(finID string) *market.Market {
		lk := market.NewLookup(store, nil)
		store.markets[finID] = market.MarketRow{FinID: finID}
		m, err := lk.GetByFinID(ctx, finID, true)
		Expect(err).To(BeNil())
		Expect(m).ToNot(BeNil())
		return m
	}

	Context("a regular trading day", func() {
		It("emits Pre-Trading then Primary Trading Session, -05:00 in February", func() {
			finID := "US.NYSE"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Pre-Trading Session", PhaseName: "Pre-Trading Session",
					Days: mustWeekdays("Mon-Fri"), Start: "04:00:00", End: "09:30:00"},
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Mon-Fri"), Start: "09:30:00", End: "16:00:00"},
			}
			m := newMarket(finID)

			day := mustDate("2024-02-06") // a Tuesday
			ch, err := m.GeneratePhases(ctx, day, day)
			Expect(err).To(BeNil())
			phases := drain(ch)

			Expect(phases).To(HaveLen(2))
			Expect(phases[0].PhaseName).To(Equal("Pre-Trading Session"))
			Expect(phases[0].Status).To(Equal("Open"))
			Expect(phases[0].Start.Format("-07:00")).To(Equal("-05:00"))
			Expect(phases[1].PhaseName).To(Equal("Primary Trading Session"))
			Expect(phases[1].Settlement).To(Equal("Yes"))
			Expect(phases[0].Start.Before(phases[1].Start)).To(BeTrue())
		})
	})

	Context("a closed holiday", func() {
		It("emits no phases and fallback is not offered", func() {
			finID := "US.NYSE"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Mon-Fri"), Start: "09:30:00", End: "16:00:00"},
			}
			store.holidays[finID] = []market.MarketHoliday{
				{FinID: finID, Date: mustDate("2023-11-23"), HolidayName: "Thanksgiving", Schedule: "Closed", Status: "Closed"},
			}
			m := newMarket(finID)

			day := mustDate("2023-11-23") // a Thursday
			ch, err := m.GeneratePhases(ctx, day, day)
			Expect(err).To(BeNil())
			phases := drain(ch)
			Expect(phases).To(BeEmpty())
		})
	})

	Context("fallback selection", func() {
		It("borrows the nearest weekday's schedule shape for an open substitute group", func() {
			finID := "US.FALLBACK"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Mon-Fri"), Start: "09:30:00", End: "16:00:00"},
				{FinID: finID, ScheduleGroup: "earlyclose", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Fri"), Start: "09:30:00", End: "13:00:00"},
			}
			store.holidays[finID] = []market.MarketHoliday{
				{FinID: finID, Date: mustDate("2024-01-17"), HolidayName: "Synthetic Early Close", Schedule: "EarlyClose", Status: "Open"},
			}
			m := newMarket(finID)

			day := mustDate("2024-01-17") // a Wednesday; only Friday carries an earlyclose entry
			ch, err := m.GeneratePhases(ctx, day, day)
			Expect(err).To(BeNil())
			phases := drain(ch)

			Expect(phases).To(HaveLen(1))
			Expect(phases[0].End.Sub(phases[0].Start).Hours()).To(BeNumerically("~", 3.5))
		})
	})

	Context("season-gated schedules", func() {
		It("matches inside a wrap-around season and excludes outside it", func() {
			finID := "XX.SEASONTEST"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "UTC",
					PhaseType: "Primary Trading Session", PhaseName: "Winter Session",
					Days: mustWeekdays("Mon-Sun"), Start: "10:00:00", End: "11:00:00",
					SeasonStart: "Winter Start", SeasonEnd: "Winter End"},
			}
			store.addSeason("Winter Start", 2022, "2022-12-01")
			store.addSeason("Winter End", 2022, "2022-02-28")
			m := newMarket(finID)

			inSeason := mustDate("2022-01-15")
			ch, err := m.GeneratePhases(ctx, inSeason, inSeason)
			Expect(err).To(BeNil())
			Expect(drain(ch)).To(HaveLen(1))

			outOfSeason := mustDate("2022-04-01")
			ch, err = m.GeneratePhases(ctx, outOfSeason, outOfSeason)
			Expect(err).To(BeNil())
			Expect(drain(ch)).To(BeEmpty())
		})
	})

	Context("overnight sessions and lookback pruning", func() {
		It("drops an overnight session that ends before the window starts, keeps one that reaches into it", func() {
			finID := "US.OVERNIGHT"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/Chicago",
					PhaseType: "Primary Trading Session", PhaseName: "Overnight Session",
					Days: mustWeekdays("Sat"), Start: "18:00:00", End: "17:00:00", OffsetDays: 1},
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/Chicago",
					PhaseType: "Primary Trading Session", PhaseName: "Overnight Session",
					Days: mustWeekdays("Sun"), Start: "18:00:00", End: "17:00:00", OffsetDays: 1},
			}
			m := newMarket(finID)

			monday := mustDate("2024-03-04")
			ch, err := m.GeneratePhases(ctx, monday, monday)
			Expect(err).To(BeNil())
			phases := drain(ch)

			Expect(phases).To(HaveLen(1))
			Expect(phases[0].Start.Day()).To(Equal(3)) // Sunday the 3rd, carrying into Monday
			Expect(phases[0].End.Day()).To(Equal(4))
		})
	})

	Context("invalid arguments", func() {
		It("rejects an end date before the start date without touching the store", func() {
			finID := "US.NYSE"
			m := newMarket(finID)
			start := mustDate("2024-01-02")
			end := mustDate("2024-01-01")
			_, err := m.GeneratePhases(ctx, start, end)
			Expect(err).To(MatchError(market.ErrInvalidArgument))
		})
	})

	Context("DST transitions", func() {
		It("shifts a spring-forward gap start time forward past the gap", func() {
			finID := "US.DSTSPRING"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Sun"), Start: "02:30:00", End: "09:30:00"},
			}
			m := newMarket(finID)

			day := mustDate("2024-03-10") // spring-forward: 02:00-03:00 local never occurs
			ch, err := m.GeneratePhases(ctx, day, day)
			Expect(err).To(BeNil())
			phases := drain(ch)

			Expect(phases).To(HaveLen(1))
			Expect(phases[0].Start.UTC()).To(Equal(time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)))
			Expect(phases[0].Start.Format("-07:00")).To(Equal("-04:00")) // already EDT, past the gap
		})

		It("resolves a fall-back fold start time to the earlier of the two occurrences", func() {
			finID := "US.DSTFALL"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Sun"), Start: "01:30:00", End: "09:30:00"},
			}
			m := newMarket(finID)

			day := mustDate("2024-11-03") // fall-back: 01:00-02:00 local occurs twice
			ch, err := m.GeneratePhases(ctx, day, day)
			Expect(err).To(BeNil())
			phases := drain(ch)

			Expect(phases).To(HaveLen(1))
			Expect(phases[0].Start.UTC()).To(Equal(time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC)))
			Expect(phases[0].Start.Format("-07:00")).To(Equal("-04:00")) // earlier occurrence, still EDT
		})
	})

	Describe("ListHolidays and ListSchedules", func() {
		It("exposes the raw rows for a market", func() {
			finID := "US.NYSE"
			store.schedules[finID] = []market.Schedule{
				{FinID: finID, ScheduleGroup: "regular", Timezone: "America/New_York",
					PhaseType: "Primary Trading Session", PhaseName: "Primary Trading Session",
					Days: mustWeekdays("Mon-Fri"), Start: "09:30:00", End: "16:00:00"},
			}
			store.holidays[finID] = []market.MarketHoliday{
				{FinID: finID, Date: mustDate("2023-11-23"), HolidayName: "Thanksgiving", Schedule: "Closed", Status: "Closed"},
			}
			m := newMarket(finID)

			schedules, err := m.ListSchedules(ctx)
			Expect(err).To(BeNil())
			Expect(schedules).To(HaveLen(1))

			holidays, err := m.ListHolidays(ctx, mustDate("2023-01-01"), mustDate("2023-12-31"))
			Expect(err).To(BeNil())
			Expect(holidays).To(HaveLen(1))
			Expect(holidays[0].HolidayName).To(Equal("Thanksgiving"))
		})
	})
})
