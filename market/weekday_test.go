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
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantfin/tradinghours/market"
)

var _ = Describe("WeekdayPattern", func() {
	DescribeTable("when parsing a days pattern",
		func(pattern string, expectedMatch, expectedNoMatch []int, expectedErr error) {
			wp, err := market.ParseWeekdayPattern(pattern)
			if expectedErr != nil {
				Expect(errors.Is(err, expectedErr)).To(BeTrue())
				return
			}
			Expect(err).To(BeNil())
			for _, d := range expectedMatch {
				Expect(wp.Matches(d)).To(BeTrue(), "expected day %d to match %q", d, pattern)
			}
			for _, d := range expectedNoMatch {
				Expect(wp.Matches(d)).To(BeFalse(), "expected day %d not to match %q", d, pattern)
			}
		},
		Entry("Mon-Fri", "Mon-Fri", []int{0, 1, 2, 3, 4}, []int{5, 6}, nil),
		Entry("Fri-Mon wraps the week", "Fri-Mon", []int{4, 5, 6, 0}, []int{1, 2, 3}, nil),
		Entry("explicit list", "Mon,Wed,Fri", []int{0, 2, 4}, []int{1, 3, 5, 6}, nil),
		Entry("single day", "Sat", []int{5}, []int{0, 1, 2, 3, 4, 6}, nil),
		Entry("empty pattern is a data error", "", nil, nil, market.ErrDataInconsistent),
		Entry("unrecognized token is a data error", "Mon-Funday", nil, nil, market.ErrDataInconsistent),
	)

	It("round-trips the original string via String()", func() {
		wp, err := market.ParseWeekdayPattern("Mon-Fri")
		Expect(err).To(BeNil())
		Expect(wp.String()).To(Equal("Mon-Fri"))
	})
})
