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

// FinID is a dotted TradingHours market identifier, e.g. "US.NYSE" or
// "ZA.JSE.EQUITIES.DRV". The first segment is always the ISO country code.
type FinID struct {
	raw     string
	Country string
	Acronym string
	Submkt  string // remaining dotted segments joined back with ".", empty if none
}

// ParseFinID validates and decomposes a dotted FinID string. It does not
// touch the Store -- malformed input is rejected before any query runs.
func ParseFinID(id string) (FinID, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return FinID{}, fmt.Errorf("%w: empty fin_id", ErrInvalidArgument)
	}
	parts := strings.Split(trimmed, ".")
	if len(parts) < 2 {
		return FinID{}, fmt.Errorf("%w: fin_id %q must have at least country.acronym", ErrInvalidArgument, id)
	}
	for _, p := range parts {
		if p == "" {
			return FinID{}, fmt.Errorf("%w: fin_id %q has an empty segment", ErrInvalidArgument, id)
		}
	}
	return FinID{
		raw:     trimmed,
		Country: parts[0],
		Acronym: parts[1],
		Submkt:  strings.Join(parts[2:], "."),
	}, nil
}

func (f FinID) String() string {
	return f.raw
}
