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

import "errors"

// Error taxonomy for the phase generation engine. Callers should use
// errors.Is against these sentinels rather than string matching.
var (
	// ErrInvalidArgument signals a malformed identifier, an unparseable
	// date, or a start date after the end date. Raised before any Store
	// access is attempted.
	ErrInvalidArgument = errors.New("tradinghours: invalid argument")

	// ErrNotFound signals a dataset gap: a season (name, year) pair
	// that the Store has no row for. Market/MIC
	// lookups do not use this sentinel -- they return a nil Market
	// instead, per spec.
	ErrNotFound = errors.New("tradinghours: not found")

	// ErrDataInconsistent signals a schedule referencing an unknown
	// phase-type, a malformed weekday pattern, or any other internal
	// contradiction in the reference dataset.
	ErrDataInconsistent = errors.New("tradinghours: data inconsistent")

	// ErrStoreError wraps an error propagated unchanged from the Store.
	ErrStoreError = errors.New("tradinghours: store error")
)
