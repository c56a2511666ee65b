// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// PoolStats is a point-in-time snapshot of a connections pool.
// Counters are taken together, but the pool may change right after
// the snapshot is taken, so they are only useful for reporting and
// for tests which control all pool clients.
type PoolStats struct {
	Total    int32 `json:"total"`    // idle + acquired + constructing
	Idle     int32 `json:"idle"`     // ready to be checked out
	Acquired int32 `json:"acquired"` // currently checked out
	Max      int32 `json:"max"`      // upper bound of Total
}

// Available returns the number of connections which may be checked
// out without waiting, either idle ones or those which can be created.
func (s PoolStats) Available() int32 {
	return s.Max - s.Acquired
}
