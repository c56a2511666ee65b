// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package fakepool

import (
	"fmt"
	"time"
)

// Rows iterates over a fixed result set.
type Rows struct {
	rows [][]any
	idx  int
}

func (r *Rows) Close() {
	r.idx = len(r.rows)
}

func (r *Rows) Err() error {
	return nil
}

func (r *Rows) Next() bool {
	if r.idx+1 >= len(r.rows) {
		r.idx = len(r.rows)
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, fmt.Errorf("no current row")
	}
	return r.rows[r.idx], nil
}

// Scan supports the destination types which are used by the tests.
func (r *Rows) Scan(dest ...any) error {
	vals, err := r.Values()
	if err != nil {
		return err
	}
	if len(vals) != len(dest) {
		return fmt.Errorf("scanning %d values into %d dests", len(vals), len(dest))
	}
	for i, v := range vals {
		switch d := dest[i].(type) {
		case *any:
			*d = v
		case *string:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("value %d is %T, not string", i, v)
			}
			*d = s
		case *time.Time:
			tm, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("value %d is %T, not time.Time", i, v)
			}
			*d = tm
		case *int64:
			n, ok := v.(int64)
			if !ok {
				return fmt.Errorf("value %d is %T, not int64", i, v)
			}
			*d = n
		default:
			return fmt.Errorf("unsupported scan dest %T", d)
		}
	}
	return nil
}
