// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import (
	"cmp"
	"fmt"
)

// OutOfRangeError indicates that a Value was out of its acceptable
// range, either less than its minimum valid value or greater than its
// maximum valid value.
type OutOfRangeError[T cmp.Ordered] struct {
	Value        T    // The actual out-of-range value
	Bound        T    // The violated boundary value
	LessThanMin  bool // true if and only if min boundary is violated
	InvalidRange bool // true if and only if min is greater than max
}

func (e *OutOfRangeError[T]) Error() string {
	switch {
	case e.InvalidRange:
		return "min is greater than max"
	case e.LessThanMin:
		return fmt.Sprintf("%v is less than min (%v)", e.Value, e.Bound)
	default:
		return fmt.Sprintf("%v is greater than max (%v)", e.Value, e.Bound)
	}
}

// VerifyRange ensures that the value is either nil or within the
// optional minb and maxb boundaries. A wrong value is clamped to the
// violated boundary in addition to the returned error, so the callers
// may choose to log the error and continue.
func VerifyRange[T cmp.Ordered](
	value *T, minb, maxb *T,
) *OutOfRangeError[T] {
	switch {
	case minb != nil && maxb != nil && (*minb) > (*maxb):
		return &OutOfRangeError[T]{InvalidRange: true}
	case value == nil:
		return nil
	}
	switch v := *value; {
	case minb != nil && v < *minb:
		*value = *minb
		return &OutOfRangeError[T]{Value: v, Bound: *minb, LessThanMin: true}
	case maxb != nil && v > *maxb:
		*value = *maxb
		return &OutOfRangeError[T]{Value: v, Bound: *maxb}
	}
	return nil
}
