// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models. This layer may not depend on
// outter layers, while all other layers may depend on it.
// For the lending layer, models are limited to the lending policy enum
// and the pool statistics snapshot which are shared between the use
// case and its adapters.
package model

import (
	"errors"
	"fmt"
)

// LendingMode specifies how a database connection is lent to a single
// request. Although this enum is numeric, it is (de)serialized as a
// string in the configuration files for readability.
type LendingMode int

// Valid values for the LendingMode enum.
const (
	LendingModeInvalid LendingMode = iota // zero value is invalid

	// LendingModeExclusive checks out exactly one connection when the
	// request enters the pipeline and serializes all accesses to it.
	LendingModeExclusive

	// LendingModeShared lends the pool handle itself, so each access
	// performs an independent checkout which must be released by the
	// accessing caller.
	LendingModeShared
)

// ErrUnknownLendingMode indicates that a given string may not be parsed
// as a known lending mode. The invalid string itself is not included
// because the caller of ParseLendingMode already knows about it.
var ErrUnknownLendingMode = errors.New("unknown lending mode")

// LendingModeError indicates an invalid numeric lending mode.
type LendingModeError int

// Error implements the error interface, returning a string
// representation of the LendingModeError.
func (e LendingModeError) Error() string {
	return fmt.Sprintf("invalid lending mode: %d", e)
}

// Validate returns nil if LendingMode value is valid. For invalid
// values, an instance of the LendingModeError will be returned.
func (m LendingMode) Validate() error {
	switch m {
	case LendingModeExclusive, LendingModeShared:
		return nil
	default:
		return LendingModeError(m)
	}
}

// String converts the LendingMode enum to a string. Invalid lending
// modes are reported with their numeric value instead of panicking
// because the String method is commonly called while logging.
func (m LendingMode) String() string {
	switch m {
	case LendingModeExclusive:
		return "exclusive"
	case LendingModeShared:
		return "shared"
	default:
		return fmt.Sprintf("invalid(%d)", int(m))
	}
}

// ParseLendingMode parses the given string and returns a LendingMode.
// For invalid strings, LendingModeInvalid and ErrUnknownLendingMode
// will be returned.
func ParseLendingMode(m string) (LendingMode, error) {
	switch m {
	case "exclusive":
		return LendingModeExclusive, nil
	case "shared":
		return LendingModeShared, nil
	default:
		return LendingModeInvalid, ErrUnknownLendingMode
	}
}
