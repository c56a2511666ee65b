// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings provides the field types and helper functions which
// are used by the config package for loading, defaulting, and checking
// the individual settings.
package settings

import (
	"strings"
	"time"
)

// Duration is a time.Duration which is decoded from (and encoded to)
// the time.ParseDuration format in YAML and JSON documents, such as
// "5s" or "1m30s".
type Duration time.Duration

// UnmarshalText implements the encoding.TextUnmarshaler interface.
// The `d` receiver is updated only if data could be parsed.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// String formats `d` like time.Duration, but drops the zero trailing
// units. For example, 2m0s is formatted as 2m and 1h0m0s as 1h.
func (d Duration) String() string {
	s := time.Duration(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// MarshalText implements the encoding.TextMarshaler interface using
// the String method.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
