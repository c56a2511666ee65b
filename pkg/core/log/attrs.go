// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"

	"github.com/momeni/pglend/pkg/core/model"
)

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// Mode returns an Attr holding the string form of a lending mode.
func Mode(key string, m model.LendingMode) slog.Attr {
	return slog.String(key, m.String())
}

// Stats returns a group Attr with the counters of a pool snapshot.
func Stats(key string, s model.PoolStats) slog.Attr {
	return slog.Group(
		key,
		slog.Int("total", int(s.Total)),
		slog.Int("idle", int(s.Idle)),
		slog.Int("acquired", int(s.Acquired)),
		slog.Int("max", int(s.Max)),
		slog.Int("available", int(s.Available())),
	)
}
