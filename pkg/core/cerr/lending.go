// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrLeaseReleased is returned by the lease accessors when the request
// which owned the lease has already finished. It usually indicates a
// goroutine which outlived its request.
var ErrLeaseReleased = errors.New("connection lease is already released")

// ConfigError indicates an invalid connection URI or pool parameters.
// It is raised during the startup and is fatal to the initialization.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Error() string {
	return "invalid pool configuration: " + e.Err.Error()
}

// AcquisitionError indicates that the pool could not supply a
// connection, because it was exhausted until the context deadline or
// because the new connection could not be established.
// It is never retried by the lending layer.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

func (e *AcquisitionError) Error() string {
	return "acquiring connection: " + e.Err.Error()
}

// HTTPStatusCode reports the 503 status, so acquisition failures may
// be rendered like the Error instances.
func (e *AcquisitionError) HTTPStatusCode() int {
	return http.StatusServiceUnavailable
}

// PreconditionViolation is a programming defect, such as asking for
// the lent connection of a request which has not passed through the
// lending middleware. It is raised by panicking, so the request is
// aborted by the recovery middleware with a 500 status.
type PreconditionViolation struct {
	Op     string // the violating operation, e.g., "lenduc.Lock"
	Reason string
}

func (e *PreconditionViolation) Error() string {
	return fmt.Sprintf("%s: precondition violated: %s", e.Op, e.Reason)
}
