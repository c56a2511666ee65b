// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cerr contains the core errors. The Error type carries an
// HTTP status code for the errors which should be reported to web
// clients as-is, while the lending errors (ConfigError,
// AcquisitionError, and PreconditionViolation) describe the failures
// of the connection lending layer itself.
package cerr

import (
	"fmt"
	"net/http"
)

// Error wraps an error which should be reported to the web clients
// with the HTTPStatusCode status.
type Error struct {
	Err            error
	HTTPStatusCode int
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.HTTPStatusCode, e.Err.Error())
}

func NotFound(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusNotFound}
}
