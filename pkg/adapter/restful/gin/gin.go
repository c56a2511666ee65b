// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine construction, so the config
// package may choose its global middlewares without depending on the
// gin-gonic package directly.
package gin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/pglend/pkg/core/cerr"
	"github.com/momeni/pglend/pkg/core/log"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

func Logger() HandlerFunc {
	return gin.Logger()
}

// Recovery converts panics to 500 responses. Precondition violations
// of the lending layer (e.g., a handler which asks for the lent
// connection while the lending middleware is not installed) are logged
// with their operation name in addition to the gin-gonic stack trace.
func Recovery() HandlerFunc {
	return gin.CustomRecovery(recovered)
}

func recovered(c *gin.Context, r any) {
	var pv *cerr.PreconditionViolation
	if err, ok := r.(error); ok && errors.As(err, &pv) {
		log.Error(
			c.Request.Context(), "precondition violated",
			slog.String("op", pv.Op),
			slog.String("reason", pv.Reason),
			slog.String("path", c.FullPath()),
		)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"detail": http.StatusText(http.StatusInternalServerError),
	})
}
