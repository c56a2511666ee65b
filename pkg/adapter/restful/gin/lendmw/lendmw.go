// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lendmw provides the gin-gonic lending middleware. It lends
// a database connection to each request using the lenduc use case and
// stores its lease in the request context, so the handlers which run
// after it may obtain the connection by the Lock, Acquire, or WithConn
// functions. Installing the middleware more than once (e.g., on the
// engine and on a group) is harmless; the outer one owns the lease.
//
// The lease is released when the handlers return or panic. Handlers
// must unlock the connection with defer, since the lease release
// waits for the lock holder.
package lendmw

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
)

// New instantiates the lending middleware. If no connection can be
// checked out, the request is aborted with the 503 status and the
// remaining handlers are not called. Otherwise, the handlers run and
// their responses (including failures) are not touched.
func New(uc *lenduc.UseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, release, err := uc.Lend(c.Request.Context())
		if err != nil {
			serdser.SerErr(c, err)
			c.Abort()
			return
		}
		defer release()
		if ctx != c.Request.Context() {
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// Lock waits for the lent connection of c request and returns it with
// its unlock function. See lenduc.Lock for the details.
func Lock(c *gin.Context) (repo.Conn, func(), error) {
	return lenduc.Lock(c.Request.Context())
}

// Acquire checks out an independent connection for c request which
// must be released by the caller. See lenduc.Acquire for the details.
func Acquire(c *gin.Context) (repo.PooledConn, error) {
	return lenduc.Acquire(c.Request.Context())
}

// WithConn runs f with a connection of c request, regardless of the
// lending mode. In the exclusive mode, the lent connection is locked
// while f runs. In the shared mode, a connection is checked out and
// released after f returns. Errors of f are returned as-is.
func WithConn(
	c *gin.Context, f func(ctx context.Context, conn repo.Conn) error,
) error {
	ctx := c.Request.Context()
	if l, ok := lenduc.FromContext(ctx); ok && l.Mode() == model.LendingModeShared {
		conn, err := l.Acquire(ctx)
		if err != nil {
			return err
		}
		defer conn.Release()
		return f(ctx, conn)
	}
	conn, unlock, err := lenduc.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return f(ctx, conn)
}
