// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo declares the interfaces which the use cases layer
// expects from the database adapters. The connections pool itself is
// supplied by an adapter (see pkg/adapter/db/postgres) and the use
// cases only lend, lock, and release its connections through these
// interfaces.
package repo

import (
	"context"

	"github.com/momeni/pglend/pkg/core/model"
)

// ConnHandler is a callback which receives a checked out connection.
// The connection may not be used after the handler returns.
type ConnHandler func(context.Context, Conn) error

// Pool represents a shared and concurrency-safe connections pool.
// Copies of a Pool value (or of a pointer to its implementation) refer
// to the same underlying connections.
type Pool interface {
	// Conn checks out a connection, passes it to handler, and returns
	// it to the pool after the handler returns.
	Conn(ctx context.Context, handler ConnHandler) error

	// Acquire checks out a connection which must be released by the
	// caller. It blocks while the pool is exhausted, until ctx is done.
	Acquire(ctx context.Context) (PooledConn, error)

	// Stats reports the current pool counters.
	Stats() model.PoolStats
}

// PooledConn is a checked out connection which must be returned to its
// pool by calling Release exactly once. Extra calls are ignored.
type PooledConn interface {
	Conn
	Release()
}
