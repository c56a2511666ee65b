// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package fakepool is an internal helper for the test packages.
// It provides an in-memory and bounded repo.Pool implementation which
// counts checkouts and detects concurrent use of a single connection,
// so the lending use case and its middlewares may be tested without
// a PostgreSQL DBMS server.
package fakepool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
)

// QueryFunc computes the result rows of a fake query.
type QueryFunc func(sql string, args []any) ([][]any, error)

// EchoArgs is the default QueryFunc which returns one row containing
// the query args.
func EchoArgs(_ string, args []any) ([][]any, error) {
	return [][]any{args}, nil
}

// Pool is a bounded fake connections pool. Acquire blocks while
// max connections are checked out, until its context is done.
type Pool struct {
	slots chan struct{}
	max   int32

	acquired   atomic.Int32
	checkouts  atomic.Int32
	violations atomic.Int32

	// Query computes the rows of Conn.Query calls. It must be set
	// before the pool is used. Defaults to EchoArgs.
	Query QueryFunc
	// Delay is slept by each statement while its connection is
	// marked as busy, widening the window of concurrent misuse.
	Delay time.Duration
}

// New creates a fake pool with max connections capacity.
func New(max int32) *Pool {
	return &Pool{
		slots: make(chan struct{}, max),
		max:   max,
		Query: EchoArgs,
	}
}

// Acquire checks out a connection.
func (p *Pool) Acquire(ctx context.Context) (repo.PooledConn, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.acquired.Add(1)
	id := p.checkouts.Add(1)
	return &Conn{pool: p, ID: id}, nil
}

// Conn checks out a connection for the duration of the handler call.
func (p *Pool) Conn(ctx context.Context, handler repo.ConnHandler) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return handler(ctx, c)
}

// Stats reports the fake counters. Connections are never idle since
// they are created on checkout and discarded on release.
func (p *Pool) Stats() model.PoolStats {
	a := p.acquired.Load()
	return model.PoolStats{Total: a, Acquired: a, Max: p.max}
}

// Checkouts returns the number of successful Acquire calls so far.
func (p *Pool) Checkouts() int32 {
	return p.checkouts.Load()
}

// Violations returns the number of statements which were started on
// a connection while another statement was running on it.
func (p *Pool) Violations() int32 {
	return p.violations.Load()
}

// Conn is a fake checked out connection.
type Conn struct {
	pool *Pool
	ID   int32 // sequence number of the checkout which created Conn

	busy     atomic.Bool
	once     sync.Once
	released atomic.Bool
}

var errReleased = errors.New("fakepool: connection is released")

func (c *Conn) enter() error {
	if c.released.Load() {
		return errReleased
	}
	if !c.busy.CompareAndSwap(false, true) {
		c.pool.violations.Add(1)
	}
	return nil
}

func (c *Conn) leave() {
	if c.pool.Delay > 0 {
		time.Sleep(c.pool.Delay)
	}
	c.busy.Store(false)
}

// Exec runs a fake statement which affects no rows.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if err := c.enter(); err != nil {
		return 0, err
	}
	defer c.leave()
	return 0, ctx.Err()
}

// Query runs a fake query using the pool QueryFunc.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := c.pool.Query(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows, idx: -1}, nil
}

// Tx runs handler with a fake transaction on c.
func (c *Conn) Tx(ctx context.Context, handler repo.TxHandler) error {
	return handler(ctx, &Tx{Conn: c})
}

func (c *Conn) IsConn() {
}

// Release returns c to its pool. Extra calls are ignored.
func (c *Conn) Release() {
	c.once.Do(func() {
		c.released.Store(true)
		c.pool.acquired.Add(-1)
		<-c.pool.slots
	})
}

// Released reports if c is returned to its pool.
func (c *Conn) Released() bool {
	return c.released.Load()
}

// Tx is a fake transaction which runs its statements on Conn.
type Tx struct {
	*Conn
}

func (tx *Tx) IsTx() {
}
