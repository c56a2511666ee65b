// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres adapts the pgx connections pool to the repo.Pool
// interface, so its connections may be lent to the requests by the
// lenduc use case. The pool algorithm (acquisition, health checks,
// and recycling) is left to the pgxpool package and this package only
// converts its configuration and failures to the core errors.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/momeni/pglend/pkg/core/cerr"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool is the pool holder. It wraps a shared *pgxpool.Pool which is
// safe for concurrent use, so a *Pool may be passed to all requests.
type Pool struct {
	pool *pgxpool.Pool

	gormMu sync.Mutex // guards gdb
	gdb    *gorm.DB
}

// PoolOption is a functional option for the NewPool function.
type PoolOption func(c *poolConfig) error

type poolConfig struct {
	maxConns int32
	noPing   bool
}

// WithMaxConns bounds the number of connections which may be open
// (idle or checked out) at the same time. Lightweight deployments may
// use a small value like 2. The pool_max_conns URI parameter is used
// when this option is not given.
func WithMaxConns(n int32) PoolOption {
	return func(c *poolConfig) error {
		if n < 1 {
			return fmt.Errorf("max conns (%d) is not positive", n)
		}
		c.maxConns = n
		return nil
	}
}

// WithoutPing skips the connectivity check of NewPool, so the pool
// is created even if the DBMS server is not reachable yet.
func WithoutPing() PoolOption {
	return func(c *poolConfig) error {
		c.noPing = true
		return nil
	}
}

// NewPool parses the uri connection string and creates a connections
// pool eagerly. An invalid uri or invalid options are reported as a
// *cerr.ConfigError. Unless the WithoutPing option is given, one
// connection is checked out and pinged. A pool which cannot connect
// is not initialized either, so the ping failure is closed and reported
// as a *cerr.ConfigError too, wrapping the pgconn or network error.
func NewPool(ctx context.Context, uri string, opts ...PoolOption) (*Pool, error) {
	c := &poolConfig{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, &cerr.ConfigError{Err: err}
		}
	}
	pc, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, &cerr.ConfigError{
			Err: fmt.Errorf("pgxpool.ParseConfig: %w", err),
		}
	}
	if c.maxConns > 0 {
		pc.MaxConns = c.maxConns
		if pc.MinConns > pc.MaxConns {
			pc.MinConns = pc.MaxConns
		}
	}
	pp, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, &cerr.ConfigError{
			Err: fmt.Errorf("pgxpool.NewWithConfig: %w", err),
		}
	}
	if !c.noPing {
		if err = pp.Ping(ctx); err != nil {
			pp.Close()
			return nil, &cerr.ConfigError{
				Err: fmt.Errorf("testing connection: %w", err),
			}
		}
	}
	return FromPool(pp), nil
}

// FromPool adapts a pool which is configured by the caller. Closing
// the returned Pool closes pp too.
func FromPool(pp *pgxpool.Pool) *Pool {
	return &Pool{pool: pp}
}

// Handle returns the shared pgx pool. All copies of the returned
// pointer refer to the same pool state.
func (p *Pool) Handle() *pgxpool.Pool {
	return p.pool
}

// Acquire checks out one connection. The caller must release it.
// Acquire blocks while the pool is exhausted, until ctx is done.
func (p *Pool) Acquire(ctx context.Context) (repo.PooledConn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, &cerr.AcquisitionError{Err: err}
	}
	return &Conn{conn: c}, nil
}

type ConnHandler = repo.ConnHandler

// Conn checks out a connection for the duration of the f call.
func (p *Pool) Conn(ctx context.Context, f ConnHandler) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return f(ctx, c)
}

// Stats reports the current counters of the pgx pool.
func (p *Pool) Stats() model.PoolStats {
	s := p.pool.Stat()
	return model.PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
		Max:      s.MaxConns(),
	}
}

// GORM returns a GORM session which runs its statements on the pgx
// pool connections. Its database/sql handle keeps no idle connections
// of its own, so the ORM users and the lent connections consume the
// same bounded capacity. The session is created on the first
// successful call.
func (p *Pool) GORM(ctx context.Context) (*gorm.DB, error) {
	p.gormMu.Lock()
	defer p.gormMu.Unlock()
	if p.gdb == nil {
		sqlDB := stdlib.OpenDBFromPool(p.pool)
		gdb, err := gorm.Open(
			postgres.New(postgres.Config{Conn: sqlDB}),
			&gorm.Config{Logger: newGORMLogger()},
		)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("gorm.Open: %w", err)
		}
		p.gdb = gdb
	}
	return p.gdb.WithContext(ctx), nil
}

// newGORMLogger routes the GORM warnings, such as slow queries, to
// the default slog logger.
func newGORMLogger() logger.Interface {
	return logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: false,
			Colorful:                  false,
			// Set to false in order to log with replaced vars
			ParameterizedQueries: true,
		},
	)
}

// Close closes the GORM handle (if any) and then the pgx pool.
// It may overlap the GORM calls.
// It waits until all checked out connections are released.
func (p *Pool) Close() error {
	var err error
	p.gormMu.Lock()
	defer p.gormMu.Unlock()
	if p.gdb != nil {
		if db, dbErr := p.gdb.DB(); dbErr == nil {
			err = db.Close()
		} else {
			err = dbErr
		}
	}
	p.gdb = nil
	p.pool.Close()
	if err != nil {
		return fmt.Errorf("closing GORM handle: %w", err)
	}
	return nil
}
