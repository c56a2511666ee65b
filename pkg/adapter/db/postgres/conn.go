// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/momeni/pglend/pkg/core/repo"
)

// Conn is a connection which is checked out from a Pool. It must be
// returned to the pool by calling Release.
type Conn struct {
	conn *pgxpool.Conn
	once sync.Once
}

type TxHandler = repo.TxHandler

func (c *Conn) Tx(ctx context.Context, f TxHandler) (err error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// tx must end even if ctx is cancelled by now
	finCtx := context.WithoutCancel(ctx)
	defer func() {
		if r := recover(); r != nil {
			err = tx.Rollback(finCtx)
			if err == nil {
				err = fmt.Errorf("panicked: %v", r)
				return
			}
			err = fmt.Errorf("panicked: %v, rollback: %w", r, err)
			return
		}
		if err != nil {
			if err2 := tx.Rollback(finCtx); err2 != nil {
				err = fmt.Errorf("handler: %w, rollback: %w", err, err2)
				return
			}
			err = fmt.Errorf("handler: %w", err)
			return
		}
		err = tx.Commit(finCtx)
		if err != nil {
			err = fmt.Errorf("commit: %w", err)
		}
	}()
	tt := &Tx{tx: tx}
	return f(ctx, tt)
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(ctx, c.conn, sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	return query(ctx, c.conn, sql, args...)
}

func (c *Conn) IsConn() {
}

// Release returns c to its pool. Extra calls are ignored.
func (c *Conn) Release() {
	c.once.Do(c.conn.Release)
}
