// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/momeni/pglend/internal/test/dbcontainer"
	"github.com/momeni/pglend/pkg/adapter/db/postgres"
	"github.com/momeni/pglend/pkg/core/repo"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
	"github.com/stretchr/testify/suite"
)

type IntegrationPostgresTestSuite struct {
	suite.Suite

	Ctx  context.Context
	Pg   *sqltestutil.PostgresContainer
	Pool *postgres.Pool
}

func TestIntegrationPostgresTestSuite(t *testing.T) {
	ctx := context.Background()
	pg, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, 2, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	suite.Run(t, &IntegrationPostgresTestSuite{
		Ctx:  ctx,
		Pg:   pg,
		Pool: pool,
	})
}

func (ipts *IntegrationPostgresTestSuite) SetupSuite() {
	err := ipts.Pool.Conn(
		ipts.Ctx, func(ctx context.Context, c repo.Conn) error {
			_, err := c.Exec(
				ctx,
				`CREATE TABLE IF NOT EXISTS notes(id int PRIMARY KEY, body text)`,
			)
			return err
		},
	)
	ipts.Require().NoError(err, "failed to create notes table")
}

func (ipts *IntegrationPostgresTestSuite) TestQueryOnCheckedOutConn() {
	c, err := ipts.Pool.Acquire(ipts.Ctx)
	ipts.Require().NoError(err)
	defer c.Release()
	rows, err := c.Query(ipts.Ctx, `SELECT $1::text`, "hello")
	ipts.Require().NoError(err)
	defer rows.Close()
	ipts.Require().True(rows.Next(), "one row is expected")
	var s string
	ipts.NoError(rows.Scan(&s))
	ipts.Equal("hello", s)
	ipts.False(rows.Next())
	ipts.NoError(rows.Err())
}

func (ipts *IntegrationPostgresTestSuite) TestTxCommitAndRollback() {
	errAbort := errors.New("abort")
	err := ipts.Pool.Conn(
		ipts.Ctx, func(ctx context.Context, c repo.Conn) error {
			err := c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				_, err := tx.Exec(ctx, `INSERT INTO notes VALUES (1, 'kept')`)
				return err
			})
			ipts.Require().NoError(err, "committing tx")
			err = c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				n, err := tx.Exec(ctx, `INSERT INTO notes VALUES (2, 'lost')`)
				ipts.Equal(int64(1), n)
				ipts.NoError(err)
				return errAbort
			})
			ipts.ErrorIs(err, errAbort, "rolling back tx")
			return nil
		},
	)
	ipts.Require().NoError(err)

	db, err := ipts.Pool.GORM(ipts.Ctx)
	ipts.Require().NoError(err)
	var bodies []string
	err = db.Raw(`SELECT body FROM notes ORDER BY id`).Scan(&bodies).Error
	ipts.Require().NoError(err)
	ipts.Equal([]string{"kept"}, bodies)
}

func (ipts *IntegrationPostgresTestSuite) TestLendingRestoresPool() {
	uc, err := lenduc.New(ipts.Pool)
	ipts.Require().NoError(err)
	before := ipts.Pool.Stats()

	ctx, release, err := uc.Lend(ipts.Ctx)
	ipts.Require().NoError(err)
	c, unlock, err := lenduc.Lock(ctx)
	ipts.Require().NoError(err)
	_, err = c.Exec(ctx, `SELECT 1`)
	ipts.NoError(err)
	unlock()
	ipts.Equal(before.Acquired+1, ipts.Pool.Stats().Acquired)
	release()
	ipts.Equal(before.Acquired, ipts.Pool.Stats().Acquired)
}
