// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbrs realizes the database resource which runs small
// queries on the connection which is lent to each request. It shows
// how the handlers may use the lent connection and lets operators
// check the pool state.
package dbrs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/lendmw"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/pglend/pkg/core/cerr"
	"github.com/momeni/pglend/pkg/core/repo"
)

type resource struct {
	pool repo.Pool
}

// Register instantiates a resource with the p pool and registers its
// REST APIs including:
//  1. GET request to now, reporting the DBMS server time,
//  2. POST request to echo, round-tripping the text form field,
//  3. GET request to pool, reporting the pool counters.
//
// The r group must be protected by the lending middleware.
func Register(r *gin.RouterGroup, p repo.Pool) {
	rs := &resource{pool: p}
	r.GET("now", rs.Now)
	r.POST("echo", rs.Echo)
	r.GET("pool", rs.PoolStats)
}

func (rs *resource) Now(c *gin.Context) {
	var now time.Time
	err := lendmw.WithConn(c, func(ctx context.Context, conn repo.Conn) error {
		return queryOne(ctx, conn, `SELECT now()`, nil, &now)
	})
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"now": now})
}

type echoReq struct {
	Text string `form:"text" binding:"required,max=256"`
}

func (rs *resource) Echo(c *gin.Context) {
	req := &echoReq{}
	if !serdser.Bind(c, req, binding.Form) {
		return
	}
	var text string
	err := lendmw.WithConn(c, func(ctx context.Context, conn repo.Conn) error {
		return queryOne(ctx, conn, `SELECT $1::text`, []any{req.Text}, &text)
	})
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// PoolStats reports the pool counters. The connection of the current
// request is included in the acquired count if the exclusive lending
// mode is used.
func (rs *resource) PoolStats(c *gin.Context) {
	c.JSON(http.StatusOK, rs.pool.Stats())
}

var errNoRows = errors.New("expected one row, but got 0")

func queryOne(
	ctx context.Context, q repo.Queryer, sql string, args []any,
	dest ...any,
) error {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return err
		}
		return cerr.NotFound(errNoRows)
	}
	if err = rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}
