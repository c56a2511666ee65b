// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lendmw_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gogin "github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/momeni/pglend/internal/test/fakepool"
	"github.com/momeni/pglend/pkg/adapter/restful/gin"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/lendmw"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gogin.SetMode(gogin.TestMode)
	goleak.VerifyTestMain(m)
}

func newEngine(
	t *testing.T, max int32, opts ...lenduc.Option,
) (*fakepool.Pool, *lenduc.UseCase, *gin.Engine) {
	t.Helper()
	p := fakepool.New(max)
	uc, err := lenduc.New(p, opts...)
	require.NoError(t, err, "lenduc.New")
	return p, uc, gin.New(gin.Recovery())
}

func serve(e *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	e.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	res := &struct{ Detail string }{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), res), "body is not json")
	return res.Detail
}

func TestNestedMiddlewareLendsOnce(t *testing.T) {
	p, uc, e := newEngine(t, 2)
	e.Use(lendmw.New(uc))
	g := e.Group("/api", lendmw.New(uc))
	var leases []*lenduc.Lease
	g.GET("/x", func(c *gogin.Context) {
		l, ok := lenduc.FromContext(c.Request.Context())
		require.True(t, ok)
		leases = append(leases, l)
		conn, unlock, err := lendmw.Lock(c)
		require.NoError(t, err)
		defer unlock()
		_, err = conn.Exec(c.Request.Context(), "SELECT 1")
		assert.NoError(t, err)
		c.Status(http.StatusNoContent)
	})

	w := serve(e, http.MethodGet, "/api/x")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int32(1), p.Checkouts(), "one checkout per request")
	assert.Equal(t, int32(0), p.Stats().Acquired, "lease is released")

	serve(e, http.MethodGet, "/api/x")
	require.Len(t, leases, 2)
	assert.NotSame(t, leases[0], leases[1], "leases are per request")
	assert.Equal(t, int32(2), p.Checkouts())
}

func TestHandlerResponsePassesThrough(t *testing.T) {
	_, uc, e := newEngine(t, 1)
	e.Use(lendmw.New(uc))
	e.GET("/teapot", func(c *gogin.Context) {
		c.JSON(http.StatusTeapot, gogin.H{"detail": "short and stout"})
	})
	w := serve(e, http.MethodGet, "/teapot")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", detail(t, w))
}

func TestExhaustedPoolAbortsRequest(t *testing.T) {
	p, uc, e := newEngine(
		t, 1, lenduc.WithAcquireTimeout(20*time.Millisecond),
	)
	e.Use(lendmw.New(uc))
	called := false
	e.GET("/x", func(c *gogin.Context) {
		called = true
	})
	held, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	w := serve(e, http.MethodGet, "/x")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, detail(t, w), "acquiring connection")
	assert.False(t, called, "handler may not run without a connection")
}

func TestAccessorWithoutMiddleware(t *testing.T) {
	_, _, e := newEngine(t, 1)
	e.GET("/x", func(c *gogin.Context) {
		_, unlock, err := lendmw.Lock(c)
		if err == nil {
			unlock()
		}
		c.Status(http.StatusOK)
	})
	w := serve(e, http.MethodGet, "/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPanickingHandlerReleasesLease(t *testing.T) {
	p, uc, e := newEngine(t, 1)
	e.Use(lendmw.New(uc))
	var lent *fakepool.Conn
	e.GET("/x", func(c *gogin.Context) {
		conn, unlock, err := lendmw.Lock(c)
		require.NoError(t, err)
		defer unlock()
		lent = conn.(*fakepool.Conn)
		panic("handler bug")
	})
	w := serve(e, http.MethodGet, "/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int32(0), p.Stats().Acquired)
	require.NotNil(t, lent)
	assert.True(t, lent.Released(), "lent connection must be returned")
}

func TestSharedModeAccessors(t *testing.T) {
	p, uc, e := newEngine(
		t, 2, lenduc.WithMode(model.LendingModeShared),
	)
	e.Use(lendmw.New(uc))
	e.GET("/x", func(c *gogin.Context) {
		c1, err := lendmw.Acquire(c)
		require.NoError(t, err)
		defer c1.Release()
		c2, err := lendmw.Acquire(c)
		require.NoError(t, err)
		defer c2.Release()
		err = lendmw.WithConn(c, func(context.Context, repo.Conn) error {
			return nil
		})
		assert.Error(t, err, "third checkout exceeds the pool")
		c.Status(http.StatusOK)
	})
	// the third checkout would wait forever without a deadline
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx)
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(2), p.Checkouts())
	assert.Equal(t, int32(0), p.Stats().Acquired)
}

func TestWithConnExclusive(t *testing.T) {
	p, uc, e := newEngine(t, 1)
	e.Use(lendmw.New(uc))
	e.GET("/x", func(c *gogin.Context) {
		for i := 0; i < 3; i++ {
			err := lendmw.WithConn(c, func(ctx context.Context, conn repo.Conn) error {
				_, err := conn.Exec(ctx, "SELECT 1")
				return err
			})
			assert.NoError(t, err)
		}
		c.Status(http.StatusOK)
	})
	w := serve(e, http.MethodGet, "/x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), p.Checkouts())
}
