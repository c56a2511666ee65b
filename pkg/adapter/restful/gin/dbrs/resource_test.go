// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dbrs_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gogin "github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/momeni/pglend/internal/test/fakepool"
	"github.com/momeni/pglend/pkg/adapter/restful/gin"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/routes"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
	"github.com/stretchr/testify/suite"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type ResourceTestSuite struct {
	suite.Suite

	Mode model.LendingMode
	Pool *fakepool.Pool
	Gin  *gin.Engine
}

func TestResourceTestSuite(t *testing.T) {
	gogin.SetMode(gogin.TestMode)
	for _, m := range []model.LendingMode{
		model.LendingModeExclusive, model.LendingModeShared,
	} {
		t.Run(m.String(), func(t *testing.T) {
			suite.Run(t, &ResourceTestSuite{Mode: m, Pool: newPool()})
		})
	}
}

func newPool() *fakepool.Pool {
	p := fakepool.New(2)
	p.Query = func(sql string, args []any) ([][]any, error) {
		if sql == `SELECT now()` {
			return [][]any{{fixedNow}}, nil
		}
		return fakepool.EchoArgs(sql, args)
	}
	return p
}

func (rts *ResourceTestSuite) SetupSuite() {
	uc, err := lenduc.New(rts.Pool, lenduc.WithMode(rts.Mode))
	rts.Require().NoError(err, "lenduc.New")
	rts.Gin = gin.New(gin.Recovery())
	routes.Register(rts.Gin, uc)
}

func (rts *ResourceTestSuite) TearDownTest() {
	rts.Equal(int32(0), rts.Pool.Stats().Acquired, "leaked connections")
}

func (rts *ResourceTestSuite) send(
	method, path string, body io.Reader, res any,
) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, routes.Prefix+path, body)
	rts.Require().NoError(err, "cannot create request")
	if body != nil {
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	}
	rts.Gin.ServeHTTP(w, req)
	rts.NoError(json.Unmarshal(w.Body.Bytes(), res), "body is not json")
	return w
}

func (rts *ResourceTestSuite) TestNow() {
	res := &struct{ Now time.Time }{}
	w := rts.send(http.MethodGet, "/now", nil, res)
	rts.Equal(http.StatusOK, w.Code)
	rts.True(fixedNow.Equal(res.Now), "got %v", res.Now)
}

func (rts *ResourceTestSuite) TestEcho() {
	res := &struct{ Text string }{}
	body := strings.NewReader(url.Values{"text": {"hello"}}.Encode())
	w := rts.send(http.MethodPost, "/echo", body, res)
	rts.Equal(http.StatusOK, w.Code)
	rts.Equal("hello", res.Text)
}

func (rts *ResourceTestSuite) TestEchoBadRequest() {
	for _, tc := range []struct {
		name string
		text string
		tag  string
	}{
		{name: "missing text", text: "", tag: "'required' tag"},
		{name: "long text", text: strings.Repeat("x", 257), tag: "'max' tag"},
	} {
		rts.Run(tc.name, func() {
			res := &struct{ Text []string }{}
			form := url.Values{}
			if tc.text != "" {
				form.Set("text", tc.text)
			}
			body := strings.NewReader(form.Encode())
			w := rts.send(http.MethodPost, "/echo", body, res)
			rts.Equal(http.StatusBadRequest, w.Code)
			if rts.Len(res.Text, 1) {
				rts.Contains(res.Text[0], tc.tag)
			}
		})
	}
}

func (rts *ResourceTestSuite) TestPoolStats() {
	res := &model.PoolStats{}
	w := rts.send(http.MethodGet, "/pool", nil, res)
	rts.Equal(http.StatusOK, w.Code)
	rts.Equal(int32(2), res.Max)
	if rts.Mode == model.LendingModeShared {
		rts.Equal(int32(0), res.Acquired, "shared lending checks out lazily")
	} else {
		rts.Equal(int32(1), res.Acquired, "request connection is lent")
	}
}
