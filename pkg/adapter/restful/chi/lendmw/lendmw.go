// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lendmw provides the lending middleware for the net/http
// compatible routers, such as chi. It has the same semantics as the
// gin-gonic lending middleware; handlers obtain the lent connection
// from their request context using the lenduc.Lock or lenduc.Acquire
// functions. Precondition violations are panics which are expected to
// be converted to 500 responses by middleware.Recoverer.
package lendmw

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
)

// Middleware returns a middleware which lends a connection of the uc
// use case to each request. Requests which cannot obtain a connection
// are answered with the 503 status and a JSON "detail" field.
func Middleware(uc *lenduc.UseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, release, err := uc.Lend(r.Context())
			if err != nil {
				writeErr(w, err)
				return
			}
			defer release()
			if ctx != r.Context() {
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusCoder interface {
	HTTPStatusCode() int
}

func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var sc statusCoder
	if errors.As(err, &sc) {
		code = sc.HTTPStatusCode()
	}
	b, mErr := json.Marshal(map[string]string{"detail": err.Error()})
	if mErr != nil {
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
