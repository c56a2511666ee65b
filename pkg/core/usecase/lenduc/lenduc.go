// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lenduc contains the lending UseCase which attaches a database
// connection lease to the context of an in-flight request. Two lending
// modes are supported:
//  1. Exclusive: one connection is checked out when the request is
//     attached and all handlers of that request share it through the
//     Lock function, one at a time,
//  2. Shared: the pool itself is lent and each Acquire call performs
//     an independent checkout which its caller must release.
//
// The lease is stored in the context using an unexported key type, so
// only this package may populate it and it is populated at most once
// per request, no matter how many times the lending middleware runs.
// The lease is released by the function which is returned by Lend
// when the request handling finishes.
package lenduc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/pglend/pkg/core/cerr"
	"github.com/momeni/pglend/pkg/core/log"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
	"golang.org/x/sync/semaphore"
)

// UseCase represents the lending use case. It holds the shared pool
// and the lending policy. A single UseCase is shared by all requests.
type UseCase struct {
	pool repo.Pool

	mode           model.LendingMode
	acquireTimeout time.Duration
	releaseGrace   time.Duration
}

// DefaultReleaseGrace is the time which a finished request waits for
// the holder of its lent connection to unlock it, unless the
// WithReleaseGrace option is given.
const DefaultReleaseGrace = 5 * time.Second

// New instantiates a lending use case for the p connections pool.
// Optional parameters are passed as a series of functional options.
func New(p repo.Pool, opts ...Option) (*UseCase, error) {
	if p == nil {
		return nil, errors.New("connections pool is nil")
	}
	uc := &UseCase{pool: p}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.mode == model.LendingModeInvalid {
		uc.mode = model.LendingModeExclusive
	}
	if uc.releaseGrace == 0 {
		uc.releaseGrace = DefaultReleaseGrace
	}
	return uc, nil
}

// Mode returns the lending mode of uc.
func (uc *UseCase) Mode() model.LendingMode {
	return uc.mode
}

// Pool returns the connections pool which uc lends from.
func (uc *UseCase) Pool() repo.Pool {
	return uc.pool
}

// Lend attaches a lease to ctx and returns the derived context and
// a function which releases the lease. The release function must be
// called once the request handling is finished (usually deferred by
// the middleware) and may be called more than once.
//
// If ctx already carries a lease, ctx itself is returned with a no-op
// release function, so the outer attachment stays the owner of the
// lease. In the exclusive mode, one connection is checked out
// immediately and its failure is returned as a *cerr.AcquisitionError
// without any retries. In that case, no lease is attached and the
// request should be aborted.
func (uc *UseCase) Lend(ctx context.Context) (
	context.Context, func(), error,
) {
	if l, ok := FromContext(ctx); ok {
		log.Debug(
			ctx, "lease is already attached",
			slog.String("lease", l.ID().String()),
		)
		return ctx, func() {}, nil
	}
	l := &Lease{id: uuid.New(), mode: uc.mode, pool: uc.pool}
	if uc.mode == model.LendingModeExclusive {
		c, err := uc.checkout(ctx)
		if err != nil {
			log.Warn(
				ctx, "cannot lend a connection",
				log.Err("error", err),
				log.Stats("pool", uc.pool.Stats()),
			)
			return ctx, nil, err
		}
		l.conn = c
		l.sem = semaphore.NewWeighted(1)
		l.grace = uc.releaseGrace
	}
	log.Debug(
		ctx, "lease attached",
		slog.String("lease", l.ID().String()),
		log.Mode("mode", l.mode),
	)
	return context.WithValue(ctx, leaseKey{}, l), l.release, nil
}

func (uc *UseCase) checkout(ctx context.Context) (repo.PooledConn, error) {
	if uc.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.acquireTimeout)
		defer cancel()
	}
	c, err := uc.pool.Acquire(ctx)
	if err != nil {
		return nil, asAcquisitionError(err)
	}
	return c, nil
}

func asAcquisitionError(err error) error {
	var ae *cerr.AcquisitionError
	if errors.As(err, &ae) {
		return err
	}
	return &cerr.AcquisitionError{Err: err}
}
