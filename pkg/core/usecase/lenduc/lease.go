// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lenduc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/pglend/pkg/core/cerr"
	"github.com/momeni/pglend/pkg/core/log"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
	"golang.org/x/sync/semaphore"
)

// leaseKey is the context key of the request lease. No other package
// can construct it, so a lease may only be attached by Lend.
type leaseKey struct{}

// Lease is the lending state of one request. In the exclusive mode,
// it owns one checked out connection (conn) which is guarded by sem,
// a weighted semaphore of size one. In the shared mode, it only keeps
// the pool and counts the independent checkouts which are outstanding.
type Lease struct {
	id   uuid.UUID
	mode model.LendingMode
	pool repo.Pool

	conn  repo.PooledConn
	sem   *semaphore.Weighted
	grace time.Duration

	outstanding atomic.Int32
	released    atomic.Bool
}

// FromContext returns the lease which is attached to ctx, if any.
func FromContext(ctx context.Context) (*Lease, bool) {
	l, ok := ctx.Value(leaseKey{}).(*Lease)
	return l, ok
}

// ID returns the unique identifier of l, used for log correlation.
func (l *Lease) ID() uuid.UUID {
	return l.id
}

// Mode returns the lending mode which l was created with.
func (l *Lease) Mode() model.LendingMode {
	return l.mode
}

// Lock waits until the lent connection of ctx is not used by another
// goroutine and returns it with an unlock function. The wait may be
// cancelled by ctx, returning its error. Unlock must be called when
// the connection is no longer used; extra calls are ignored.
//
// Lock panics with a *cerr.PreconditionViolation if ctx has no lease
// (i.e., the lending middleware is not installed) or if its lease was
// created in the shared mode.
func Lock(ctx context.Context) (repo.Conn, func(), error) {
	return mustLease(ctx, "lenduc.Lock").Lock(ctx)
}

// Acquire checks out a fresh connection from the pool which is lent
// to ctx. Each call is independent of others and the caller must
// release the returned connection. Pool failures are returned as a
// *cerr.AcquisitionError.
//
// Acquire panics with a *cerr.PreconditionViolation if ctx has no
// lease or if its lease was created in the exclusive mode.
func Acquire(ctx context.Context) (repo.PooledConn, error) {
	return mustLease(ctx, "lenduc.Acquire").Acquire(ctx)
}

func mustLease(ctx context.Context, op string) *Lease {
	l, ok := FromContext(ctx)
	if !ok {
		panic(&cerr.PreconditionViolation{
			Op:     op,
			Reason: "no connection is lent; install the lending middleware",
		})
	}
	return l
}

func (l *Lease) mustBe(op string, m model.LendingMode) {
	if l.mode != m {
		panic(&cerr.PreconditionViolation{
			Op:     op,
			Reason: fmt.Sprintf("lease is %s, not %s", l.mode, m),
		})
	}
}

// Lock is like the package-level Lock function, but works on l.
func (l *Lease) Lock(ctx context.Context) (repo.Conn, func(), error) {
	l.mustBe("lenduc.Lock", model.LendingModeExclusive)
	if l.released.Load() {
		return nil, nil, cerr.ErrLeaseReleased
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("waiting for the lent connection: %w", err)
	}
	if l.released.Load() {
		l.sem.Release(1)
		return nil, nil, cerr.ErrLeaseReleased
	}
	var once sync.Once
	unlock := func() {
		once.Do(func() {
			l.sem.Release(1)
		})
	}
	return l.conn, unlock, nil
}

// Acquire is like the package-level Acquire function, but works on l.
func (l *Lease) Acquire(ctx context.Context) (repo.PooledConn, error) {
	l.mustBe("lenduc.Acquire", model.LendingModeShared)
	if l.released.Load() {
		return nil, cerr.ErrLeaseReleased
	}
	c, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, asAcquisitionError(err)
	}
	l.outstanding.Add(1)
	return &trackedConn{PooledConn: c, lease: l}, nil
}

// release returns the exclusive connection to the pool after its
// current holder (if any) unlocks it. Goroutines which are waiting in
// Lock observe the released flag and give up with ErrLeaseReleased.
// A holder which does not unlock within the grace period is abandoned
// and the connection is returned to the pool regardless.
func (l *Lease) release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	ctx := context.Background()
	if l.conn != nil {
		wctx, cancel := context.WithTimeout(ctx, l.grace)
		err := l.sem.Acquire(wctx, 1)
		cancel()
		if err != nil {
			log.Error(
				ctx, "lent connection is not unlocked by its holder",
				slog.String("lease", l.ID().String()),
				slog.Duration("grace", l.grace),
			)
		}
		l.conn.Release()
		if err == nil {
			l.sem.Release(1)
		}
	}
	if n := l.outstanding.Load(); n > 0 {
		log.Warn(
			ctx, "checkouts outlive their request",
			slog.String("lease", l.ID().String()),
			slog.Int("outstanding", int(n)),
		)
	}
	log.Debug(ctx, "lease released", slog.String("lease", l.ID().String()))
}

// trackedConn decrements the outstanding checkouts of its lease
// when it is released.
type trackedConn struct {
	repo.PooledConn
	lease *Lease
	once  sync.Once
}

func (tc *trackedConn) Release() {
	tc.once.Do(func() {
		tc.PooledConn.Release()
		tc.lease.outstanding.Add(-1)
	})
}
