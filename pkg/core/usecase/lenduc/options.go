// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lenduc

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/pglend/pkg/core/model"
)

// Option is a functional option for the lending use case.
type Option func(uc *UseCase) error

// WithMode option selects the lending policy. When it is not given,
// the model.LendingModeExclusive mode will be used.
func WithMode(m model.LendingMode) Option {
	return func(uc *UseCase) error {
		if err := m.Validate(); err != nil {
			return err
		}
		if uc.mode != model.LendingModeInvalid {
			return errors.New("lending mode is already configured")
		}
		uc.mode = m
		return nil
	}
}

// WithAcquireTimeout option bounds the time which the lending
// middleware may wait for a connection while the pool is exhausted.
// It only affects the checkout of the exclusive mode which happens
// before the request handlers run. Without this option, the checkout
// waits as long as the request context is alive.
func WithAcquireTimeout(timeout time.Duration) Option {
	return func(uc *UseCase) error {
		if t := int64(timeout); t <= 0 {
			return fmt.Errorf("acquire timeout (%d) is not positive", t)
		}
		if uc.acquireTimeout != 0 {
			return errors.New("acquire timeout is already configured")
		}
		uc.acquireTimeout = timeout
		return nil
	}
}

// WithReleaseGrace option bounds the time which the release of an
// exclusive lease waits for a handler which still holds the lent
// connection (i.e., it has not called its unlock function). After
// that, the connection is returned to the pool anyway and the missing
// unlock is logged as an error. DefaultReleaseGrace is used without
// this option.
func WithReleaseGrace(grace time.Duration) Option {
	return func(uc *UseCase) error {
		if g := int64(grace); g <= 0 {
			return fmt.Errorf("release grace (%d) is not positive", g)
		}
		if uc.releaseGrace != 0 {
			return errors.New("release grace is already configured")
		}
		uc.releaseGrace = grace
		return nil
	}
}
