// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the pglend command to instantiate
// the pool holder, the gin-gonic engine, and the lending use case
// using those loaded configuration settings.
// The parsed and validated configurations are passed to their ultimate
// components as individual params (for the mandatory items) and
// functional options (for the optional items).
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/momeni/pglend/pkg/adapter/config/settings"
	"github.com/momeni/pglend/pkg/adapter/db/postgres"
	"github.com/momeni/pglend/pkg/adapter/restful/gin"
	"github.com/momeni/pglend/pkg/core/model"
	"github.com/momeni/pglend/pkg/core/repo"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
	"gopkg.in/yaml.v3"
)

// DatabaseURLEnv names the environment variable which overrides the
// database.url setting when it is not empty.
const DatabaseURLEnv = "DATABASE_URL"

// DefaultAddress is the listening address of the REST API server when
// the gin.address setting is missing.
const DefaultAddress = ":8080"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config contains all settings of the pglend command.
// Optional fields are defined as pointers, so it is possible to detect
// if they are or are not initialized.
type Config struct {
	Database Database `yaml:"database"`
	Gin      Gin      `yaml:"gin"`
	Lending  Lending  `yaml:"lending"`
}

// Database contains the PostgreSQL connection pool settings.
type Database struct {
	// URL is a libpq style connection URI (or key=value DSN) which
	// may carry the pool_* parameters of the pgxpool package too.
	URL string `yaml:"url" validate:"required"`

	// MaxConns bounds the pool size, overriding the pool_max_conns
	// parameter of URL when it is not nil.
	MaxConns *int32 `yaml:"max-conns,omitempty" validate:"omitempty,min=1"`
}

// Gin contains the gin-gonic related configuration settings.
type Gin struct {
	Logger   *bool  `yaml:"logger"`   // Whether to register gin.Logger()
	Recovery *bool  `yaml:"recovery"` // Whether to register the recovery
	Address  string `yaml:"address" validate:"omitempty,hostname_port"`
}

// Lending contains the lending use case settings.
type Lending struct {
	Mode string `yaml:"mode" validate:"omitempty,oneof=exclusive shared"`

	// AcquireTimeout bounds the checkout which is performed when
	// a request is attached in the exclusive mode. Requests wait as
	// long as their own context allows when it is nil.
	AcquireTimeout *settings.Duration `yaml:"acquire-timeout,omitempty" validate:"omitempty,gt=0"`

	// ReleaseGrace bounds the wait of a finished request for a handler
	// which has not unlocked its lent connection yet. The default of
	// the lenduc package is used when it is nil.
	ReleaseGrace *settings.Duration `yaml:"release-grace,omitempty" validate:"omitempty,gt=0"`

	// MinAcquireTimeout and MaxAcquireTimeout optionally bound the
	// AcquireTimeout value.
	MinAcquireTimeout *settings.Duration `yaml:"acquire-timeout-minimum,omitempty" validate:"omitempty,gt=0"`
	MaxAcquireTimeout *settings.Duration `yaml:"acquire-timeout-maximum,omitempty" validate:"omitempty,gt=0"`
}

// Load reads, parses, validates, and normalizes the configuration file
// which is located at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return c, nil
}

// Parse unmarshals the data byte slice as a Config instance. Extra
// items in the data are ignored and missing items take their default
// values. The non-empty DATABASE_URL environment variable overrides
// the database.url setting. Thereafter, the Config is validated and
// normalized by the ValidateAndNormalize method.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if u := os.Getenv(DatabaseURLEnv); u != "" {
		c.Database.URL = u
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It also replaces the
// missing settings with their default values.
func (c *Config) ValidateAndNormalize() error {
	settings.Default(&c.Gin.Logger, true)
	settings.Default(&c.Gin.Recovery, true)
	if c.Gin.Address == "" {
		c.Gin.Address = DefaultAddress
	}
	if c.Lending.Mode == "" {
		c.Lending.Mode = model.LendingModeExclusive.String()
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating fields: %w", err)
	}
	if err := settings.VerifyRange(
		c.Lending.AcquireTimeout,
		c.Lending.MinAcquireTimeout,
		c.Lending.MaxAcquireTimeout,
	); err != nil {
		return fmt.Errorf(
			"VerifyRange(acquire timeout=%v, minb=%v, maxb=%v): %w",
			err.Value,
			c.Lending.MinAcquireTimeout,
			c.Lending.MaxAcquireTimeout,
			err,
		)
	}
	return nil
}

// Redacted returns a copy of c which its database URL password is
// replaced by "xxxxx", so it may be printed or logged.
func (c *Config) Redacted() *Config {
	cc := *c
	if u, err := url.Parse(c.Database.URL); err == nil && u.User != nil {
		cc.Database.URL = u.Redacted()
	}
	return &cc
}

// ConnectionPool creates the database connection pool holder using
// the connection settings which are kept in `c`.
func (c *Config) ConnectionPool(
	ctx context.Context, opts ...postgres.PoolOption,
) (*postgres.Pool, error) {
	if c.Database.MaxConns != nil {
		opts = append(opts, postgres.WithMaxConns(*c.Database.MaxConns))
	}
	p, err := postgres.NewPool(ctx, c.Database.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("postgres.NewPool: %w", err)
	}
	return p, nil
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the gin settings.
func (c *Config) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *c.Gin.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if *c.Gin.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}

// NewLendingUseCase instantiates the lending use case for the p pool
// based on the lending settings.
func (c *Config) NewLendingUseCase(p repo.Pool) (*lenduc.UseCase, error) {
	m, err := model.ParseLendingMode(c.Lending.Mode)
	if err != nil {
		return nil, fmt.Errorf("parsing lending mode: %w", err)
	}
	opts := []lenduc.Option{lenduc.WithMode(m)}
	if d := c.Lending.AcquireTimeout; d != nil {
		opts = append(opts, lenduc.WithAcquireTimeout(time.Duration(*d)))
	}
	if g := c.Lending.ReleaseGrace; g != nil {
		opts = append(opts, lenduc.WithReleaseGrace(time.Duration(*g)))
	}
	return lenduc.New(p, opts...)
}
