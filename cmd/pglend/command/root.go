// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of the pglend
// program. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db" and
// "config" sub-commands can be used for checking the deployment.
//
//	./pglend [-c /path/of/config.yaml] [--debug]  # start web server
//	./pglend db ping [-c /path/of/config.yaml]
//	./pglend config [-c /path/of/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momeni/pglend/pkg/adapter/config"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/routes"
	"github.com/momeni/pglend/pkg/core/log"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "pglend",
	Short: "Request-scoped PostgreSQL connection lending web server",
	Long: `A web server which lends one pooled PostgreSQL connection to each
in-flight request. In the exclusive lending mode, the connection is
checked out when the request arrives and all handlers of that request
take turns on it, so a request never holds more than one connection.
In the shared lending mode, handlers check out (and release) their
own connections from the pool on demand.
The pool is bounded by the database.max-conns setting, so requests
wait for capacity (up to the lending.acquire-timeout) and are answered
with a 503 status when no connection could be obtained.`,
	RunE: startWebServer,
}

func startWebServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	p, err := c.ConnectionPool(ctx)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn(ctx, "closing DB pool", log.Err("error", err))
		}
	}()
	uc, err := c.NewLendingUseCase(p)
	if err != nil {
		return fmt.Errorf("creating lending use case: %w", err)
	}
	e := c.NewEngine()
	routes.Register(e, uc)

	srv := &http.Server{
		Addr:              c.Gin.Address,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	log.Info(
		ctx, "serving REST API",
		slog.String("address", c.Gin.Address),
		log.Mode("mode", uc.Mode()),
		log.Stats("pool", p.Stats()),
	)
	select {
	case err = <-errs:
		return fmt.Errorf("running HTTP server: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down")
	sctx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx), shutdownTimeout,
	)
	defer cancel()
	if err = srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err = <-errs; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("running HTTP server: %w", err)
	}
	return nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath, setupLogger)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug, "debug", false, "log lease attachments and releases",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}

func setupLogger() {
	if !debug {
		return
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(h))
}
