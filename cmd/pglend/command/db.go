// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/momeni/pglend/pkg/adapter/config"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database connectivity actions",
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connects to the configured database and reports its version",
	Long: `Creates the connections pool using the configuration file, runs
"SELECT version()" through a GORM session which shares that pool, and
prints the DBMS version alongside the pool statistics.`,
	Args: cobra.NoArgs,
	RunE: pingDatabase,
}

func pingDatabase(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	p, err := c.ConnectionPool(ctx)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	gdb, err := p.GORM(ctx)
	if err != nil {
		return fmt.Errorf("opening GORM session: %w", err)
	}
	var version string
	if err = gdb.WithContext(ctx).Raw(
		"SELECT version()",
	).Scan(&version).Error; err != nil {
		return fmt.Errorf("querying DBMS version: %w", err)
	}
	s := p.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, version)
	fmt.Fprintf(
		out, "pool: total=%d idle=%d acquired=%d max=%d available=%d\n",
		s.Total, s.Idle, s.Acquired, s.Max, s.Available(),
	)
	return nil
}

func init() {
	dbCmd.AddCommand(dbPingCmd)
	rootCmd.AddCommand(dbCmd)
}
