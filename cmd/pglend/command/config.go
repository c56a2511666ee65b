// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/momeni/pglend/pkg/adapter/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration settings",
	Long: `Loads the configuration file, applies the environment variables
and default values, and prints the result as YAML. The database
password is redacted.`,
	Args: cobra.NoArgs,
	RunE: printConfig,
}

func printConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	b, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return fmt.Errorf("marshalling configs: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
}
