// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/sheet"
)

// userConfig is what 'config show' prints, with defaults filled in.
type userConfig struct {
	Path   string        `yaml:"path" json:"path"`
	Port   string        `yaml:"port" json:"port"`
	Baud   int           `yaml:"baud" json:"baud"`
	Broker BrokerConfig  `yaml:"broker" json:"broker"`
	Blocks []sheet.Block `yaml:"parse_blocks" json:"parse_blocks"`
}

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the qrlcd configuration",
		Long:  "Inspect the qrlcd user configuration. Set " + directory.UserConfigPathEnv + " to use another file.",
	}

	show := &cobra.Command{
		Use:          "show",
		Short:        "Print the effective configuration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			enc, err := newEncoder(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}

			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}
			res := userConfig{
				Path: cfg.ConfigFileUsed(),
				Port: cfg.GetString(PortCfgKey),
				Baud: ConfiguredBaud(),
			}
			if res.Broker, err = loadBrokerConfig(cfg); err != nil {
				return err
			}
			if res.Blocks, err = loadBlocks(cfg); err != nil {
				return err
			}
			return enc.Encode(res)
		},
	}
	show.Flags().StringP("output", "o", "yaml", "output format, one of json or yaml")

	cmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "path",
			Short: "Print the path of the user config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := directory.GetUserConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}
