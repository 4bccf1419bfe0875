// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/sheet"
)

const ParseBlocksCfgKey = "parse.blocks"

func ParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [workbook]",
		Short: "Collect the hex tables of the team workbook",
		Long: "Read the hex tables for every QR version from the team workbook and write them as\n" +
			"MSB2LSB tokens. The workbook is given without the .xlsx extension and defaults to\n" +
			"'" + directory.DefaultWorkbook + "'. The block layout can be overridden with the\n" +
			"'" + ParseBlocksCfgKey + "' config key.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}
			blocks, err := loadBlocks(cfg)
			if err != nil {
				return err
			}

			path := directory.WorkbookPath(name)
			if err := parseWorkbook(path, output, blocks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote '%s'\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", directory.ParsedFile, "file the tokens are written to")
	return cmd
}

func loadBlocks(cfg *viper.Viper) ([]sheet.Block, error) {
	if !cfg.IsSet(ParseBlocksCfgKey) {
		return sheet.DefaultBlocks, nil
	}
	var blocks []sheet.Block
	if err := cfg.UnmarshalKey(ParseBlocksCfgKey, &blocks, func(c *mapstructure.DecoderConfig) {
		c.ErrorUnused = true
	}); err != nil {
		return nil, fmt.Errorf("invalid '%s' config: %w", ParseBlocksCfgKey, err)
	}
	return blocks, nil
}

func parseWorkbook(path, output string, blocks []sheet.Block) error {
	parsed, err := sheet.ParseWorkbook(path, blocks)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := sheet.WriteParsed(&buf, parsed); err != nil {
		return err
	}
	return os.WriteFile(output, buf.Bytes(), 0644)
}
