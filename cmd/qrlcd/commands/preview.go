// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/qr"
)

func PreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <tokens> <image>",
		Short: "Render an MSB2LSB table the way the LCD shows it",
		Long: "Render a file of MSB2LSB tokens as a PNG image. Files written by 'qrlcd parse' hold\n" +
			"one table per version; pick one with --version.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := cmd.Flags().GetInt("version")
			if err != nil {
				return err
			}
			scale, err := cmd.Flags().GetInt("scale")
			if err != nil {
				return err
			}
			if scale < 1 {
				return fmt.Errorf("--scale must be at least 1")
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, err := tableMatrix(string(content), version)
			if err != nil {
				return fmt.Errorf("'%s': %w", args[0], err)
			}

			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := qr.WritePreview(f, m, scale, qr.DefaultOptions().Border); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote '%s'\n", args[1])
			return nil
		},
	}
	cmd.Flags().Int("version", 0, "table to render from a parsed file")
	cmd.Flags().Int("scale", 8, "pixels per module")
	return cmd
}

// tableMatrix rebuilds the module matrix from a token file. With a version,
// only the tokens below its "V<n> MATRIX:" header are used.
func tableMatrix(text string, version int) (matrix.Matrix, error) {
	if version != 0 {
		section, err := versionSection(text, version)
		if err != nil {
			return nil, err
		}
		text = section
	}
	values, err := matrix.ParseTokens(text)
	if err != nil {
		return nil, err
	}
	pages, err := matrix.SplitPages(values)
	if err != nil {
		return nil, err
	}
	return matrix.Unpack(pages)
}

func versionSection(text string, version int) (string, error) {
	header := fmt.Sprintf("V%d MATRIX:", version)
	start := strings.Index(text, header)
	if start < 0 {
		return "", fmt.Errorf("no table for V%d", version)
	}
	rest := text[start+len(header):]
	if end := strings.Index(rest, " MATRIX:"); end >= 0 {
		// Cut before the "V<n>" of the next header.
		if nl := strings.LastIndex(rest[:end], "\n"); nl >= 0 {
			end = nl
		}
		rest = rest[:end]
	}
	return rest, nil
}
