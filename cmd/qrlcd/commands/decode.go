// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/qr"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/sheet"
)

func DecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <image>",
		Short: "Decode a QR image and print its LCD table",
		Long: "Decode a QR image and print its payload, version and MSB2LSB table. With --from-xlsx\n" +
			"the argument is a workbook written by 'qrlcd generate' and only the table is printed.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			xlsx, err := cmd.Flags().GetString("xlsx")
			if err != nil {
				return err
			}
			show, err := cmd.Flags().GetBool("show")
			if err != nil {
				return err
			}
			fromXlsx, err := cmd.Flags().GetBool("from-xlsx")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var m matrix.Matrix
			if fromXlsx {
				if m, err = sheet.Import(args[0]); err != nil {
					return err
				}
			} else {
				res, err := qr.Decode(args[0])
				if err != nil {
					return err
				}
				m = res.DisplayMatrix()
				fmt.Fprintf(out, "Decoded:\t%s\n", res.Text)
				fmt.Fprintf(out, "Version:\t%d (%dx%d modules)\n", res.Version, m.Rows(), m.Cols())
			}
			if show {
				fmt.Fprint(out, m.String())
			}

			pages, err := m.Pack()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, matrix.FormatTokens(pages))

			if xlsx != "" {
				if err := sheet.Export(xlsx, m); err != nil {
					return err
				}
				GetLogger(cmd.Context()).WithField("path", xlsx).Info("exported matrix")
			}
			return nil
		},
	}
	cmd.Flags().String("xlsx", "", "export the module matrix to this workbook")
	cmd.Flags().Bool("show", false, "draw the module matrix")
	cmd.Flags().Bool("from-xlsx", false, "read the module matrix from a workbook instead of an image")
	return cmd
}
