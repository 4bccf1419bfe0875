// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/spf13/cobra"
)

func VersionCmd(isReleaseBuild bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "version",
		Short:        "Print the version of qrlcd",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := GetInfo(cmd.Context())
			out := cmd.OutOrStdout()
			if !isReleaseBuild {
				fmt.Fprintf(out, "Version:\t%s\n", info.Version)
				fmt.Fprintf(out, "Build date:\t%s\n", info.Date)
				fmt.Fprintln(out, "Build type:\tdevelopment")
				return nil
			}

			v, err := semver.NewVersion(strings.TrimPrefix(info.Version, "v"))
			if err != nil {
				return fmt.Errorf("invalid release version '%s': %w", info.Version, err)
			}
			fmt.Fprintf(out, "Version:\tv%s\n", v)
			fmt.Fprintf(out, "Build date:\t%s\n", info.Date)
			return nil
		},
	}
	return cmd
}
