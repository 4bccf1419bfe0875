// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/broker"
)

func MonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "monitor",
		Short:        "Echo what the display board sends without sending anything",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openPortFlag(cmd.Context(), cmd.Flags())
			if err != nil {
				return err
			}
			defer dev.Close()

			fmt.Printf("Starting serial monitor of port '%s' ...\n", cmd.Flag("port").Value.String())
			client := &broker.Client{
				Port:  dev,
				Out:   cmd.OutOrStdout(),
				Log:   GetLogger(cmd.Context()),
				Color: isTerminal(os.Stdout),
			}
			return client.Receive(cmd.Context())
		},
	}

	cmd.Flags().StringP("port", "p", ConfiguredPort(), "port to monitor")
	cmd.Flags().Int("baud", ConfiguredBaud(), "baud rate")
	return cmd
}
