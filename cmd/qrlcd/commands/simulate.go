// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/broker"
)

func SimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Answer command broker requests like the display board",
		Long: "Act as the display board on a serial port, so 'qrlcd broker' can be tried with two\n" +
			"connected USB to UART adapters or a virtual null modem. The display state is printed\n" +
			"when the simulator is stopped.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			major, err := cmd.Flags().GetUint8("major")
			if err != nil {
				return err
			}
			minor, err := cmd.Flags().GetUint8("minor")
			if err != nil {
				return err
			}
			keys, err := cmd.Flags().GetUint8("keys")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			enc, err := newEncoder(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}

			dev, err := openPortFlag(cmd.Context(), cmd.Flags())
			if err != nil {
				return err
			}
			defer dev.Close()

			display := &broker.Display{
				Major: major,
				Minor: minor,
				Keys:  keys,
				Log:   GetLogger(cmd.Context()),
			}
			fmt.Printf("Simulating display firmware %d.%d on '%s' ...\n", major, minor, cmd.Flag("port").Value.String())
			if err := display.Serve(cmd.Context(), dev); err != nil {
				return err
			}
			return enc.Encode(displayState{display.State()})
		},
	}

	cmd.Flags().StringP("port", "p", ConfiguredPort(), "serial port to answer on")
	cmd.Flags().Int("baud", ConfiguredBaud(), "baud rate")
	cmd.Flags().Uint8("major", 1, "firmware major version to report")
	cmd.Flags().Uint8("minor", 0, "firmware minor version to report")
	cmd.Flags().Uint8("keys", 0, "key bits to report to read_keys")
	cmd.Flags().StringP("output", "o", "yaml", "state output format, one of json, yaml or short")
	return cmd
}

type displayState struct {
	broker.DisplayState `yaml:",inline"`
}

type lineShort struct {
	index int
	text  string
}

func (l lineShort) Short() string {
	return fmt.Sprintf("line %d: %s", l.index+1, l.text)
}

func (s displayState) Elements() []Short {
	res := make([]Short, len(s.Lines))
	for i, line := range s.Lines {
		res[i] = lineShort{i, line}
	}
	return res
}
