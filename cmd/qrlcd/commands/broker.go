// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/broker"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
)

const BrokerCfgKey = "broker"

// BrokerConfig is the 'broker' section of the user config.
type BrokerConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	Linger      time.Duration `mapstructure:"linger" yaml:"linger" json:"linger"`
	Sequence    string        `mapstructure:"sequence" yaml:"sequence" json:"sequence"`
	MinFirmware string        `mapstructure:"min_firmware" yaml:"min_firmware" json:"min_firmware"`
}

func loadBrokerConfig(cfg *viper.Viper) (BrokerConfig, error) {
	res := BrokerConfig{
		Interval: broker.DefaultInterval,
		Linger:   broker.DefaultLinger,
	}
	if !cfg.IsSet(BrokerCfgKey) {
		return res, nil
	}
	err := cfg.UnmarshalKey(BrokerCfgKey, &res, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return res, fmt.Errorf("invalid '%s' config: %w", BrokerCfgKey, err)
	}
	return res, nil
}

const banner = `|------------------------------------------------------------------------------|
|                                                                              |
|                                                                              |
|                         Command Broker Client                                |
|                                                                              |
|                                                                              |
|------------------------------------------------------------------------------|
`

// brokerSettings merges the 'broker' config section with the flags that were
// given explicitly.
func brokerSettings(flags *pflag.FlagSet) (BrokerConfig, error) {
	cfg, err := directory.GetUserConfig()
	if err != nil {
		return BrokerConfig{}, err
	}
	res, err := loadBrokerConfig(cfg)
	if err != nil {
		return BrokerConfig{}, err
	}
	if flags.Changed("interval") {
		if res.Interval, err = flags.GetDuration("interval"); err != nil {
			return BrokerConfig{}, err
		}
	}
	if flags.Changed("sequence") {
		if res.Sequence, err = flags.GetString("sequence"); err != nil {
			return BrokerConfig{}, err
		}
	}
	if flags.Changed("min-firmware") {
		if res.MinFirmware, err = flags.GetString("min-firmware"); err != nil {
			return BrokerConfig{}, err
		}
	}
	return res, nil
}

func BrokerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Replay a command sequence to the display board",
		Long: "Send a sequence of command broker requests to the display board and echo everything\n" +
			"it answers. Without --sequence the display boot sequence is sent. The sequence repeats\n" +
			"until interrupted unless --loops is given.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := brokerSettings(cmd.Flags())
			if err != nil {
				return err
			}
			seq := broker.BootSequence()
			if settings.Sequence != "" {
				if seq, err = broker.LoadSequence(settings.Sequence); err != nil {
					return err
				}
			}

			enc, err := parseOutputFlag(cmd)
			if err != nil {
				return err
			}
			if enc != nil {
				return enc.Encode(sequenceList{*seq})
			}

			loops, err := cmd.Flags().GetInt("loops")
			if err != nil {
				return err
			}
			var required *semver.Version
			if settings.MinFirmware != "" {
				if required, err = semver.NewVersion(settings.MinFirmware); err != nil {
					return fmt.Errorf("invalid --min-firmware: %w", err)
				}
			}

			if isTerminal(os.Stdin) {
				fmt.Print(banner)
				fmt.Println()
				fmt.Print("Press Enter to continue...")
				if _, err := ReadLine(); err != nil {
					return err
				}
				fmt.Println()
			}

			dev, err := openPortFlag(cmd.Context(), cmd.Flags())
			if err != nil {
				return err
			}
			defer dev.Close()

			log := GetLogger(cmd.Context())
			client := &broker.Client{
				Port:       dev,
				Sequence:   seq,
				Interval:   settings.Interval,
				Loops:      loops,
				Linger:     settings.Linger,
				Out:        cmd.OutOrStdout(),
				Log:        log,
				Color:      isTerminal(os.Stdout),
				OnResponse: firmwareCheck(log, required),
			}
			return client.Run(cmd.Context())
		},
	}

	cmd.Flags().StringP("port", "p", ConfiguredPort(), "serial port of the display board")
	cmd.Flags().Int("baud", ConfiguredBaud(), "baud rate")
	cmd.Flags().Duration("interval", broker.DefaultInterval, "pause after every request, overrides broker.interval")
	cmd.Flags().Int("loops", 0, "number of times to send the sequence, 0 repeats until interrupted")
	cmd.Flags().String("sequence", "", "YAML file with the sequence to send, overrides broker.sequence")
	cmd.Flags().String("min-firmware", "", "warn when the display reports an older firmware, overrides broker.min_firmware")
	cmd.Flags().BoolP("list", "l", false, "print the sequence instead of sending it")
	cmd.Flags().StringP("output", "o", "short", "--list output format, one of json, yaml or short")
	return cmd
}

// openPortFlag opens the port named by the --port and --baud flags.
func openPortFlag(ctx context.Context, flags *pflag.FlagSet) (*serialPort, error) {
	port, err := flags.GetString("port")
	if err != nil {
		return nil, err
	}
	if port, err = CheckPort(port); err != nil {
		return nil, err
	}
	baud, err := flags.GetInt("baud")
	if err != nil {
		return nil, err
	}

	GetLogger(ctx).WithFields(logrus.Fields{"port": port, "baud": baud}).Info("opening port")
	return serialOpen(port, serialMode(baud))
}

// firmwareCheck warns about get_version answers older than required.
func firmwareCheck(log logrus.FieldLogger, required *semver.Version) func(*broker.Response) {
	return func(resp *broker.Response) {
		if resp.Command != broker.GetVersionID || !resp.OK() {
			return
		}
		major, minor, err := resp.Version()
		if err != nil {
			return
		}
		reported := semver.Version{Major: int64(major), Minor: int64(minor)}
		log.WithField("firmware", reported.String()).Info("display firmware")
		if required != nil && reported.LessThan(*required) {
			log.WithFields(logrus.Fields{
				"firmware": reported.String(),
				"required": required.String(),
			}).Warn("display firmware is older than required")
		}
	}
}

// sequenceList adapts a sequence to the short output format.
type sequenceList struct {
	broker.Sequence `yaml:",inline"`
}

func (s sequenceList) Elements() []Short {
	res := make([]Short, len(s.Steps))
	for i, step := range s.Steps {
		res[i] = step
	}
	return res
}
