// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/logging"
)

type ctxKey string

const (
	ctxKeyInfo ctxKey = "info"
	ctxKeyLog  ctxKey = "log"
)

type Info struct {
	Version string `mapstructure:"version" yaml:"version" json:"version"`
	Date    string `mapstructure:"date" yaml:"date" json:"date"`
}

func SetInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKeyInfo, info)
}

func GetInfo(ctx context.Context) Info {
	info, _ := ctx.Value(ctxKeyInfo).(Info)
	return info
}

// GetLogger returns the logger set up by the root command.
func GetLogger(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(ctxKeyLog).(logrus.FieldLogger); ok {
		return log
	}
	return logrus.StandardLogger()
}

// logFilePath places a bare file name in the log cache directory. Paths with
// a directory are used as given.
func logFilePath(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return name, nil
	}
	dir, err := directory.GetLogCachePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func QrlcdCmd(isReleaseBuild bool) *cobra.Command {
	var logCloser io.Closer

	cmd := &cobra.Command{
		Use:   "qrlcd",
		Short: "QR code and display board tooling",
		Long: "qrlcd generates QR codes at the symbol versions the display can show, turns them into\n" +
			"the MSB2LSB tables the LCD driver is built with, and talks to the display board's command\n" +
			"broker over a serial line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			logFile, err := cmd.Flags().GetString("log-file")
			if err != nil {
				return err
			}
			if logFile, err = logFilePath(logFile); err != nil {
				return err
			}

			var log *logrus.Logger
			log, logCloser = logging.New(logging.Options{
				Verbose: verbose,
				File:    logFile,
			})
			fields := logrus.Fields{"command": cmd.CommandPath()}
			if !isReleaseBuild {
				fields["build"] = "development"
			}
			log.WithFields(fields).Debug("starting")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, ctxKeyLog, logrus.FieldLogger(log)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "print bit strings and debug logging")
	cmd.PersistentFlags().String("log-file", "", "write diagnostic logs to a rotated file, bare names go to the log cache directory")

	cmd.AddCommand(
		GenerateCmd(),
		DecodeCmd(),
		ParseCmd(),
		WatchCmd(),
		PreviewCmd(),
		BrokerCmd(),
		MonitorCmd(),
		SimulateCmd(),
		PortCmd(),
		SetPortCmd(),
		ConfigCmd(),
		VersionCmd(isReleaseBuild),
	)
	return cmd
}
