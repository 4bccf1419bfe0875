// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package logging sets up the diagnostic logger. User facing output does not
// go through it.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Verbose bool
	// File, if set, receives the log instead of stderr and is rotated.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger configured from opts. The closer must be called when
// the logger is no longer used.
func New(opts Options) (*logrus.Logger, io.Closer) {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
		return log, nopCloser{}
	}

	rotated := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(rotated)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	return log, rotated
}
