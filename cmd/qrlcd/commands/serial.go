// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"os"
	"time"

	"go.bug.st/serial"
)

const (
	defaultBaud = 9600
	readTimeout = time.Second
)

// serialMode is 8N1 without flow control at the given baud rate.
func serialMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// serialOpen opens port with a read timeout, so reads return zero bytes
// instead of blocking forever.
func serialOpen(port string, mode *serial.Mode) (*serialPort, error) {
	dev, err := serial.Open(port, mode)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("the port '%s' was not found", port)
	}
	if err != nil {
		return nil, fmt.Errorf("%s is unavailable: %w", port, err)
	}
	if err := dev.SetReadTimeout(readTimeout); err != nil {
		dev.Close()
		return nil, err
	}

	return &serialPort{dev}, nil
}

type serialPort struct {
	serial.Port
}
