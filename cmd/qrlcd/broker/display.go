// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Display answers requests the way the display board does. It is used to
// exercise the client without hardware.
//
// Once the packet number and a known command id have been read every
// failure is answered with an error status, including bad hex in the rest of
// the frame. Unknown ids get no answer. write_line is not range checked by
// the board, so a line past the last one is acknowledged and dropped.
type Display struct {
	Major, Minor byte
	Keys         byte

	Log logrus.FieldLogger

	mu        sync.Mutex
	lines     [lineMax]string
	backlight bool
	led       bool
	language  byte
	frequency byte
	dutyCycle byte
	buzzer    byte
}

// DisplayState is a snapshot of what the display shows.
type DisplayState struct {
	Lines     []string `yaml:"lines" json:"lines"`
	Backlight bool     `yaml:"backlight" json:"backlight"`
	LED       bool     `yaml:"led" json:"led"`
	Language  byte     `yaml:"language" json:"language"`
	Frequency byte     `yaml:"frequency" json:"frequency"`
	DutyCycle byte     `yaml:"duty_cycle" json:"duty_cycle"`
	Buzzer    byte     `yaml:"buzzer" json:"buzzer"`
}

func (d *Display) State() DisplayState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DisplayState{
		Lines:     append([]string(nil), d.lines[:]...),
		Backlight: d.backlight,
		LED:       d.led,
		Language:  d.language,
		Frequency: d.frequency,
		DutyCycle: d.dutyCycle,
		Buzzer:    d.buzzer,
	}
}

func (d *Display) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// Handle processes the body of one request frame and returns the response
// frame, or nil when the display stays silent because the command id is not
// known or the frame could not be read.
func (d *Display) Handle(body []byte) []byte {
	number, req, err := DecodeRequest(body)
	if err != nil {
		if !req.Command.Valid() {
			d.logger().WithError(err).Debug("dropped request")
			return nil
		}
		d.logger().WithError(err).WithField("pn", number).Warn("rejected request")
		return EncodeResponse(number, req.Command, StatusError, nil)
	}
	return EncodeResponse(number, req.Command, StatusOK, d.apply(req))
}

func (d *Display) apply(req Request) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	data := req.Data
	switch req.Command {
	case ReadKeysID:
		d.led = data[0] == 1
		return []byte{d.Keys}
	case WriteLineID:
		if data[0] < lineMax {
			d.lines[data[0]] = strings.TrimRight(string(data[1:]), " ")
		}
	case SetBacklightID:
		d.backlight = data[0] == 1
	case ClearID:
		d.lines = [lineMax]string{}
	case SetLanguageID:
		d.language = data[0]
	case GetVersionID:
		return []byte{d.Major, d.Minor}
	case BuzzerParamID:
		if data[0] == BuzzerFrequency {
			d.frequency = data[1]
		} else {
			d.dutyCycle = data[1]
		}
		return []byte{data[0], data[1]}
	case BuzzerCtrlID:
		d.buzzer = data[0] & buzzerActionMask
	}
	return nil
}

// Serve reads requests from port and writes the responses back until the
// context is cancelled or the port is closed.
func (d *Display) Serve(ctx context.Context, port Port) error {
	var scanner Scanner
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := port.Read(buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read from port: %w", err)
		}
		if n == 0 {
			continue
		}
		body, err := scanner.Feed(buf[0])
		if err != nil {
			d.logger().WithError(err).Debug("dropped frame")
			continue
		}
		if body == nil {
			continue
		}
		if resp := d.Handle(body); resp != nil {
			if _, err := port.Write(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
	return nil
}
