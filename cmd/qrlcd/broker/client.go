// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultLinger   = 2 * time.Second
)

// Port is the serial line to the display. A Read that times out returns
// zero bytes and no error.
type Port interface {
	io.Reader
	io.Writer
}

// Client replays a sequence to the display and echoes what comes back.
type Client struct {
	Port     Port
	Sequence *Sequence
	// Interval is the pause after every request.
	Interval time.Duration
	// Loops is the number of times the sequence is sent. Zero repeats it
	// until the context is cancelled.
	Loops int
	// Linger is how long the receiver keeps running after the last loop.
	Linger time.Duration
	Out    io.Writer
	Log    logrus.FieldLogger
	// Color highlights the frame markers in the echo.
	Color bool
	// OnResponse is called for every frame decoded by the receiver.
	OnResponse func(*Response)

	mu sync.Mutex
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Client) write(s string) {
	if c.Out == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.Out, s)
}

// Run sends the sequence and reads responses until the context is cancelled
// or, with a finite Loops, until Linger has passed after the last request.
func (c *Client) Run(ctx context.Context) error {
	if c.Sequence == nil {
		return fmt.Errorf("no sequence to send")
	}
	requests, err := c.Sequence.Requests()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.transmit(ctx, requests); err != nil {
			return err
		}
		if c.Loops > 0 {
			linger := c.Linger
			if linger <= 0 {
				linger = DefaultLinger
			}
			sleep(ctx, linger)
			cancel()
		}
		return nil
	})
	g.Go(func() error {
		return c.Receive(ctx)
	})
	return g.Wait()
}

func (c *Client) transmit(ctx context.Context, requests []Request) error {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var number byte
	for loop := 0; c.Loops == 0 || loop < c.Loops; loop++ {
		for _, req := range requests {
			if ctx.Err() != nil {
				return nil
			}
			packet := req.Encode(number)
			if _, err := c.Port.Write(packet); err != nil {
				return fmt.Errorf("failed to write %s: %w", req.Command, err)
			}
			c.logger().WithFields(logrus.Fields{
				"pn":    fmt.Sprintf("0x%02X", number),
				"frame": fmt.Sprintf("%q", packet),
			}).Debug("sent request")
			c.write(fmt.Sprintf("%s\n", req))
			number++
			if !sleep(ctx, interval) {
				return nil
			}
		}
	}
	return nil
}

// Receive reads one byte at a time and echoes it until the context is
// cancelled or the port is closed.
func (c *Client) Receive(ctx context.Context) error {
	stx, etx := "<STX>", "<ETX>"
	if c.Color {
		stx = color.GreenString(stx)
		etx = color.GreenString(etx)
	}

	var dec Decoder
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := c.Port.Read(buf)
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

		b := buf[0]
		switch {
		case b == STX:
			c.write("\r\n\n" + stx)
		case b == ETX:
			c.write(etx + "\n")
		case b == NUL:
		case b < 0x20 || b > 0x7E:
			c.write(fmt.Sprintf("<0x%02X>", b))
		default:
			c.write(string(b))
		}

		resp, err := dec.Feed(b)
		if err != nil {
			c.logger().WithError(err).Warn("invalid response")
		}
		if resp != nil {
			c.logger().WithField("response", resp.String()).Debug("received response")
			if c.OnResponse != nil {
				c.OnResponse(resp)
			}
		}
	}
	return nil
}

// sleep waits for d and reports whether the context is still alive.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
