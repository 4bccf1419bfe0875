// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package broker

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// maxFrame bounds the characters buffered between STX and ETX.
const maxFrame = 2 * (2 + WriteLineSize + 2)

// Response is a decoded answer from the display.
type Response struct {
	Number  byte
	Command CommandID
	Status  Status
	Data    []byte
	CRC     uint16
}

func (r *Response) OK() bool {
	return r.Status == StatusOK
}

// Version returns the major and minor firmware version of a get_version
// response.
func (r *Response) Version() (major, minor byte, err error) {
	if r.Command != GetVersionID || !r.OK() || len(r.Data) != 2 {
		return 0, 0, fmt.Errorf("not a version response: %s", r)
	}
	return r.Data[0], r.Data[1], nil
}

// Keys returns the key state bits of a read_keys response.
func (r *Response) Keys() (byte, error) {
	if r.Command != ReadKeysID || !r.OK() || len(r.Data) != 1 {
		return 0, fmt.Errorf("not a key response: %s", r)
	}
	return r.Data[0], nil
}

func (r *Response) String() string {
	s := fmt.Sprintf("PN=0x%02X ST=%s ID=%s CRC=0x%04X", r.Number, r.Status, r.Command, r.CRC)
	if len(r.Data) > 0 {
		s += " DATA=" + strings.ToUpper(hex.EncodeToString(r.Data))
	}
	return s
}

func (r *Response) validate() error {
	if !r.Command.Valid() {
		return fmt.Errorf("%w: 0x%02X", ErrCommand, byte(r.Command))
	}
	want := 0
	if r.OK() {
		want = r.Command.ResponseSize()
	}
	if len(r.Data) != want {
		return fmt.Errorf("%w: %s %s response with %d bytes", ErrPayload, r.Command, r.Status, len(r.Data))
	}
	return nil
}

// EncodeResponse frames a response the way the display sends it, including
// the trailing NUL.
func EncodeResponse(number byte, id CommandID, status Status, data []byte) []byte {
	return append(encodeFrame(number, byte(id)|byte(status), data), NUL)
}

// DecodeResponse parses the characters between STX and ETX of a response
// frame.
func DecodeResponse(body []byte) (*Response, error) {
	f, err := parseFrame(body)
	if err != nil {
		return nil, err
	}
	r := &Response{
		Number:  f.number,
		Command: CommandID(f.id & idMask),
		Status:  Status(f.id & statusMask),
		Data:    f.data,
		CRC:     f.crc,
	}
	if f.crc != f.calc {
		return r, fmt.Errorf("%w: received 0x%04X, computed 0x%04X", ErrCRC, f.crc, f.calc)
	}
	return r, r.validate()
}

// Scanner collects frame bodies from a byte stream. Bytes outside of an
// STX..ETX pair are dropped, and an STX inside a frame restarts it.
type Scanner struct {
	buf    []byte
	inside bool
}

// Feed adds one byte and returns the frame body once ETX is seen.
func (s *Scanner) Feed(b byte) ([]byte, error) {
	switch {
	case b == STX:
		s.buf = s.buf[:0]
		s.inside = true
	case !s.inside:
	case b == ETX:
		s.inside = false
		body := make([]byte, len(s.buf))
		copy(body, s.buf)
		return body, nil
	case len(s.buf) >= maxFrame:
		s.inside = false
		return nil, fmt.Errorf("%w: no ETX after %d characters", ErrFrame, len(s.buf))
	default:
		s.buf = append(s.buf, b)
	}
	return nil, nil
}

// Decoder turns a byte stream from the display into responses.
type Decoder struct {
	scanner Scanner
}

// Feed adds one byte. It returns a response once a complete frame has been
// received. A response that fails its CRC or payload check is returned
// together with the error.
func (d *Decoder) Feed(b byte) (*Response, error) {
	body, err := d.scanner.Feed(b)
	if err != nil || body == nil {
		return nil, err
	}
	return DecodeResponse(body)
}
