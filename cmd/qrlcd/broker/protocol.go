// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package broker speaks the display board's command broker protocol over a
// serial line.
//
// A request is framed as
//
//	STX | packet number | command id | payload | CRC16 | ETX
//
// where every field between the frame bytes is sent as uppercase ASCII hex,
// two characters per byte. The CRC16/ARC is computed over those ASCII
// characters, from the packet number through the payload. A response uses the
// same layout, carries status bits in the top two bits of the command id and
// is followed by a NUL byte.
package broker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sigurn/crc16"
)

const (
	STX = 0x02
	ETX = 0x03
	NUL = 0x00
)

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

var (
	ErrCRC     = errors.New("crc mismatch")
	ErrPayload = errors.New("unexpected payload data")
	ErrFrame   = errors.New("malformed frame")
	ErrCommand = errors.New("unknown command id")
)

// CommandID identifies a broker command. The top two bits are reserved for
// status flags in responses.
type CommandID byte

const (
	ReadKeysID CommandID = iota + 1
	WriteLineID
	SetBacklightID
	ClearID
	SetLanguageID
	GetVersionID
	BuzzerParamID
	BuzzerCtrlID
	commandIDMax
)

const (
	statusMask = 0xC0
	idMask     = 0x3F
)

// Status is the pair of flag bits the display adds to a response's command id.
type Status byte

const (
	StatusNone  Status = 0x00
	StatusOK    Status = 0x40
	StatusError Status = 0x80
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERR"
	case StatusNone:
		return "-"
	default:
		return fmt.Sprintf("0x%02X", byte(s))
	}
}

type commandInfo struct {
	name     string
	request  int
	response int
}

var commands = map[CommandID]commandInfo{
	ReadKeysID:     {name: "read_keys", request: 1, response: 1},
	WriteLineID:    {name: "write_line", request: WriteLineSize, response: 0},
	SetBacklightID: {name: "set_backlight", request: 1, response: 0},
	ClearID:        {name: "clear", request: 0, response: 0},
	SetLanguageID:  {name: "set_language", request: 1, response: 0},
	GetVersionID:   {name: "get_version", request: 0, response: 2},
	BuzzerParamID:  {name: "buzzer_param", request: 2, response: 2},
	BuzzerCtrlID:   {name: "buzzer_ctrl", request: 3, response: 0},
}

func (id CommandID) Valid() bool {
	_, ok := commands[id]
	return ok
}

func (id CommandID) String() string {
	if info, ok := commands[id]; ok {
		return strings.ToUpper(info.name)
	}
	return fmt.Sprintf("0x%02X", byte(id))
}

// Name is the lower case name used in sequence files.
func (id CommandID) Name() string {
	return commands[id].name
}

// RequestSize is the number of payload bytes a request carries.
func (id CommandID) RequestSize() int {
	return commands[id].request
}

// ResponseSize is the number of payload bytes of a successful response.
func (id CommandID) ResponseSize() int {
	return commands[id].response
}

// ParseCommandID accepts names like "write_line" or "WRITE_LINE".
func ParseCommandID(name string) (CommandID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for id, info := range commands {
		if info.name == n {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrCommand, name)
}

// Checksum computes the CRC16/ARC of the ASCII hex body of a frame.
func Checksum(body []byte) uint16 {
	return crc16.Checksum(body, crcTable)
}

const hexDigits = "0123456789ABCDEF"

func appendHex(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
}

func appendHex16(dst []byte, v uint16) []byte {
	return appendHex(appendHex(dst, byte(v>>8)), byte(v))
}

// nibble converts an uppercase ASCII hex digit. Lower case digits are
// rejected, like the display does.
func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func decodeHex(src []byte) ([]byte, error) {
	if len(src)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits", ErrFrame)
	}
	res := make([]byte, len(src)/2)
	for i := range res {
		hi, ok1 := nibble(src[2*i])
		lo, ok2 := nibble(src[2*i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: invalid hex digits '%s'", ErrFrame, src[2*i:2*i+2])
		}
		res[i] = hi<<4 | lo
	}
	return res, nil
}

// encodeFrame builds STX | hex(number, id, data) | hex(crc) | ETX.
func encodeFrame(number byte, id byte, data []byte) []byte {
	body := make([]byte, 0, 4+2*len(data))
	body = appendHex(body, number)
	body = appendHex(body, id)
	for _, b := range data {
		body = appendHex(body, b)
	}

	frame := make([]byte, 0, len(body)+6)
	frame = append(frame, STX)
	frame = append(frame, body...)
	frame = appendHex16(frame, Checksum(body))
	frame = append(frame, ETX)
	return frame
}

// frame is the decoded content of the characters between STX and ETX.
type frame struct {
	number byte
	id     byte
	data   []byte
	crc    uint16
	calc   uint16
}

func parseFrame(body []byte) (*frame, error) {
	// Packet number, command id and CRC are always present.
	if len(body) < 8 {
		return nil, fmt.Errorf("%w: %d characters", ErrFrame, len(body))
	}
	raw, err := decodeHex(body)
	if err != nil {
		return nil, err
	}
	n := len(raw)
	f := &frame{
		number: raw[0],
		id:     raw[1],
		data:   raw[2 : n-2],
		crc:    uint16(raw[n-2])<<8 | uint16(raw[n-1]),
		calc:   Checksum(body[:len(body)-4]),
	}
	return f, nil
}
