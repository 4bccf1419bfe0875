// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package broker

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// WriteLineSize is the payload of a write line request: the line index
	// followed by the text.
	WriteLineSize = 20
	// LineTextSize is the number of characters a write line request carries.
	LineTextSize = WriteLineSize - 1
)

// Display lines.
const (
	Line1 byte = iota
	Line2
	Line3
	Line4
	lineMax
)

// Languages understood by set_language.
const (
	German byte = iota
	Dutch
	English
	Italian
	French
	Spanish
	Swedish
	languageMax
)

// Buzzer parameter selectors.
const (
	BuzzerFrequency byte = iota
	BuzzerDutyCycle
)

// Buzzer actions, stored in the top two bits of the first buzzer_ctrl byte.
const (
	BuzzerOff  byte = 0x00
	BuzzerOn   byte = 0x40
	BuzzerBeep byte = 0x80

	buzzerActionMask = 0xC0
	buzzerCyclesMask = 0x3F

	maxBuzzerFrequency = 200 // x100 Hz
	maxBuzzerDutyCycle = 100 // percent
)

// Request is a command sent to the display.
type Request struct {
	Command CommandID
	Data    []byte
}

// NewRequest checks data against the command's payload size and value ranges.
func NewRequest(id CommandID, data []byte) (Request, error) {
	req := Request{Command: id, Data: data}
	return req, req.Validate()
}

func ReadKeys(ledOn bool) Request {
	return Request{Command: ReadKeysID, Data: []byte{boolByte(ledOn)}}
}

// WriteLine writes text to line, truncated or padded with spaces to
// LineTextSize characters.
func WriteLine(line byte, text string) (Request, error) {
	if line >= lineMax {
		return Request{}, fmt.Errorf("%w: line %d", ErrPayload, line)
	}
	if len(text) > LineTextSize {
		text = text[:LineTextSize]
	}
	data := make([]byte, 0, WriteLineSize)
	data = append(data, line)
	data = append(data, text...)
	for len(data) < WriteLineSize {
		data = append(data, ' ')
	}
	return Request{Command: WriteLineID, Data: data}, nil
}

func SetBacklight(on bool) Request {
	return Request{Command: SetBacklightID, Data: []byte{boolByte(on)}}
}

func Clear() Request {
	return Request{Command: ClearID}
}

func SetLanguage(lang byte) (Request, error) {
	return NewRequest(SetLanguageID, []byte{lang})
}

func GetVersion() Request {
	return Request{Command: GetVersionID}
}

func BuzzerParam(param, value byte) (Request, error) {
	return NewRequest(BuzzerParamID, []byte{param, value})
}

// BuzzerCtrl builds a buzzer control request. on and off are counted in
// 128 ms steps and only matter for BuzzerBeep.
func BuzzerCtrl(action, cycles, on, off byte) (Request, error) {
	return NewRequest(BuzzerCtrlID, []byte{action | cycles&buzzerCyclesMask, on, off})
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Validate checks a request before it is sent. On top of the checks the
// display performs it rejects write_line lines past the last one.
func (r Request) Validate() error {
	if err := r.check(); err != nil {
		return err
	}
	if r.Command == WriteLineID && r.Data[0] >= lineMax {
		return fmt.Errorf("%w: line %d", ErrPayload, r.Data[0])
	}
	return nil
}

// check applies the checks the display performs before accepting a request.
func (r Request) check() error {
	if !r.Command.Valid() {
		return fmt.Errorf("%w: 0x%02X", ErrCommand, byte(r.Command))
	}
	if want := r.Command.RequestSize(); len(r.Data) != want {
		return fmt.Errorf("%w: %s takes %d bytes, got %d", ErrPayload, r.Command, want, len(r.Data))
	}

	d := r.Data
	switch r.Command {
	case ReadKeysID, SetBacklightID:
		if d[0] > 1 {
			return fmt.Errorf("%w: %s value %d", ErrPayload, r.Command, d[0])
		}
	case SetLanguageID:
		if d[0] >= languageMax {
			return fmt.Errorf("%w: language %d", ErrPayload, d[0])
		}
	case BuzzerParamID:
		switch d[0] {
		case BuzzerFrequency:
			if d[1] > maxBuzzerFrequency {
				return fmt.Errorf("%w: buzzer frequency %d", ErrPayload, d[1])
			}
		case BuzzerDutyCycle:
			if d[1] > maxBuzzerDutyCycle {
				return fmt.Errorf("%w: buzzer duty cycle %d", ErrPayload, d[1])
			}
		default:
			return fmt.Errorf("%w: buzzer parameter %d", ErrPayload, d[0])
		}
	case BuzzerCtrlID:
		switch d[0] & buzzerActionMask {
		case BuzzerOff, BuzzerOn:
		case BuzzerBeep:
			if d[2] == 0 {
				return fmt.Errorf("%w: buzzer off time must be at least 1", ErrPayload)
			}
		default:
			return fmt.Errorf("%w: buzzer action 0x%02X", ErrPayload, d[0]&buzzerActionMask)
		}
	}
	return nil
}

// Encode frames the request with the given packet number.
func (r Request) Encode(number byte) []byte {
	return encodeFrame(number, byte(r.Command), r.Data)
}

func (r Request) String() string {
	if r.Command == WriteLineID && len(r.Data) == WriteLineSize {
		return fmt.Sprintf("%s line=%d '%s'", r.Command, r.Data[0]+1, strings.TrimRight(string(r.Data[1:]), " "))
	}
	if len(r.Data) == 0 {
		return r.Command.String()
	}
	return fmt.Sprintf("%s %s", r.Command, strings.ToUpper(hex.EncodeToString(r.Data)))
}

// DecodeRequest parses the characters between STX and ETX of a request
// frame with the checks the display performs. Number and command are
// returned whenever the first four characters could be read, so a display
// can still answer with an error status.
func DecodeRequest(body []byte) (number byte, req Request, err error) {
	f, err := parseFrame(body)
	if err != nil {
		if len(body) >= 4 {
			if head, herr := decodeHex(body[:4]); herr == nil {
				return head[0], Request{Command: CommandID(head[1] & idMask)}, err
			}
		}
		return 0, Request{}, err
	}
	req = Request{Command: CommandID(f.id & idMask), Data: f.data}
	if f.crc != f.calc {
		return f.number, req, fmt.Errorf("%w: received 0x%04X, computed 0x%04X", ErrCRC, f.crc, f.calc)
	}
	return f.number, req, req.check()
}
