// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package broker

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Step is one command of a sequence file. The payload is given either as hex
// in Data or, for write_line, as Line and Text.
type Step struct {
	Command string `mapstructure:"command" yaml:"command" json:"command"`
	Data    string `mapstructure:"data" yaml:"data,omitempty" json:"data,omitempty"`
	Line    int    `mapstructure:"line" yaml:"line,omitempty" json:"line,omitempty"`
	Text    string `mapstructure:"text" yaml:"text,omitempty" json:"text,omitempty"`
}

func (s Step) Request() (Request, error) {
	id, err := ParseCommandID(s.Command)
	if err != nil {
		return Request{}, err
	}
	if id == WriteLineID && s.Data == "" {
		if s.Line < 0 || s.Line > 0xFF {
			return Request{}, fmt.Errorf("%w: line %d", ErrPayload, s.Line)
		}
		return WriteLine(byte(s.Line), s.Text)
	}
	data, err := hex.DecodeString(strings.ReplaceAll(s.Data, " ", ""))
	if err != nil {
		return Request{}, fmt.Errorf("invalid data for %s: %w", id, err)
	}
	return NewRequest(id, data)
}

// Short renders the step the way it is sent.
func (s Step) Short() string {
	req, err := s.Request()
	if err != nil {
		return fmt.Sprintf("%s (invalid: %v)", s.Command, err)
	}
	return req.String()
}

// Sequence is a named list of requests replayed to the display.
type Sequence struct {
	Name  string `mapstructure:"name" yaml:"name" json:"name"`
	Steps []Step `mapstructure:"steps" yaml:"steps" json:"steps"`
}

// Requests validates and converts every step.
func (s *Sequence) Requests() ([]Request, error) {
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("sequence '%s' has no steps", s.Name)
	}
	res := make([]Request, 0, len(s.Steps))
	for i, step := range s.Steps {
		req, err := step.Request()
		if err != nil {
			return nil, fmt.Errorf("sequence '%s', step %d: %w", s.Name, i+1, err)
		}
		res = append(res, req)
	}
	return res, nil
}

// BootSequence mirrors what the main board sends while the display boots.
func BootSequence() *Sequence {
	return &Sequence{
		Name: "display-boot",
		Steps: []Step{
			{Command: "get_version"},
			{Command: "set_language", Data: "02"},
			{Command: "set_backlight", Data: "01"},
			{Command: "clear"},
			{Command: "write_line", Line: 0, Text: "YETI DISPLAY"},
			{Command: "write_line", Line: 1, Text: "BOOTING..."},
			{Command: "buzzer_param", Data: "0014"},
			{Command: "buzzer_param", Data: "0132"},
			{Command: "buzzer_ctrl", Data: "820101"},
			{Command: "read_keys", Data: "00"},
		},
	}
}

// LoadSequence reads a YAML or JSON sequence file.
func LoadSequence(path string) (*Sequence, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read sequence '%s': %w", path, err)
	}
	var seq Sequence
	if err := v.Unmarshal(&seq); err != nil {
		return nil, fmt.Errorf("failed to parse sequence '%s': %w", path, err)
	}
	if seq.Name == "" {
		seq.Name = path
	}
	if _, err := seq.Requests(); err != nil {
		return nil, err
	}
	return &seq, nil
}
