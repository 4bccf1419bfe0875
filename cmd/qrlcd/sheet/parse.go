// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
)

// Block locates the hex table of one QR version inside the team workbook.
// Rows and columns are zero based, end exclusive, and count from the first
// row below the header row and from column A.
type Block struct {
	Version  int `mapstructure:"version" yaml:"version" json:"version"`
	RowStart int `mapstructure:"row_start" yaml:"row_start" json:"row_start"`
	RowEnd   int `mapstructure:"row_end" yaml:"row_end" json:"row_end"`
	ColStart int `mapstructure:"col_start" yaml:"col_start" json:"col_start"`
	ColEnd   int `mapstructure:"col_end" yaml:"col_end" json:"col_end"`
}

func (b Block) validate() error {
	if b.RowStart < 0 || b.RowEnd <= b.RowStart || b.ColStart < 0 || b.ColEnd <= b.ColStart {
		return fmt.Errorf("invalid block for V%d: rows %d..%d, columns %d..%d", b.Version, b.RowStart, b.RowEnd, b.ColStart, b.ColEnd)
	}
	return nil
}

// DefaultBlocks is the layout of the team workbook.
var DefaultBlocks = []Block{
	{Version: 3, RowStart: 251, RowEnd: 261, ColStart: 5, ColEnd: 50},
	{Version: 4, RowStart: 341, RowEnd: 351, ColStart: 5, ColEnd: 50},
	{Version: 5, RowStart: 432, RowEnd: 442, ColStart: 5, ColEnd: 50},
	{Version: 6, RowStart: 523, RowEnd: 533, ColStart: 5, ColEnd: 50},
	{Version: 7, RowStart: 616, RowEnd: 626, ColStart: 5, ColEnd: 50},
}

// Parsed is the list of hex values read from one block.
type Parsed struct {
	Version int      `yaml:"version" json:"version"`
	Values  []string `yaml:"values" json:"values"`
}

// ParseWorkbook reads every block of the workbook at path. Within a block,
// cells are read row by row and only the non-empty cells that do not hold an
// integer are kept.
func ParseWorkbook(path string, blocks []Block) ([]Parsed, error) {
	for _, b := range blocks {
		if err := b.validate(); err != nil {
			return nil, err
		}
	}

	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var res []Parsed
	for _, b := range blocks {
		res = append(res, Parsed{
			Version: b.Version,
			Values:  extract(rows, b),
		})
	}
	return res, nil
}

func extract(rows [][]string, b Block) []string {
	var values []string
	for r := b.RowStart; r < b.RowEnd; r++ {
		// Row 0 of rows is the header.
		idx := r + 1
		if idx >= len(rows) {
			break
		}
		row := rows[idx]
		for c := b.ColStart; c < b.ColEnd && c < len(row); c++ {
			cell := strings.TrimSpace(row[c])
			if cell == "" || isInteger(cell) {
				continue
			}
			values = append(values, cell)
		}
	}
	return values
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// WriteParsed writes every block under a "V<n> MATRIX: " header, 45 tokens per
// line, followed by three newlines.
func WriteParsed(w io.Writer, parsed []Parsed) error {
	for _, p := range parsed {
		if _, err := fmt.Fprintf(w, "V%d MATRIX: \n", p.Version); err != nil {
			return err
		}
		if _, err := io.WriteString(w, matrix.Join(p.Values, matrix.Size)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n\n\n"); err != nil {
			return err
		}
	}
	return nil
}
