// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package sheet reads and writes the Excel workbooks the test team keeps
// module matrices and hex tables in.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
)

// Export writes m to a new workbook at path. Row 1 holds the column indices
// starting at B1, column A holds the row indices starting at A2.
func Export(path string, m matrix.Matrix) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, m.Cols()+1)
	for c := 0; c < m.Cols(); c++ {
		header[c+1] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range m {
		values := make([]interface{}, len(row)+1)
		values[0] = r
		for c, v := range row {
			values[c+1] = int(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook '%s': %w", path, err)
	}
	return nil
}

// Import reads a workbook written by Export.
func Import(path string) (matrix.Matrix, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook '%s' holds no matrix", path)
	}

	cols := len(rows[0]) - 1
	m := matrix.New(len(rows)-1, cols)
	for r, row := range rows[1:] {
		for c := 0; c < cols; c++ {
			if c+1 >= len(row) {
				break
			}
			cell := strings.TrimSpace(row[c+1])
			if cell == "" {
				continue
			}
			v, err := strconv.Atoi(cell)
			if err != nil || (v != 0 && v != 1) {
				return nil, fmt.Errorf("workbook '%s': invalid module value '%s' at row %d, column %d", path, cell, r, c)
			}
			m[r][c] = uint8(v)
		}
	}
	return m, nil
}

func readRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook '%s': %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook '%s': %w", path, err)
	}
	return rows, nil
}
