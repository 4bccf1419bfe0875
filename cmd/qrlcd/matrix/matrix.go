// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package matrix holds QR module matrices and converts them into the paged
// byte layout used by the display's QR area.
package matrix

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Size is the width and height of the LCD QR area, in modules. It matches
	// a version 7 symbol (4*7+17).
	Size = 45
	// PageBits is the number of rows held by one display byte.
	PageBits = 8
	// Pages is the number of byte rows needed to cover Size rows.
	Pages = (Size + PageBits - 1) / PageBits
)

var (
	ErrTooLarge = errors.New("matrix does not fit the display area")
	ErrShape    = errors.New("matrix rows have different lengths")
)

// Matrix is a grid of module values, 1 for dark and 0 for light.
type Matrix [][]uint8

func New(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for r := range m {
		m[r] = make([]uint8, cols)
	}
	return m
}

// FromBits builds a Matrix of h rows and w columns where cell (row y, column x)
// is dark when dark(x, y) returns true.
func FromBits(w, h int, dark func(x, y int) bool) Matrix {
	m := New(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if dark(x, y) {
				m[y][x] = 1
			}
		}
	}
	return m
}

func (m Matrix) Rows() int {
	return len(m)
}

func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) validate() error {
	cols := m.Cols()
	for r, row := range m {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d cells, expected %d: %w", r, len(row), cols, ErrShape)
		}
	}
	return nil
}

// Transpose swaps rows and columns. The display and the exported workbook
// show the scanned grid transposed.
func (m Matrix) Transpose() Matrix {
	res := New(m.Cols(), m.Rows())
	for r, row := range m {
		for c, v := range row {
			res[c][r] = v
		}
	}
	return res
}

// Invert flips every module, like the driver's contrast byte does.
func (m Matrix) Invert() Matrix {
	res := New(m.Rows(), m.Cols())
	for r, row := range m {
		for c, v := range row {
			res[r][c] = v ^ 1
		}
	}
	return res
}

// Pad copies m into the top-left corner of an empty size x size matrix.
func (m Matrix) Pad(size int) (Matrix, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if m.Rows() > size || m.Cols() > size {
		return nil, fmt.Errorf("%dx%d into %dx%d: %w", m.Rows(), m.Cols(), size, size, ErrTooLarge)
	}
	res := New(size, size)
	for r, row := range m {
		copy(res[r], row)
	}
	return res, nil
}

// Pack pads m to Size x Size and returns the display pages. Byte c of page g
// holds rows 8g..8g+7 of column c, most significant bit first. Rows past the
// bottom edge read as zero.
func (m Matrix) Pack() ([][]byte, error) {
	padded, err := m.Pad(Size)
	if err != nil {
		return nil, err
	}
	pages := make([][]byte, Pages)
	for g := range pages {
		pages[g] = make([]byte, Size)
		for c := 0; c < Size; c++ {
			var b byte
			for bit := 0; bit < PageBits; bit++ {
				b <<= 1
				if r := g*PageBits + bit; r < Size {
					b |= padded[r][c] & 1
				}
			}
			pages[g][c] = b
		}
	}
	return pages, nil
}

// Unpack rebuilds a Size x Size matrix from display pages.
func Unpack(pages [][]byte) (Matrix, error) {
	if len(pages) != Pages {
		return nil, fmt.Errorf("expected %d pages, got %d", Pages, len(pages))
	}
	m := New(Size, Size)
	for g, page := range pages {
		if len(page) != Size {
			return nil, fmt.Errorf("page %d has %d bytes, expected %d", g, len(page), Size)
		}
		for c, b := range page {
			for bit := 0; bit < PageBits; bit++ {
				r := g*PageBits + bit
				if r >= Size {
					break
				}
				m[r][c] = (b >> (PageBits - 1 - bit)) & 1
			}
		}
	}
	return m, nil
}

// BitString renders one byte the way the packing loop sees it, e.g. "00011111".
func BitString(b byte) string {
	return fmt.Sprintf("%08b", b)
}

func (m Matrix) String() string {
	var sb strings.Builder
	for _, row := range m {
		for _, v := range row {
			if v != 0 {
				sb.WriteString("██")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
