// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package qr

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/detector"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
)

// ErrNotFound is returned when no QR symbol could be located in an image.
var ErrNotFound = errors.New("no QR code found")

type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Result of decoding a QR image.
type Result struct {
	// Text is the decoded payload.
	Text string
	// Points are the finder pattern centers reported by the detector.
	Points []Point
	// Grid is the sampled module grid indexed [y][x], dark modules are 1.
	Grid matrix.Matrix
	// Version is derived from the grid size.
	Version int
}

// Decode reads an image file and decodes the QR symbol it contains.
func Decode(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image '%s': %w", path, err)
	}

	res, err := DecodeImage(img)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", path, err)
	}
	return res, nil
}

func DecodeImage(img image.Image) (*Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}

	decoded, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	black, err := bmp.GetBlackMatrix()
	if err != nil {
		return nil, err
	}
	detected, err := detector.NewDetector(black).Detect(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	bits := detected.GetBits()

	version, err := VersionFromSize(bits.GetWidth())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Text:    decoded.GetText(),
		Grid:    matrix.FromBits(bits.GetWidth(), bits.GetHeight(), bits.Get),
		Version: version,
	}
	for _, p := range decoded.GetResultPoints() {
		res.Points = append(res.Points, Point{X: p.GetX(), Y: p.GetY()})
	}
	return res, nil
}

// DisplayMatrix returns the grid in the orientation the display and the
// workbooks use.
func (r *Result) DisplayMatrix() matrix.Matrix {
	return r.Grid.Transpose()
}
