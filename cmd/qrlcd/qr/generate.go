// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package qr generates QR code images for the display versions and decodes
// them back into module grids.
package qr

import (
	"errors"
	"fmt"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// Versions lists the symbol versions the display can show.
var Versions = []int{3, 4, 5, 6, 7}

const (
	MinVersion = 3
	MaxVersion = 7
)

// ErrTooLong is returned when the text does not fit the requested version.
var ErrTooLong = errors.New("text does not fit")

// byteCapacity is the number of bytes a symbol holds in byte mode at error
// correction level L.
var byteCapacity = map[int]int{
	1: 17,
	2: 32,
	3: 53,
	4: 78,
	5: 106,
	6: 134,
	7: 154,
}

// Capacity returns how many bytes of text a version holds.
func Capacity(version int) int {
	return byteCapacity[version]
}

// FitVersion returns the smallest display version that holds text.
func FitVersion(text string) (int, error) {
	for _, v := range Versions {
		if len(text) <= Capacity(v) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%d bytes, version %d holds %d: %w", len(text), MaxVersion, Capacity(MaxVersion), ErrTooLong)
}

// Options control the rendering of generated images.
type Options struct {
	// ModuleWidth is the width of one module in pixels.
	ModuleWidth int
	// Border is the width of the quiet zone in modules.
	Border int
}

func DefaultOptions() Options {
	return Options{
		ModuleWidth: 10,
		Border:      4,
	}
}

// SizeOf returns the number of modules on a side of a symbol of the given
// version.
func SizeOf(version int) int {
	return 4*version + 17
}

// VersionFromSize is the inverse of SizeOf.
func VersionFromSize(size int) (int, error) {
	if size < 21 || (size-17)%4 != 0 {
		return 0, fmt.Errorf("%d modules is not a valid QR size", size)
	}
	return (size - 17) / 4, nil
}

func CheckVersion(version int) error {
	if version < MinVersion || version > MaxVersion {
		return fmt.Errorf("version %d is not supported by the display, must be between %d and %d", version, MinVersion, MaxVersion)
	}
	return nil
}

// Generate encodes text as a version `version` symbol with error correction
// level L and writes it to path as a black on white PNG.
func Generate(text string, version int, path string, opts Options) error {
	if err := CheckVersion(version); err != nil {
		return err
	}
	if opts.ModuleWidth <= 0 || opts.ModuleWidth > 255 {
		return fmt.Errorf("module width %d out of range", opts.ModuleWidth)
	}

	if len(text) > Capacity(version) {
		return fmt.Errorf("%d bytes, version %d holds %d: %w", len(text), version, Capacity(version), ErrTooLong)
	}

	qrc, err := encode(text, version)
	if err != nil {
		return fmt.Errorf("failed to encode '%s' as version %d: %w", text, version, err)
	}

	w, err := standard.New(path,
		standard.WithQRWidth(uint8(opts.ModuleWidth)),
		standard.WithBorderWidth(opts.Border*opts.ModuleWidth),
		standard.WithBgColorRGBHex("#ffffff"),
		standard.WithFgColorRGBHex("#000000"),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}

	if err := qrc.Save(w); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return nil
}

// encode turns a panic of the encoder into an error. The encoder panics
// instead of failing when the data outgrows a fixed version.
func encode(text string, version int) (qrc *qrcode.QRCode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v: %w", r, ErrTooLong)
		}
	}()
	return qrcode.NewWith(text,
		qrcode.WithEncodingMode(qrcode.EncModeByte),
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow),
		qrcode.WithVersion(version),
	)
}
