// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package qr

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
)

// Render draws m one pixel per module with a quiet zone of border modules,
// then scales it by scale.
func Render(m matrix.Matrix, scale, border int) image.Image {
	w, h := m.Cols()+2*border, m.Rows()+2*border
	src := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for r, row := range m {
		for c, v := range row {
			if v != 0 {
				src.SetGray(c+border, r+border, color.Gray{Y: 0})
			}
		}
	}
	if scale <= 1 {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// WritePreview renders m as a PNG.
func WritePreview(w io.Writer, m matrix.Matrix, scale, border int) error {
	return png.Encode(w, Render(m, scale, border))
}
