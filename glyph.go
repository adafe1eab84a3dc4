// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdshield

import (
	"image"

	"golang.org/x/image/draw"
)

// GlyphFromImage scales an image down to one 5x8 character cell for
// CreateChar. Pixels at or above half brightness light the corresponding
// dot, bit 4 of each row byte being the leftmost column.
func GlyphFromImage(img image.Image) [8]byte {
	cell := image.NewGray(image.Rect(0, 0, 5, 8))
	draw.ApproxBiLinear.Scale(cell, cell.Bounds(), img, img.Bounds(), draw.Src, nil)
	var glyph [8]byte
	for y := range 8 {
		var row byte
		for x := range 5 {
			if cell.GrayAt(x, y).Y >= 0x80 {
				row |= 1 << (4 - x)
			}
		}
		glyph[y] = row
	}
	return glyph
}
