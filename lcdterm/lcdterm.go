// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdterm emulates a character LCD with an RGB backlight in the
// terminal using ANSI color codes.
//
// Useful while you are waiting for your super nice LCD shield to come by
// mail: it accepts the same display.TextDisplay calls as the real device,
// so an application can swap one for the other.
package lcdterm

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	Rows, Cols int
	// Palette converts the backlight color to terminal escape codes. It
	// defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W receives the rendered frames. It defaults to a colorable stdout,
	// so the escape codes survive on Windows.
	W io.Writer
}

// Dev is a character LCD emulator that outputs to the console. It renders
// the cell grid between two lines of backlight glow and redraws in place
// on every change.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	mu         sync.Mutex
	rows, cols int
	cells      [][]byte
	row, col   int
	on         bool
	underline  bool
	blink      bool
	ltr        bool
	autoScroll bool
	backlight  color.NRGBA
	rendered   bool
	buf        bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.Rows < 1 || opts.Rows > 4 || opts.Cols < 1 || opts.Cols > 40 {
		return nil, fmt.Errorf("lcdterm: unsupported geometry %dx%d", opts.Cols, opts.Rows)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		w:         w,
		palette:   *p,
		rows:      opts.Rows,
		cols:      opts.Cols,
		cells:     make([][]byte, opts.Rows),
		on:        true,
		ltr:       true,
		backlight: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
	for i := range d.cells {
		d.cells[i] = bytes.Repeat([]byte{' '}, opts.Cols)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d, d.refresh()
}

// refresh redraws the whole frame in place. Callers hold d.mu.
func (d *Dev) refresh() error {
	// Minimize allocations per call, the same frame buffer is reused.
	d.buf.Reset()
	if d.rendered {
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows+2)
	}
	edge := d.palette.Block(d.backlight)
	glow := strings.Repeat(edge, d.cols+2)
	d.buf.WriteString("\r" + glow + "\033[0m\n")
	for r, line := range d.cells {
		d.buf.WriteString("\r" + edge + "\033[0m")
		for c, ch := range line {
			if !d.on {
				ch = ' '
			}
			if d.on && r == d.row && c == d.col && (d.underline || d.blink) {
				d.buf.WriteString("\033[7m")
				d.buf.WriteByte(ch)
				d.buf.WriteString("\033[27m")
			} else {
				d.buf.WriteByte(ch)
			}
		}
		d.buf.WriteString(edge + "\033[0m\n")
	}
	d.buf.WriteString("\r" + glow + "\033[0m\n")
	d.rendered = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

// Clear clears the display and moves the cursor to the origin.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, line := range d.cells {
		for i := range line {
			line[i] = ' '
		}
	}
	d.row, d.col = 0, 0
	return d.refresh()
}

// Home moves the cursor to the origin.
func (d *Dev) Home() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.row, d.col = 0, 0
	return d.refresh()
}

// MoveTo moves the cursor to the one-based row and column.
func (d *Dev) MoveTo(row, col int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 1 || row > d.rows || col < 1 || col > d.cols {
		return fmt.Errorf("lcdterm: MoveTo(%d,%d) value out of range", row, col)
	}
	d.row, d.col = row-1, col-1
	return d.refresh()
}

// Write writes characters at the cursor position.
func (d *Dev) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range p {
		d.putByte(b)
	}
	return len(p), d.refresh()
}

// WriteString writes text to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

func (d *Dev) putByte(b byte) {
	line := d.cells[d.row]
	line[d.col] = b
	if d.ltr {
		if d.col < d.cols-1 {
			d.col++
		} else if d.autoScroll {
			copy(line, line[1:])
			line[d.cols-1] = ' '
		}
	} else {
		if d.col > 0 {
			d.col--
		} else if d.autoScroll {
			copy(line[1:], line)
			line[0] = ' '
		}
	}
}

// Cursor sets the cursor mode. The emulator shows any visible mode as a
// reverse video cell.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			d.underline, d.blink = false, false
		case display.CursorUnderline:
			d.underline = true
		case display.CursorBlink:
			d.blink = true
		case display.CursorBlock:
			d.underline, d.blink = true, true
		default:
			return fmt.Errorf("lcdterm: unexpected cursor mode: %d", mode)
		}
	}
	return d.refresh()
}

// Display turns the display on or off without losing its contents.
func (d *Dev) Display(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = on
	return d.refresh()
}

// Move moves the cursor one position.
func (d *Dev) Move(dir display.CursorDirection) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch dir {
	case display.Forward:
		if d.col < d.cols-1 {
			d.col++
		}
	case display.Backward:
		if d.col > 0 {
			d.col--
		}
	default:
		return fmt.Errorf("lcdterm: %w", display.ErrNotImplemented)
	}
	return d.refresh()
}

// LeftToRight makes new text flow left to right.
func (d *Dev) LeftToRight() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ltr = true
	return nil
}

// RightToLeft makes new text flow right to left.
func (d *Dev) RightToLeft() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ltr = false
	return nil
}

// AutoScroll shifts the written line on every character so that the cursor
// appears to stand still.
func (d *Dev) AutoScroll(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoScroll = enabled
	return nil
}

// Backlight sets the glow intensity as a gray level.
func (d *Dev) Backlight(intensity display.Intensity) error {
	return d.RGBBacklight(intensity, intensity, intensity)
}

// RGBBacklight sets the glow color.
func (d *Dev) RGBBacklight(red, green, blue display.Intensity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backlight = color.NRGBA{R: uint8(red), G: uint8(green), B: uint8(blue), A: 0xff}
	return d.refresh()
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.rows
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.cols
}

// MinRow returns the minimum row position.
func (d *Dev) MinRow() int {
	return 1
}

// MinCol returns the minimum column position.
func (d *Dev) MinCol() int {
	return 1
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcdterm: %dx%d", d.cols, d.rows)
}

// Halt implements conn.Resource. It resets the terminal colors so the
// shell is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ display.DisplayRGBBacklight = &Dev{}
var _ conn.Resource = &Dev{}
