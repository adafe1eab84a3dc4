// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdterm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	periphDisplay "periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
)

func getDev(t *testing.T) (*Dev, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	d, err := New(&Opts{Rows: 2, Cols: 16, W: buf})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Halt() })
	return d, buf
}

func line(d *Dev, row int) string {
	return string(d.cells[row])
}

func TestNew(t *testing.T) {
	d, buf := getDev(t)
	if buf.Len() == 0 {
		t.Error("New did not render a frame")
	}
	if d.Rows() != 2 || d.Cols() != 16 || d.MinRow() != 1 || d.MinCol() != 1 {
		t.Error("geometry accessors disagree with the configuration")
	}
	if _, err := New(&Opts{Rows: 0, Cols: 16}); err == nil {
		t.Error("expected an error for zero rows")
	}
	if _, err := New(&Opts{Rows: 2, Cols: 41}); err == nil {
		t.Error("expected an error for too many columns")
	}
}

func TestWrite(t *testing.T) {
	d, buf := getDev(t)
	buf.Reset()
	n, err := d.WriteString("Hello")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("WriteString returned %d", n)
	}
	if got := line(d, 0); got != "Hello           " {
		t.Errorf("row 0 = %q", got)
	}
	if !strings.Contains(buf.String(), "Hello") {
		t.Error("the rendered frame does not contain the text")
	}
}

func TestMoveTo(t *testing.T) {
	d, _ := getDev(t)
	if err := d.MoveTo(2, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("x"); err != nil {
		t.Fatal(err)
	}
	if got := line(d, 1); got != "  x             " {
		t.Errorf("row 1 = %q", got)
	}
	for _, tc := range [][2]int{{0, 1}, {3, 1}, {1, 0}, {1, 17}} {
		if err := d.MoveTo(tc[0], tc[1]); err == nil {
			t.Errorf("MoveTo(%d, %d) did not fail", tc[0], tc[1])
		}
	}
}

func TestClear(t *testing.T) {
	d, _ := getDev(t)
	if _, err := d.WriteString("junk"); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := line(d, 0); strings.TrimSpace(got) != "" {
		t.Errorf("row 0 = %q after Clear", got)
	}
	if d.row != 0 || d.col != 0 {
		t.Error("Clear did not home the cursor")
	}
}

func TestRightToLeft(t *testing.T) {
	d, _ := getDev(t)
	if err := d.RightToLeft(); err != nil {
		t.Fatal(err)
	}
	if err := d.MoveTo(1, 6); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("abc"); err != nil {
		t.Fatal(err)
	}
	if got := line(d, 0); got != "   cba          " {
		t.Errorf("row 0 = %q", got)
	}
}

func TestAutoScroll(t *testing.T) {
	d, _ := getDev(t)
	if err := d.AutoScroll(true); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("0123456789abcdefgh"); err != nil {
		t.Fatal(err)
	}
	// The line scrolled left twice; the cursor stands still at the edge.
	if got := line(d, 0); got != "3456789abcdefgh " {
		t.Errorf("row 0 = %q", got)
	}
	if d.col != 15 {
		t.Errorf("cursor at column %d", d.col)
	}
}

func TestDisplayOff(t *testing.T) {
	d, buf := getDev(t)
	if _, err := d.WriteString("Hi"); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := d.Display(false); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Hi") {
		t.Error("text still rendered with the display off")
	}
	if err := d.Display(true); err != nil {
		t.Fatal(err)
	}
	// The contents survived the blanking.
	if !strings.Contains(buf.String(), "Hi") {
		t.Error("text lost while the display was off")
	}
}

func TestCursorAndMove(t *testing.T) {
	d, _ := getDev(t)
	if err := d.Cursor(periphDisplay.CursorBlock); err != nil {
		t.Fatal(err)
	}
	if !d.underline || !d.blink {
		t.Error("CursorBlock did not set both modes")
	}
	if err := d.Cursor(periphDisplay.CursorOff); err != nil {
		t.Fatal(err)
	}
	if d.underline || d.blink {
		t.Error("CursorOff left a mode set")
	}
	if err := d.Cursor(periphDisplay.CursorMode(99)); err == nil {
		t.Error("expected an error for an unknown cursor mode")
	}

	if err := d.Move(periphDisplay.Forward); err != nil {
		t.Fatal(err)
	}
	if d.col != 1 {
		t.Errorf("cursor at column %d after Forward", d.col)
	}
	if err := d.Move(periphDisplay.Backward); err != nil {
		t.Fatal(err)
	}
	if d.col != 0 {
		t.Errorf("cursor at column %d after Backward", d.col)
	}
	// The cursor stops at the edges.
	if err := d.Move(periphDisplay.Backward); err != nil {
		t.Fatal(err)
	}
	if d.col != 0 {
		t.Errorf("cursor at column %d after Backward at the edge", d.col)
	}
	if err := d.Move(periphDisplay.CursorDirection(42)); !errors.Is(err, periphDisplay.ErrNotImplemented) {
		t.Errorf("Move(42) = %v", err)
	}
}

func TestBacklight(t *testing.T) {
	d, buf := getDev(t)
	buf.Reset()
	if err := d.RGBBacklight(0xff, 0, 0); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("changing the backlight did not redraw")
	}
	if d.backlight.R != 0xff || d.backlight.G != 0 || d.backlight.B != 0 {
		t.Errorf("backlight = %v", d.backlight)
	}
	if err := d.Backlight(0x80); err != nil {
		t.Fatal(err)
	}
	if d.backlight.R != 0x80 || d.backlight.G != 0x80 || d.backlight.B != 0x80 {
		t.Errorf("backlight = %v", d.backlight)
	}
}

func TestInterface(t *testing.T) {
	d, _ := getDev(t)
	for _, err := range displaytest.TestTextDisplay(d, false) {
		if !errors.Is(err, periphDisplay.ErrNotImplemented) {
			t.Error(err)
		}
	}
}
