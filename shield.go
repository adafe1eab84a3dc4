// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdshield

import (
	"errors"
	"strings"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/lcdshield/mcp23017"
)

// Buttons is a bitmask of the shield's five momentary buttons.
type Buttons uint8

const (
	ButtonSelect Buttons = 1 << iota
	ButtonRight
	ButtonDown
	ButtonUp
	ButtonLeft

	buttonMask Buttons = 0x1f
)

// Pressed reports whether every button in btn is held down.
func (b Buttons) Pressed(btn Buttons) bool {
	return b&btn == btn
}

func (b Buttons) String() string {
	if b&buttonMask == 0 {
		return "none"
	}
	var names []string
	for _, e := range []struct {
		mask Buttons
		name string
	}{
		{ButtonSelect, "Select"},
		{ButtonRight, "Right"},
		{ButtonDown, "Down"},
		{ButtonUp, "Up"},
		{ButtonLeft, "Left"},
	} {
		if b&e.mask != 0 {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}

// Color is one of the eight colors a tri-color backlight can show. The
// bits select the red, green and blue LEDs.
type Color uint8

const (
	Off Color = iota
	Red
	Green
	Yellow
	Blue
	Violet
	Teal
	White
)

func (c Color) String() string {
	names := [8]string{"Off", "Red", "Green", "Yellow", "Blue", "Violet", "Teal", "White"}
	return names[c&7]
}

// NewRGBShield returns a Dev for an Adafruit RGB LCD shield or a
// compatible board: an HD44780 display on a 4-bit bus, a tri-color
// backlight and five buttons, all behind a single MCP23017 at
// 0x20 | offset.
func NewRGBShield(bus i2c.Bus, offset uint8, rows, cols int) (*Dev, error) {
	exp, err := mcp23017.New(bus, offset)
	if err != nil {
		return nil, wrap(err)
	}

	// The five buttons ground their pin when pressed.
	for pin := uint8(0); pin <= 4; pin++ {
		if err := exp.PinMode(pin, mcp23017.Input); err != nil {
			return nil, wrap(err)
		}
		if err := exp.PullUp(pin, true); err != nil {
			return nil, wrap(err)
		}
	}
	buttons, err := exp.Group(0, 1, 2, 3, 4)
	if err != nil {
		return nil, wrap(err)
	}

	// Display data lines D4-D7, lowest first.
	data, err := exp.Group(12, 11, 10, 9)
	if err != nil {
		return nil, wrap(err)
	}

	return New(&Opts{
		Data:   data,
		RS:     exp.Pins[15],
		Enable: exp.Pins[13],
		RW:     exp.Pins[14],
		// The backlight LEDs sink through the expander.
		Backlight:        NewTriColorBacklight(exp.Pins[6], exp.Pins[7], exp.Pins[8], true),
		Buttons:          buttons,
		ButtonsActiveLow: true,
		Rows:             rows,
		Cols:             cols,
	})
}

// ReadButtons samples all buttons in one bus transaction and returns the
// mask of those currently held down.
func (dev *Dev) ReadButtons() (Buttons, error) {
	if dev.buttons == nil {
		return 0, errors.New(packageName + ": no buttons configured")
	}
	v, err := dev.buttons.Read(0)
	if err != nil {
		return 0, wrap(err)
	}
	b := Buttons(v)
	if dev.buttonsLow {
		b = ^b
	}
	return b & buttonMask, nil
}

// SetBacklight sets a tri-color backlight to one of its eight colors.
func (dev *Dev) SetBacklight(c Color) error {
	var r, g, b display.Intensity
	if c&Red != 0 {
		r = 0xff
	}
	if c&Green != 0 {
		g = 0xff
	}
	if c&Blue != 0 {
		b = 0xff
	}
	return dev.RGBBacklight(r, g, b)
}
