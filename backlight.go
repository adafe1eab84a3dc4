// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdshield

import (
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// TriColorBacklight drives the three backlight LEDs of an RGB character
// display through individual GPIO lines. Each channel is on or off; any
// non-zero intensity lights the LED.
type TriColorBacklight struct {
	red, green, blue gpio.PinOut
	activeLow        bool
}

// NewTriColorBacklight returns a backlight on the three given pins.
// activeLow is true when the LEDs light on a low pin, as they do when the
// pin sinks the LED current.
func NewTriColorBacklight(red, green, blue gpio.PinOut, activeLow bool) *TriColorBacklight {
	return &TriColorBacklight{red: red, green: green, blue: blue, activeLow: activeLow}
}

// RGBBacklight implements display.DisplayRGBBacklight.
func (t *TriColorBacklight) RGBBacklight(red, green, blue display.Intensity) error {
	if err := t.out(t.red, red != 0); err != nil {
		return wrap(err)
	}
	if err := t.out(t.green, green != 0); err != nil {
		return wrap(err)
	}
	return wrap(t.out(t.blue, blue != 0))
}

// Backlight implements display.DisplayBacklight, treating the three
// channels as one white light.
func (t *TriColorBacklight) Backlight(intensity display.Intensity) error {
	return t.RGBBacklight(intensity, intensity, intensity)
}

func (t *TriColorBacklight) out(p gpio.PinOut, on bool) error {
	if t.activeLow {
		on = !on
	}
	return p.Out(gpio.Level(on))
}

var _ display.DisplayBacklight = &TriColorBacklight{}
var _ display.DisplayRGBBacklight = &TriColorBacklight{}
