// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdshield controls HD44780 compatible character displays on a
// parallel GPIO bus, along with the backlight and keypad found on LCD
// shields.
//
// NewRGBShield configures the whole Adafruit RGB LCD shield stack: the
// display, tri-color backlight and five buttons behind an MCP23017 I²C
// expander. New accepts any gpio pin mapping for other boards, whether the
// pins come from an expander or the host.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package lcdshield
