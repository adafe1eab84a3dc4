// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23017 provides a driver for the Microchip MCP23017 16-bit I²C
// GPIO expander. The 16 pins are split across two 8-bit ports, port A for
// pins 0-7 and port B for pins 8-15. Pins are available individually as
// gpio.PinIO, in bulk as a 16-bit word, or as a gpio.Group for devices that
// need several lines written in one bus transaction.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001952C.pdf
package mcp23017
