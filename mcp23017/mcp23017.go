// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
)

// BaseAddress is the fixed part of the 7-bit device address. The low three
// bits come from the A0-A2 address straps.
const BaseAddress uint16 = 0x20

// PinDir sets whether a pin drives its line or reads it.
type PinDir uint8

const (
	Output PinDir = iota
	Input
)

// Dev is an MCP23017 expander on an I²C bus.
//
// Out-of-range pin numbers are silently ignored by the pin-level methods,
// matching the chip's 16 pin budget: there is nothing to address, so there
// is nothing to do.
type Dev struct {
	// Pins are the expander pins in GPA0-GPA7, GPB0-GPB7 order.
	Pins [16]gpio.PinIO

	d     *i2c.Dev
	ports [2]*port
}

// port is one 8-bit half of the device register file.
type port struct {
	name  string
	iodir registerCache
	gppu  registerCache
	olat  registerCache
	gpio  registerCache
}

// New returns an MCP23017 at BaseAddress|offset with all 16 pins configured
// as inputs, the power-on state of the chip.
//
// offset is the 3-bit hardware address strap value. Values above 7 are
// clamped to 7.
func New(bus i2c.Bus, offset uint8) (*Dev, error) {
	if offset > 7 {
		offset = 7
	}
	d := &Dev{
		d: &i2c.Dev{Bus: bus, Addr: BaseAddress | uint16(offset)},
	}
	d.ports[0] = &port{
		name:  "A",
		iodir: newRegister(d.d, regIODIRA),
		gppu:  newRegister(d.d, regGPPUA),
		olat:  newLatchRegister(d.d, regOLATA, regGPIOA),
		gpio:  newRegister(d.d, regGPIOA),
	}
	d.ports[1] = &port{
		name:  "B",
		iodir: newRegister(d.d, regIODIRB),
		gppu:  newRegister(d.d, regGPPUB),
		olat:  newLatchRegister(d.d, regOLATB, regGPIOB),
		gpio:  newRegister(d.d, regGPIOB),
	}
	for ix := range d.Pins {
		p := &portpin{
			dev:    d,
			port:   d.ports[ix/8],
			pinbit: uint8(ix % 8),
			number: ix,
		}
		d.Pins[ix] = p
		// Ignore registration failure, as tests create the same device
		// repeatedly.
		_ = gpioreg.Register(p)
	}

	if err := d.ports[0].iodir.writeValue(0xff, false); err != nil {
		return nil, fmt.Errorf("mcp23017: %w", err)
	}
	if err := d.ports[1].iodir.writeValue(0xff, false); err != nil {
		return nil, fmt.Errorf("mcp23017: %w", err)
	}
	return d, nil
}

// portFor maps a pin number to its port register set and the bit within it.
func (d *Dev) portFor(pin uint8) (*port, uint8) {
	if pin < 8 {
		return d.ports[0], pin
	}
	return d.ports[1], pin - 8
}

// PinMode configures a single pin for input or output. Pin numbers above 15
// are a no-op.
func (d *Dev) PinMode(pin uint8, dir PinDir) error {
	if pin > 15 {
		return nil
	}
	p, bit := d.portFor(pin)
	return p.iodir.getAndSetBit(bit, dir == Input, true)
}

// DigitalWrite sets the output latch bit for a pin. The full latch byte is
// read back, modified and rewritten since the chip has no bit-level write.
// Pin numbers above 15 are a no-op.
func (d *Dev) DigitalWrite(pin uint8, level gpio.Level) error {
	if pin > 15 {
		return nil
	}
	p, bit := d.portFor(pin)
	return p.olat.getAndSetBit(bit, level == gpio.High, true)
}

// DigitalRead returns the current level of a pin. Pin numbers above 15 read
// Low, indistinguishable from a real pin reading low; the chip offers no way
// to report the difference.
func (d *Dev) DigitalRead(pin uint8) gpio.Level {
	if pin > 15 {
		return gpio.Low
	}
	p, bit := d.portFor(pin)
	v, _ := p.gpio.readValue(false)
	return gpio.Level((v>>bit)&1 == 1)
}

// PullUp enables or disables the 100kΩ internal pull-up for a pin. Pin
// numbers above 15 are a no-op.
func (d *Dev) PullUp(pin uint8, enable bool) error {
	if pin > 15 {
		return nil
	}
	p, bit := d.portFor(pin)
	return p.gppu.getAndSetBit(bit, enable, true)
}

// ReadGPIOAB reads both GPIO registers in a single bus transaction. Port A
// is the low byte. Reading both ports at once means no pin can change state
// between two separate 8-bit reads.
func (d *Dev) ReadGPIOAB() (uint16, error) {
	rx := make([]byte, 2)
	if err := d.d.Tx([]byte{regGPIOA}, rx); err != nil {
		return 0, fmt.Errorf("mcp23017: %w", err)
	}
	return uint16(rx[0]) | uint16(rx[1])<<8, nil
}

// WriteGPIOAB writes both output latches in a single bus transaction. Port A
// is the low byte.
func (d *Dev) WriteGPIOAB(value uint16) error {
	lo := uint8(value)
	hi := uint8(value >> 8)
	if err := d.d.Tx([]byte{regGPIOA, lo, hi}, nil); err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	d.ports[0].olat.got = true
	d.ports[0].olat.cache = lo
	d.ports[1].olat.got = true
	d.ports[1].olat.cache = hi
	return nil
}

// Halt removes the pin registrations. The chip itself keeps its last
// configured state.
func (d *Dev) Halt() error {
	for _, p := range d.Pins {
		if p != nil {
			_ = gpioreg.Unregister(p.Name())
		}
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("mcp23017_%x", d.d.Addr)
}

var _ conn.Resource = &Dev{}
