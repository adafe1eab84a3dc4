// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23017test simulates the register file of an MCP23017 expander
// behind an i2c.Bus. It lets driver tests run read-modify-write sequences
// against a believable register model instead of a canned transcript, and it
// records every register write so tests can decode what the driver put on
// the pins.
package mcp23017test

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Register addresses with IOCON.BANK=0, from the datasheet.
const (
	IODIRA uint8 = 0x00
	IODIRB uint8 = 0x01
	GPPUA  uint8 = 0x0c
	GPPUB  uint8 = 0x0d
	GPIOA  uint8 = 0x12
	GPIOB  uint8 = 0x13
	OLATA  uint8 = 0x14
	OLATB  uint8 = 0x15
)

// Write is one recorded register write.
type Write struct {
	Reg   uint8
	Value uint8
}

// Bank is an in-memory MCP23017. The zero value is not usable; call New.
//
// Input pins read the externally driven level if one was set with DrivePin,
// the pull-up level if GPPU is set, and low otherwise. Output pins read
// their latch, as on the real chip.
type Bank struct {
	mu     sync.Mutex
	addr   uint16
	iodir  [2]uint8
	gppu   [2]uint8
	olat   [2]uint8
	driven [2]uint8
	level  [2]uint8

	// Writes is every register write seen, in bus order.
	Writes []Write
}

// New returns a Bank in the chip's power-on state (all pins input, pull-ups
// and latches clear) that accepts transactions for the given address.
func New(addr uint16) *Bank {
	return &Bank{
		addr:  addr,
		iodir: [2]uint8{0xff, 0xff},
	}
}

// DrivePin forces an external level onto a pin, as a button or a jumper
// wire would.
func (b *Bank) DrivePin(pin int, high bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	port, bit := pin/8, uint8(pin%8)
	b.driven[port] |= 1 << bit
	if high {
		b.level[port] |= 1 << bit
	} else {
		b.level[port] &= ^(1 << bit)
	}
}

// ReleasePin lets a pin float again.
func (b *Bank) ReleasePin(pin int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	port, bit := pin/8, uint8(pin%8)
	b.driven[port] &= ^(1 << bit)
}

// Register returns the current value of a register.
func (b *Bank) Register(reg uint8) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, _ := b.readRegister(reg)
	return v
}

// State returns the direction, pull-up and latch registers as a comparable
// snapshot.
func (b *Bank) State() [6]uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return [6]uint8{
		b.iodir[0], b.iodir[1],
		b.gppu[0], b.gppu[1],
		b.olat[0], b.olat[1],
	}
}

// Tx implements i2c.Bus. The first written byte addresses a register;
// further written bytes and all read bytes walk forward through the register
// file, as the chip does in sequential mode.
func (b *Bank) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr != b.addr {
		return fmt.Errorf("mcp23017test: unexpected address %#x, simulating %#x", addr, b.addr)
	}
	if len(w) == 0 {
		return fmt.Errorf("mcp23017test: transaction without a register address")
	}
	reg := w[0]
	for _, v := range w[1:] {
		if err := b.writeRegister(reg, v); err != nil {
			return err
		}
		reg++
	}
	for i := range r {
		v, err := b.readRegister(reg)
		if err != nil {
			return err
		}
		r[i] = v
		reg++
	}
	return nil
}

func (b *Bank) writeRegister(reg, value uint8) error {
	switch reg {
	case IODIRA, IODIRB:
		b.iodir[reg-IODIRA] = value
	case GPPUA, GPPUB:
		b.gppu[reg-GPPUA] = value
	case GPIOA, GPIOB:
		// A GPIO write modifies the output latch.
		b.olat[reg-GPIOA] = value
	case OLATA, OLATB:
		b.olat[reg-OLATA] = value
	default:
		return fmt.Errorf("mcp23017test: write to unsupported register %#x", reg)
	}
	b.Writes = append(b.Writes, Write{Reg: reg, Value: value})
	return nil
}

func (b *Bank) readRegister(reg uint8) (uint8, error) {
	switch reg {
	case IODIRA, IODIRB:
		return b.iodir[reg-IODIRA], nil
	case GPPUA, GPPUB:
		return b.gppu[reg-GPPUA], nil
	case OLATA, OLATB:
		return b.olat[reg-OLATA], nil
	case GPIOA, GPIOB:
		port := reg - GPIOA
		in := b.driven[port]&b.level[port] | ^b.driven[port]&b.gppu[port]
		return b.iodir[port]&in | ^b.iodir[port]&b.olat[port], nil
	default:
		return 0, fmt.Errorf("mcp23017test: read of unsupported register %#x", reg)
	}
}

func (b *Bank) String() string {
	return fmt.Sprintf("mcp23017test_%x", b.addr)
}

// SetSpeed implements i2c.Bus. The simulated bus runs at any speed.
func (b *Bank) SetSpeed(f physic.Frequency) error {
	return nil
}

var _ i2c.Bus = &Bank{}
