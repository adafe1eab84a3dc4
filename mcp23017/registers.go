// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import "periph.io/x/conn/v3/i2c"

// MCP23017 register addresses with IOCON.BANK=0, the power-on default. The
// registers are paired: the port B copy sits directly after the port A copy.
const (
	regIODIRA uint8 = 0x00
	regIODIRB uint8 = 0x01
	regGPPUA  uint8 = 0x0c
	regGPPUB  uint8 = 0x0d
	regGPIOA  uint8 = 0x12
	regGPIOB  uint8 = 0x13
	regOLATA  uint8 = 0x14
	regOLATB  uint8 = 0x15
)

// registerCache caches the last known value of an 8 bit register so that
// read-modify-write sequences don't pay for a bus read every time. The chip
// has no single-bit-set instruction, so every bit change is a full byte
// write.
//
// wraddress is the register written through on update. It matters for the
// output latch: reads come from OLAT, but writes go to the GPIO register,
// which the chip lands in OLAT anyway.
type registerCache struct {
	i2c       *i2c.Dev
	address   uint8
	wraddress uint8
	got       bool
	cache     uint8
}

func newRegister(i2c *i2c.Dev, address uint8) registerCache {
	return registerCache{
		i2c:       i2c,
		address:   address,
		wraddress: address,
	}
}

func newLatchRegister(i2c *i2c.Dev, rdAddress, wrAddress uint8) registerCache {
	return registerCache{
		i2c:       i2c,
		address:   rdAddress,
		wraddress: wrAddress,
	}
}

func (r *registerCache) readRegister(address uint8) (uint8, error) {
	rx := make([]byte, 1)
	err := r.i2c.Tx([]byte{address}, rx)
	return rx[0], err
}

func (r *registerCache) writeRegister(address uint8, value uint8) error {
	return r.i2c.Tx([]byte{address, value}, nil)
}

func (r *registerCache) readValue(cached bool) (uint8, error) {
	if cached && r.got {
		return r.cache, nil
	}
	v, err := r.readRegister(r.address)
	if err == nil {
		r.got = true
		r.cache = v
	}
	return v, err
}

func (r *registerCache) writeValue(value uint8, cached bool) error {
	if cached && r.got && value == r.cache {
		return nil
	}

	err := r.writeRegister(r.wraddress, value)
	if err != nil {
		return err
	}
	r.got = true
	r.cache = value
	return nil
}

func (r *registerCache) getAndSetBit(bit uint8, value bool, cached bool) error {
	v, err := r.readValue(cached)
	if err != nil {
		return err
	}
	if value {
		v |= 1 << bit
	} else {
		v &= ^(1 << bit)
	}
	return r.writeValue(v, cached)
}

func (r *registerCache) getBit(bit uint8, cached bool) (bool, error) {
	v, err := r.readValue(cached)
	return (v & (1 << bit)) != 0, err
}
