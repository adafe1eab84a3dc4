// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// pinGroup is a set of expander pins accessed as one value. Bit 0 of a group
// value is the first pin given to Group(), regardless of which port it lives
// on.
type pinGroup struct {
	dev         *Dev
	pins        []*portpin
	defaultMask gpio.GPIOValue
}

// Group returns a gpio.Group made up of the given pin numbers. The group may
// span both ports; reads are performed as a single 16-bit transaction so the
// pins are sampled at the same instant.
func (d *Dev) Group(pins ...int) (gpio.Group, error) {
	grouppins := make([]*portpin, len(pins))
	for ix, number := range pins {
		if number < 0 || number > 15 {
			return nil, fmt.Errorf("mcp23017: pin %d is not on the device", number)
		}
		grouppins[ix] = d.Pins[number].(*portpin)
	}
	return &pinGroup{
		dev:         d,
		pins:        grouppins,
		defaultMask: gpio.GPIOValue(1<<len(pins)) - 1,
	}, nil
}

// Pins returns the set of pin.Pin that make up the group.
func (pg *pinGroup) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(pg.pins))
	for ix, p := range pg.pins {
		pins[ix] = p
	}
	return pins
}

// ByOffset returns the pin at the given offset within the group.
func (pg *pinGroup) ByOffset(offset int) pin.Pin {
	return pg.pins[offset]
}

// ByName returns the pin with the given name, or nil if it isn't in the
// group.
func (pg *pinGroup) ByName(name string) pin.Pin {
	for _, p := range pg.pins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// ByNumber returns the pin with the given device pin number, or nil if it
// isn't in the group.
func (pg *pinGroup) ByNumber(number int) pin.Pin {
	for _, p := range pg.pins {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

// deviceMask converts a group-relative value or mask into the 16-bit device
// layout.
func (pg *pinGroup) deviceMask(v gpio.GPIOValue) uint16 {
	var dv uint16
	for bit := range pg.pins {
		if v&(1<<bit) != 0 {
			dv |= 1 << pg.pins[bit].number
		}
	}
	return dv
}

// Out writes value to the pins selected by mask. A zero mask means all pins
// in the group. Pins not yet configured as outputs are reconfigured
// transparently.
func (pg *pinGroup) Out(value, mask gpio.GPIOValue) error {
	if mask == 0 {
		mask = pg.defaultMask
	} else {
		mask &= pg.defaultMask
	}
	value &= mask
	wr := pg.deviceMask(value)
	wrMask := pg.deviceMask(mask)

	for ix, p := range pg.dev.ports {
		pmask := uint8(wrMask >> (8 * ix))
		if pmask == 0 {
			continue
		}
		// High direction bits are inputs. Clear the ones we write.
		dirs, err := p.iodir.readValue(true)
		if err != nil {
			return err
		}
		if dirs&pmask != 0 {
			if err := p.iodir.writeValue(dirs&^pmask, true); err != nil {
				return err
			}
		}
	}

	loMask := uint8(wrMask)
	hiMask := uint8(wrMask >> 8)
	lo, err := pg.dev.ports[0].olat.readValue(true)
	if err != nil {
		return err
	}
	hi, err := pg.dev.ports[1].olat.readValue(true)
	if err != nil {
		return err
	}
	lo = lo&^loMask | uint8(wr)
	hi = hi&^hiMask | uint8(wr>>8)

	// When the write lands on both ports, use one 16-bit transaction so the
	// lines change together.
	if loMask != 0 && hiMask != 0 {
		return pg.dev.WriteGPIOAB(uint16(lo) | uint16(hi)<<8)
	}
	if loMask != 0 {
		return pg.dev.ports[0].olat.writeValue(lo, true)
	}
	return pg.dev.ports[1].olat.writeValue(hi, true)
}

// Read returns the level of the pins selected by mask as a group-relative
// value. A zero mask means all pins in the group. Pins not configured as
// inputs are reconfigured transparently. Both ports are read in a single bus
// transaction.
func (pg *pinGroup) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	if mask == 0 {
		mask = pg.defaultMask
	} else {
		mask &= pg.defaultMask
	}
	rdMask := pg.deviceMask(mask)

	for ix, p := range pg.dev.ports {
		pmask := uint8(rdMask >> (8 * ix))
		if pmask == 0 {
			continue
		}
		dirs, err := p.iodir.readValue(true)
		if err != nil {
			return 0, err
		}
		if dirs&pmask != pmask {
			if err := p.iodir.writeValue(dirs|pmask, true); err != nil {
				return 0, err
			}
		}
	}

	v, err := pg.dev.ReadGPIOAB()
	if err != nil {
		return 0, err
	}
	var result gpio.GPIOValue
	for ix, p := range pg.pins {
		if mask&(1<<ix) != 0 && v&(1<<p.number) != 0 {
			result |= 1 << ix
		}
	}
	return result, nil
}

// WaitForEdge is not supported. The INT lines of the chip are not reachable
// through the bus alone.
func (pg *pinGroup) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return -1, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

// Halt releases nothing; the group holds no resources of its own.
func (pg *pinGroup) Halt() error {
	return nil
}

func (pg *pinGroup) String() string {
	s := fmt.Sprintf("%s - [ ", pg.dev)
	for _, p := range pg.pins {
		s += fmt.Sprintf("%d ", p.number)
	}
	return s + "]"
}

var _ gpio.Group = &pinGroup{}
