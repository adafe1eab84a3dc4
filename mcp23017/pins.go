// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"errors"
	"strconv"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// portpin is a single expander pin exposed as gpio.PinIO.
type portpin struct {
	dev    *Dev
	port   *port
	pinbit uint8
	number int
}

func (p *portpin) String() string {
	return p.Name()
}

func (p *portpin) Halt() error {
	// High impedance input is the closest thing to off.
	return p.In(gpio.PullNoChange, gpio.NoEdge)
}

func (p *portpin) Name() string {
	return p.dev.String() + "_GP" + p.port.name + strconv.Itoa(int(p.pinbit))
}

func (p *portpin) Number() int {
	return p.number
}

func (p *portpin) Function() string {
	return string(p.Func())
}

func (p *portpin) In(pull gpio.Pull, edge gpio.Edge) error {
	switch pull {
	case gpio.PullDown:
		return errors.New("mcp23017: PullDown is not supported")
	case gpio.PullUp:
		if err := p.port.gppu.getAndSetBit(p.pinbit, true, true); err != nil {
			return err
		}
	case gpio.Float:
		if err := p.port.gppu.getAndSetBit(p.pinbit, false, true); err != nil {
			return err
		}
	case gpio.PullNoChange:
	}

	// Edge detection needs the INT lines wired to a host GPIO, which is
	// outside what the bus alone can provide.
	if edge != gpio.NoEdge {
		return errors.New("mcp23017: edge detection is not supported")
	}

	return p.port.iodir.getAndSetBit(p.pinbit, true, true)
}

func (p *portpin) Read() gpio.Level {
	v, _ := p.port.gpio.getBit(p.pinbit, false)
	return gpio.Level(v)
}

func (p *portpin) WaitForEdge(timeout time.Duration) bool {
	return false
}

func (p *portpin) Pull() gpio.Pull {
	v, _ := p.port.gppu.getBit(p.pinbit, true)
	if v {
		return gpio.PullUp
	}
	return gpio.Float
}

func (p *portpin) DefaultPull() gpio.Pull {
	return gpio.Float
}

func (p *portpin) Out(l gpio.Level) error {
	if err := p.port.iodir.getAndSetBit(p.pinbit, false, true); err != nil {
		return err
	}
	return p.port.olat.getAndSetBit(p.pinbit, l == gpio.High, true)
}

func (p *portpin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("mcp23017: PWM is not supported")
}

func (p *portpin) Func() pin.Func {
	v, _ := p.port.iodir.getBit(p.pinbit, true)
	if v {
		return gpio.IN
	}
	return gpio.OUT
}

func (p *portpin) SupportedFuncs() []pin.Func {
	return supportedFuncs[:]
}

func (p *portpin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.port.iodir.getAndSetBit(p.pinbit, true, true)
	case gpio.OUT:
		return p.port.iodir.getAndSetBit(p.pinbit, false, true)
	default:
		return errors.New("mcp23017: function not supported: " + string(f))
	}
}

var supportedFuncs = [...]pin.Func{gpio.IN, gpio.OUT}

var _ gpio.PinIO = &portpin{}
