// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdshield

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// HD44780 instruction set. Each command byte is the opcode OR'd with its
// flag bits.
const (
	lcdClearDisplay   byte = 0x01
	lcdReturnHome     byte = 0x02
	lcdEntryModeSet   byte = 0x04
	lcdDisplayControl byte = 0x08
	lcdCursorShift    byte = 0x10
	lcdFunctionSet    byte = 0x20
	lcdSetCGRAMAddr   byte = 0x40
	lcdSetDDRAMAddr   byte = 0x80

	// Entry mode flags.
	lcdEntryLeft           byte = 0x02
	lcdEntryShiftIncrement byte = 0x01

	// Display control flags.
	lcdDisplayOn byte = 0x04
	lcdCursorOn  byte = 0x02
	lcdBlinkOn   byte = 0x01

	// Cursor/display shift flags.
	lcdDisplayMove byte = 0x08
	lcdMoveRight   byte = 0x04

	// Function set flags.
	lcd8BitMode byte = 0x10
	lcd2Line    byte = 0x08
	lcd5x10Dots byte = 0x04

	// A byte value of 0xfe at the start of a Write marks the remaining
	// bytes as commands rather than characters.
	cmdByte byte = 0xfe

	packageName = "lcdshield"
)

// Controller timing from the HD44780U datasheet. Shorting any of these
// leaves the controller in a corrupted state with no way to detect it
// afterwards.
const (
	powerUpTime     = 50 * time.Millisecond
	resetHoldTime   = 4500 * time.Microsecond
	resetTailTime   = 150 * time.Microsecond
	enablePulseTime = time.Microsecond
	settleTime      = 100 * time.Microsecond
	clearTime       = 2 * time.Millisecond
)

// Font selects the character cell height. Font5x10 only exists on single
// line displays.
type Font byte

const (
	Font5x8 Font = iota
	Font5x10
)

var ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Opts is the pin configuration of a display. The mapping is consumed
// as-is; any provider of the gpio interfaces works, an expander as well as
// host pins.
type Opts struct {
	// Data is the parallel bus. Four pins select 4-bit mode with the lines
	// on D4-D7 of the display, eight or more pins select 8-bit mode.
	// Group bit 0 is the lowest data line.
	Data gpio.Group
	// RS selects between command and character transfers.
	RS gpio.PinOut
	// Enable clocks a transfer. The controller latches on the falling
	// edge.
	Enable gpio.PinOut
	// RW selects read or write. It may be nil if the line is strapped
	// low; when present it is held low, as this driver never reads the
	// controller.
	RW gpio.PinOut
	// Backlight may be nil, a display.DisplayBacklight or a
	// display.DisplayRGBBacklight.
	Backlight any
	// Buttons is an optional group of momentary buttons, lowest group bit
	// first. ButtonsActiveLow applies when a pressed button pulls its line
	// low.
	Buttons          gpio.Group
	ButtonsActiveLow bool

	Rows, Cols int
	Font       Font
}

// Dev drives an HD44780 compatible character LCD and an optional keypad.
//
// The three controller mode bytes (function, control, mode) live here and
// are the single source of truth: every mutation recomposes and resends the
// full byte, since the controller offers no way to read the current mode
// back.
//
// Dev is not safe for concurrent use. The mutex only keeps one Write's byte
// stream contiguous on the bus; the mode bytes are unguarded, so calls that
// change them must come from a single goroutine.
//
// Implements display.TextDisplay, display.DisplayBacklight and
// display.DisplayRGBBacklight.
type Dev struct {
	data       gpio.Group
	rs, enable gpio.PinOut
	rw         gpio.PinOut
	blMono     display.DisplayBacklight
	blRGB      display.DisplayRGBBacklight
	buttons    gpio.Group
	buttonsLow bool

	rows, cols int
	rowOffsets [4]byte

	mu       sync.Mutex
	function byte
	control  byte
	mode     byte
}

// New returns a display initialized and ready for use, with the display on,
// cursor and blink off and text flowing left to right.
func New(opts *Opts) (*Dev, error) {
	if opts.Data == nil || opts.RS == nil || opts.Enable == nil {
		return nil, fmt.Errorf("%s: data, rs and enable pins are required", packageName)
	}
	if len(opts.Data.Pins()) < 4 {
		return nil, fmt.Errorf("%s: the data bus needs at least 4 pins", packageName)
	}
	if opts.Rows < 1 || opts.Rows > 4 || opts.Cols < 1 || opts.Cols > 40 {
		return nil, fmt.Errorf("%s: unsupported geometry %dx%d", packageName, opts.Cols, opts.Rows)
	}

	dev := &Dev{
		data:       opts.Data,
		rs:         opts.RS,
		enable:     opts.Enable,
		rw:         opts.RW,
		buttons:    opts.Buttons,
		buttonsLow: opts.ButtonsActiveLow,
		rows:       opts.Rows,
		cols:       opts.Cols,
		// DDRAM row bases: rows 2 and 3 continue rows 0 and 1.
		rowOffsets: [4]byte{0x00, 0x40, byte(opts.Cols), byte(0x40 + opts.Cols)},
	}
	switch bl := opts.Backlight.(type) {
	case display.DisplayRGBBacklight:
		dev.blRGB = bl
	case display.DisplayBacklight:
		dev.blMono = bl
	}

	if len(opts.Data.Pins()) >= 8 {
		dev.function |= lcd8BitMode
	}
	if opts.Rows > 1 {
		dev.function |= lcd2Line
	} else if opts.Font == Font5x10 {
		// The controller only supports the tall font on one line.
		dev.function |= lcd5x10Dots
	}

	if err := dev.init(); err != nil {
		return nil, wrap(err)
	}
	return dev, nil
}

// init runs the power-up reset sequence from the datasheet. The controller
// can come up in any of 8-bit, 4-bit or half-way through a 4-bit transfer,
// so the function set is forced multiple times at intervals before the
// final mode is programmed. There is no feedback channel; mistiming a step
// simply leaves the display scrambled.
func (dev *Dev) init() error {
	time.Sleep(powerUpTime)
	if err := dev.rs.Out(gpio.Low); err != nil {
		return err
	}
	if err := dev.enable.Out(gpio.Low); err != nil {
		return err
	}
	if dev.rw != nil {
		if err := dev.rw.Out(gpio.Low); err != nil {
			return err
		}
	}

	if dev.function&lcd8BitMode == 0 {
		// Force 8-bit mode three times with only the high nibble wired,
		// then switch to 4-bit.
		for _, d := range []time.Duration{resetHoldTime, resetHoldTime, resetTailTime} {
			if err := dev.write4bits(0x03); err != nil {
				return err
			}
			time.Sleep(d)
		}
		if err := dev.write4bits(0x02); err != nil {
			return err
		}
	} else {
		fs := lcdFunctionSet | dev.function
		for _, d := range []time.Duration{resetHoldTime, resetTailTime, 0} {
			if err := dev.write8bits(fs); err != nil {
				return err
			}
			time.Sleep(d)
		}
	}

	if err := dev.Command(lcdFunctionSet | dev.function); err != nil {
		return err
	}
	dev.control = lcdDisplayOn
	if err := dev.Command(lcdDisplayControl | dev.control); err != nil {
		return err
	}
	if err := dev.Clear(); err != nil {
		return err
	}
	dev.mode = lcdEntryLeft
	if err := dev.Command(lcdEntryModeSet | dev.mode); err != nil {
		return err
	}

	if dev.blMono != nil || dev.blRGB != nil {
		return dev.Backlight(0xff)
	}
	return nil
}

// Command sends a single instruction byte to the controller.
func (dev *Dev) Command(c byte) error {
	_, err := dev.Write([]byte{cmdByte, c})
	return err
}

// Write sends bytes to the display. A leading 0xfe byte routes the rest of
// the buffer to the instruction register; anything else is written to DDRAM
// at the current cursor position. The count of display bytes consumed is
// returned for stream-style chaining.
func (dev *Dev) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if p[0] == cmdByte {
		n = len(p) - 1
		err = wrap(dev.sendCommands(p[1:]))
		return
	}
	if err = dev.rs.Out(gpio.High); err != nil {
		return 0, wrap(err)
	}
	for _, b := range p {
		if err = dev.writeByte(b); err != nil {
			return n, wrap(err)
		}
		n++
	}
	return
}

// WriteString writes text to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

func (dev *Dev) sendCommands(commands []byte) error {
	if err := dev.rs.Out(gpio.Low); err != nil {
		return err
	}
	for _, c := range commands {
		if err := dev.writeByte(c); err != nil {
			return err
		}
		if c == lcdClearDisplay || c == lcdReturnHome {
			// These rewrite all of DDRAM and take the controller much
			// longer than a normal instruction.
			time.Sleep(clearTime)
		}
	}
	return nil
}

func (dev *Dev) writeByte(b byte) error {
	if dev.function&lcd8BitMode != 0 {
		return dev.write8bits(b)
	}
	if err := dev.write4bits(b >> 4); err != nil {
		return err
	}
	return dev.write4bits(b & 0x0f)
}

func (dev *Dev) write4bits(v byte) error {
	if err := dev.data.Out(gpio.GPIOValue(v), 0x0f); err != nil {
		return err
	}
	return dev.pulseEnable()
}

func (dev *Dev) write8bits(v byte) error {
	if err := dev.data.Out(gpio.GPIOValue(v), 0xff); err != nil {
		return err
	}
	return dev.pulseEnable()
}

// pulseEnable clocks the current data lines into the controller. The
// controller latches on the falling edge; the pulse must stay high for at
// least 450ns and the instruction needs over 37µs to execute.
func (dev *Dev) pulseEnable() error {
	if err := dev.enable.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(enablePulseTime)
	if err := dev.enable.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(enablePulseTime)
	if err := dev.enable.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(settleTime)
	return nil
}

// Clear erases the display and moves the cursor to the origin.
func (dev *Dev) Clear() error {
	return dev.Command(lcdClearDisplay)
}

// Home moves the cursor to the origin and undoes any display scroll.
func (dev *Dev) Home() error {
	return dev.Command(lcdReturnHome)
}

// SetCursor moves the cursor to the zero-based column and row. Rows beyond
// the display clamp to the last row.
func (dev *Dev) SetCursor(col, row int) error {
	if row < 0 {
		row = 0
	}
	if row >= dev.rows {
		row = dev.rows - 1
	}
	return dev.Command(lcdSetDDRAMAddr | (byte(col) + dev.rowOffsets[row]))
}

// MoveTo moves the cursor to the one-based row and column per
// display.TextDisplay.
func (dev *Dev) MoveTo(row, col int) error {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	return dev.SetCursor(col-1, row-1)
}

// Display turns the display on or off without losing its contents.
func (dev *Dev) Display(on bool) error {
	if on {
		dev.control |= lcdDisplayOn
	} else {
		dev.control &^= lcdDisplayOn
	}
	return dev.Command(lcdDisplayControl | dev.control)
}

// Cursor sets the cursor mode. Modes combine: CursorOff clears both the
// underline and the blinking block, CursorUnderline and CursorBlink enable
// one each, and CursorBlock enables both.
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			dev.control &^= lcdCursorOn | lcdBlinkOn
		case display.CursorUnderline:
			dev.control |= lcdCursorOn
		case display.CursorBlink:
			dev.control |= lcdBlinkOn
		case display.CursorBlock:
			dev.control |= lcdCursorOn | lcdBlinkOn
		default:
			return fmt.Errorf("%s: unexpected cursor mode: %d", packageName, mode)
		}
	}
	return dev.Command(lcdDisplayControl | dev.control)
}

// Move moves the cursor one position without touching DDRAM.
func (dev *Dev) Move(dir display.CursorDirection) error {
	var val byte = lcdCursorShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= lcdMoveRight
	default:
		return ErrNotImplemented
	}
	return dev.Command(val)
}

// ScrollLeft shifts the whole display one column to the left without
// changing DDRAM. The shift amount is not stored in the mode bytes; the
// controller tracks it internally until Home or Clear.
func (dev *Dev) ScrollLeft() error {
	return dev.Command(lcdCursorShift | lcdDisplayMove)
}

// ScrollRight shifts the whole display one column to the right without
// changing DDRAM.
func (dev *Dev) ScrollRight() error {
	return dev.Command(lcdCursorShift | lcdDisplayMove | lcdMoveRight)
}

// LeftToRight makes new text flow left to right.
func (dev *Dev) LeftToRight() error {
	dev.mode |= lcdEntryLeft
	return dev.Command(lcdEntryModeSet | dev.mode)
}

// RightToLeft makes new text flow right to left.
func (dev *Dev) RightToLeft() error {
	dev.mode &^= lcdEntryLeft
	return dev.Command(lcdEntryModeSet | dev.mode)
}

// AutoScroll shifts the display on every written character so that the
// cursor appears to stand still.
func (dev *Dev) AutoScroll(enabled bool) error {
	if enabled {
		dev.mode |= lcdEntryShiftIncrement
	} else {
		dev.mode &^= lcdEntryShiftIncrement
	}
	return dev.Command(lcdEntryModeSet | dev.mode)
}

// CreateChar programs one of the eight CGRAM glyph slots. Slots above 7
// wrap around. Each glyph byte is one font row, bit 4 the leftmost column.
// The cursor position is clobbered; call SetCursor afterwards before
// writing text.
func (dev *Dev) CreateChar(slot int, glyph [8]byte) error {
	slot &= 0x7
	if err := dev.Command(lcdSetCGRAMAddr | byte(slot)<<3); err != nil {
		return err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	// The rows go straight to the data register: a row byte equal to the
	// command escape must not be reinterpreted.
	if err := dev.rs.Out(gpio.High); err != nil {
		return wrap(err)
	}
	for _, b := range glyph {
		if err := dev.writeByte(b); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// Rows returns the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// Cols returns the number of columns the display supports.
func (dev *Dev) Cols() int {
	return dev.cols
}

// MinRow returns the minimum row position.
func (dev *Dev) MinRow() int {
	return 1
}

// MinCol returns the minimum column position.
func (dev *Dev) MinCol() int {
	return 1
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s::%s - Rows: %d, Cols: %d", packageName, dev.data, dev.rows, dev.cols)
}

// Halt clears the display and turns it and the backlight off.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	if dev.blMono != nil || dev.blRGB != nil {
		_ = dev.Backlight(0)
	}
	_ = dev.Display(false)
	return dev.data.Halt()
}

// Backlight sets the backlight intensity through whichever controller was
// configured.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	if dev.blMono != nil {
		return dev.blMono.Backlight(intensity)
	}
	if dev.blRGB != nil {
		return dev.blRGB.RGBBacklight(intensity, intensity, intensity)
	}
	return ErrNotImplemented
}

// RGBBacklight sets the backlight color on displays that have one.
func (dev *Dev) RGBBacklight(red, green, blue display.Intensity) error {
	if dev.blRGB != nil {
		return dev.blRGB.RGBBacklight(red, green, blue)
	}
	if dev.blMono != nil {
		return dev.blMono.Backlight(red | green | blue)
	}
	return ErrNotImplemented
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ display.DisplayRGBBacklight = &Dev{}
var _ conn.Resource = &Dev{}
