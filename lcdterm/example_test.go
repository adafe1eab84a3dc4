// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdterm_test

import (
	"log"
	"time"

	"periph.io/x/lcdshield/lcdterm"
)

// Develop against the emulator, then swap in the real shield.
func Example() {
	lcd, err := lcdterm.New(&lcdterm.Opts{Rows: 2, Cols: 16})
	if err != nil {
		log.Fatal(err)
	}
	_ = lcd.RGBBacklight(0, 0xff, 0xff)
	_, _ = lcd.WriteString("Hello!")
	_ = lcd.MoveTo(2, 1)
	_, _ = lcd.WriteString("from a terminal")
	time.Sleep(2 * time.Second)
	_ = lcd.Halt()
}
