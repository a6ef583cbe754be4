// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// I2C drives the sensor over an I2C bus opened through the periph
// registry. The register address is written, then data is transferred in
// the same transaction, so multi-byte reads stay coherent.
type I2C struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// NewI2C opens the named I2C bus ("1", "/dev/i2c-1", ...) and binds the
// device at addr (0x6A or 0x6B depending on the SA0 pin).
func NewI2C(busName string, addr uint16) (*I2C, error) {
	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", busName, err)
	}
	return &I2C{bus: b, dev: &i2c.Dev{Bus: b, Addr: addr}}, nil
}

func (c *I2C) Read(reg uint8, buf []byte) error {
	if err := c.dev.Tx([]byte{reg}, buf); err != nil {
		return fmt.Errorf("i2c read 0x%02X: %w", reg, err)
	}
	return nil
}

func (c *I2C) Write(reg uint8, data []byte) error {
	w := make([]byte, 0, 1+len(data))
	w = append(w, reg)
	w = append(w, data...)
	if err := c.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("i2c write 0x%02X: %w", reg, err)
	}
	return nil
}

func (c *I2C) Wait(d time.Duration) { time.Sleep(d) }

// Close releases the underlying bus.
func (c *I2C) Close() error { return c.bus.Close() }
