// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// spiReadBit marks a transfer as a read in the LSM6DSV320X SPI frame.
const spiReadBit = 0x80

// SPI drives the sensor over a 4-wire SPI port opened through the
// periph registry. The auxiliary interface is SPI-only on real hardware,
// so this is the transport the OIS side normally uses.
type SPI struct {
	port spi.PortCloser
	conn spi.Conn
}

// NewSPI opens the named SPI port ("SPI0.0", "/dev/spidev0.0", ...) at
// the given clock frequency. The device uses SPI mode 3.
func NewSPI(portName string, freq physic.Frequency) (*SPI, error) {
	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("spi open %q: %w", portName, err)
	}
	conn, err := p.Connect(freq, spi.Mode3, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("spi connect %q: %w", portName, err)
	}
	return &SPI{port: p, conn: conn}, nil
}

func (c *SPI) Read(reg uint8, buf []byte) error {
	w := make([]byte, 1+len(buf))
	r := make([]byte, 1+len(buf))
	w[0] = reg | spiReadBit
	if err := c.conn.Tx(w, r); err != nil {
		return fmt.Errorf("spi read 0x%02X: %w", reg, err)
	}
	copy(buf, r[1:])
	return nil
}

func (c *SPI) Write(reg uint8, data []byte) error {
	w := make([]byte, 0, 1+len(data))
	w = append(w, reg&^uint8(spiReadBit))
	w = append(w, data...)
	if err := c.conn.Tx(w, nil); err != nil {
		return fmt.Errorf("spi write 0x%02X: %w", reg, err)
	}
	return nil
}

func (c *SPI) Wait(d time.Duration) { time.Sleep(d) }

// Close releases the underlying port.
func (c *SPI) Close() error { return c.port.Close() }
