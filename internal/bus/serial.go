// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"fmt"
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

// Serial bridge frame opcodes and status bytes.
const (
	bridgeRead  = 'R'
	bridgeWrite = 'W'
	bridgeAck   = 0x06
	bridgeNak   = 0x15
)

// Serial drives the sensor through a UART register bridge: a small MCU
// on the bench rig that forwards framed register transactions to the
// device. Request frames are {op, reg, len, payload...}; the bridge
// answers ACK followed by read payload, or NAK on a failed transaction.
type Serial struct {
	port io.ReadWriteCloser
}

// NewSerial opens the bridge on the named serial port.
func NewSerial(portName string, baudRate uint) (*Serial, error) {
	p, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("serial open %q: %w", portName, err)
	}
	return &Serial{port: p}, nil
}

func (c *Serial) Read(reg uint8, buf []byte) error {
	if len(buf) == 0 || len(buf) > 0xFF {
		return fmt.Errorf("serial read 0x%02X: unsupported length %d", reg, len(buf))
	}
	if _, err := c.port.Write([]byte{bridgeRead, reg, byte(len(buf))}); err != nil {
		return fmt.Errorf("serial read 0x%02X: %w", reg, err)
	}
	var status [1]byte
	if _, err := io.ReadFull(c.port, status[:]); err != nil {
		return fmt.Errorf("serial read 0x%02X: %w", reg, err)
	}
	if status[0] != bridgeAck {
		return fmt.Errorf("serial read 0x%02X: bridge NAK (0x%02X)", reg, status[0])
	}
	if _, err := io.ReadFull(c.port, buf); err != nil {
		return fmt.Errorf("serial read 0x%02X: %w", reg, err)
	}
	return nil
}

func (c *Serial) Write(reg uint8, data []byte) error {
	if len(data) == 0 || len(data) > 0xFF {
		return fmt.Errorf("serial write 0x%02X: unsupported length %d", reg, len(data))
	}
	frame := make([]byte, 0, 3+len(data))
	frame = append(frame, bridgeWrite, reg, byte(len(data)))
	frame = append(frame, data...)
	if _, err := c.port.Write(frame); err != nil {
		return fmt.Errorf("serial write 0x%02X: %w", reg, err)
	}
	var status [1]byte
	if _, err := io.ReadFull(c.port, status[:]); err != nil {
		return fmt.Errorf("serial write 0x%02X: %w", reg, err)
	}
	if status[0] != bridgeAck {
		return fmt.Errorf("serial write 0x%02X: bridge NAK (0x%02X)", reg, status[0])
	}
	return nil
}

func (c *Serial) Wait(d time.Duration) { time.Sleep(d) }

// Close releases the serial port.
func (c *Serial) Close() error { return c.port.Close() }
