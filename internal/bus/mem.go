// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"sync"
	"time"

	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
)

// Device simulates the LSM6DSV320X register file. It backs both host
// interfaces with one byte-addressed store, models the physical aliasing
// of the OIS control bank (0x6F-0x72 is the same storage through either
// space), and lets tests and sim-mode tools inject write hooks and
// scripted transport failures.
type Device struct {
	mu      sync.Mutex
	cells   map[uint16]byte
	onWrite func(space regmap.Space, reg uint8, data []byte)
}

// NewDevice returns a simulated device with both identification
// registers holding the fixed LSM6DSV320X id.
func NewDevice() *Device {
	d := &Device{cells: make(map[uint16]byte)}
	d.cells[cell(regmap.Primary, regmap.UIWhoAmI)] = regmap.WhoAmI
	d.cells[cell(regmap.Auxiliary, regmap.IF2WhoAmI)] = regmap.WhoAmI
	return d
}

// cell maps an interface-scoped byte address to its physical storage
// key. The OIS control bank is reachable from both spaces.
func cell(space regmap.Space, reg uint8) uint16 {
	if reg >= 0x6F && reg <= 0x72 {
		space = regmap.Auxiliary
	}
	return uint16(space)<<8 | uint16(reg)
}

// OnWrite installs a hook invoked after every applied write. Handshake
// tests use it to play the companion interface's firmware, answering a
// shared_req with a shared_ack.
func (d *Device) OnWrite(fn func(space regmap.Space, reg uint8, data []byte)) {
	d.mu.Lock()
	d.onWrite = fn
	d.mu.Unlock()
}

// Peek reads one byte of storage without a bus transaction.
func (d *Device) Peek(space regmap.Space, reg uint8) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cells[cell(space, reg)]
}

// Poke stores bytes starting at reg without a bus transaction.
func (d *Device) Poke(space regmap.Space, reg uint8, data ...byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, b := range data {
		d.cells[cell(space, reg+uint8(i))] = b
	}
}

// Primary returns a bus handle addressing the primary (UI) space.
func (d *Device) Primary() *Mem {
	return &Mem{dev: d, space: regmap.Primary}
}

// Auxiliary returns a bus handle addressing the auxiliary (IF2) space.
func (d *Device) Auxiliary() *Mem {
	return &Mem{dev: d, space: regmap.Auxiliary}
}

// WriteOp records one write transaction issued through a Mem handle.
type WriteOp struct {
	Reg  uint8
	Data []byte
}

// Mem is one interface's bus handle onto a simulated Device. It records
// every transaction and can fail scripted reads or writes, standing in
// for a flaky transport.
type Mem struct {
	dev   *Device
	space regmap.Space

	mu            sync.Mutex
	writes        []WriteOp
	waits         []time.Duration
	reads         int
	writeAttempts int
	writeFails    map[int]error
	readFails     map[int]error
}

// FailOnWrite makes the n-th write (0-based, counted on this handle)
// return err without touching storage.
func (m *Mem) FailOnWrite(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeFails == nil {
		m.writeFails = make(map[int]error)
	}
	m.writeFails[n] = err
}

// FailOnRead makes the n-th read (0-based) return err.
func (m *Mem) FailOnRead(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readFails == nil {
		m.readFails = make(map[int]error)
	}
	m.readFails[n] = err
}

// Writes returns the write transactions issued so far.
func (m *Mem) Writes() []WriteOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WriteOp, len(m.writes))
	copy(out, m.writes)
	return out
}

// Waits returns the delays requested so far.
func (m *Mem) Waits() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.waits))
	copy(out, m.waits)
	return out
}

func (m *Mem) Read(reg uint8, buf []byte) error {
	m.mu.Lock()
	n := m.reads
	m.reads++
	err := m.readFails[n]
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.dev.mu.Lock()
	for i := range buf {
		buf[i] = m.dev.cells[cell(m.space, reg+uint8(i))]
	}
	m.dev.mu.Unlock()
	return nil
}

func (m *Mem) Write(reg uint8, data []byte) error {
	m.mu.Lock()
	attempt := m.writeAttempts
	m.writeAttempts++
	if err := m.writeFails[attempt]; err != nil {
		m.mu.Unlock()
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.writes = append(m.writes, WriteOp{Reg: reg, Data: cp})
	m.mu.Unlock()

	m.dev.mu.Lock()
	for i, b := range data {
		m.dev.cells[cell(m.space, reg+uint8(i))] = b
	}
	hook := m.dev.onWrite
	m.dev.mu.Unlock()

	if hook != nil {
		hook(m.space, reg, data)
	}
	return nil
}

// Wait records the delay instead of sleeping; simulated time needs no
// settling.
func (m *Mem) Wait(d time.Duration) {
	m.mu.Lock()
	m.waits = append(m.waits, d)
	m.mu.Unlock()
}
