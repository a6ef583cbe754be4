// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package program applies compiled configuration programs to the
// device. A program is the ordered output of an external compiler that
// translates a vendor behavior descriptor into register writes and
// settling delays; this package only executes it, strictly in order.
package program

import (
	"fmt"
	"time"

	"github.com/relabs-tech/lsm6dsv320x/internal/bus"
)

// Operation is one step of a configuration program: a register write or
// a settling delay.
type Operation interface {
	isOperation()
}

// WriteRegister stores one byte at a register address.
type WriteRegister struct {
	Addr  uint8
	Value uint8
}

// Delay pauses before the next operation. Some writes are only valid
// after the device has settled, so delays are load-bearing and are never
// skipped or reordered.
type Delay struct {
	Duration time.Duration
}

func (WriteRegister) isOperation() {}
func (Delay) isOperation()         {}

// Program is an ordered, finite operation sequence. It is owned by the
// caller and never mutated here.
type Program []Operation

// ApplyError reports the operation index a program aborted at and the
// transport error that caused it. Operations before Index were issued;
// operations after it were never attempted.
type ApplyError struct {
	Index int
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("program aborted at operation %d: %v", e.Index, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Loader executes programs against one bus handle.
type Loader struct {
	bus bus.Bus
}

// NewLoader returns a loader bound to b.
func NewLoader(b bus.Bus) *Loader {
	return &Loader{bus: b}
}

// Apply issues every operation in order. No reordering and no batching
// of adjacent writes: the interleaved delays are part of the hardware
// contract. The first transport failure stops the run immediately and is
// reported as an *ApplyError carrying the failed index.
//
// Re-applying a program to a device already in the target state reaches
// the same register state, except for fields the hardware clears on
// read; the loader does not special-case those.
func (l *Loader) Apply(p Program) error {
	for i, op := range p {
		switch op := op.(type) {
		case WriteRegister:
			if err := l.bus.Write(op.Addr, []byte{op.Value}); err != nil {
				return &ApplyError{Index: i, Err: err}
			}
		case Delay:
			l.bus.Wait(op.Duration)
		default:
			return &ApplyError{Index: i, Err: fmt.Errorf("unsupported operation type %T", op)}
		}
	}
	return nil
}
