// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/lsm6dsv320x/internal/bus"
	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
)

// ErrArbitrationTimeout means the companion interface did not grant
// shared register access within the poll budget. The request bit is
// cleared before this is returned, so the protocol is back in Idle and
// the caller may retry with whatever backoff policy it wants.
var ErrArbitrationTimeout = errors.New("shared register arbitration timed out")

// HandshakeState is the requester-side view of the arbitration protocol.
type HandshakeState int

const (
	Idle HandshakeState = iota
	Requested
	Granted
)

func (s HandshakeState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Granted:
		return "granted"
	}
	return fmt.Sprintf("handshake(%d)", int(s))
}

// Arbiter runs the request/acknowledge handshake that coordinates
// access to the register bank shared by the two host interfaces. The
// other side of the race is independently-clocked firmware, not a
// goroutine, so this is protocol-level polling with a bounded budget
// rather than a lock.
type Arbiter struct {
	bus    bus.Bus
	codec  *regmap.Codec
	schema regmap.Schema
	polls  int
	pause  time.Duration
	state  HandshakeState
}

// NewArbiter returns an arbiter over the handshake register of the
// given space, polling the acknowledge bit up to polls times with pause
// between reads.
func NewArbiter(b bus.Bus, codec *regmap.Codec, space regmap.Space, polls int, pause time.Duration) *Arbiter {
	addr := regmap.UIHandshakeCtrl
	if space == regmap.Auxiliary {
		addr = regmap.IF2HandshakeCtrl
	}
	schema, _ := regmap.Lookup(space, addr)
	return &Arbiter{bus: b, codec: codec, schema: schema, polls: polls, pause: pause}
}

// State reports the current protocol state.
func (a *Arbiter) State() HandshakeState { return a.state }

// Acquire raises shared_req and polls shared_ack until the companion
// interface grants access or the poll budget runs out. On timeout the
// request bit is cleared before returning, never leaving the protocol
// latched in Requested.
func (a *Arbiter) Acquire() error {
	if err := a.setRequest(1); err != nil {
		return err
	}
	a.state = Requested

	for i := 0; i < a.polls; i++ {
		ack, err := a.readAck()
		if err != nil {
			a.abandon()
			return err
		}
		if ack {
			a.state = Granted
			return nil
		}
		a.bus.Wait(a.pause)
	}

	if err := a.setRequest(0); err != nil {
		a.state = Idle
		return fmt.Errorf("clearing shared_req after poll budget: %v: %w", err, ErrArbitrationTimeout)
	}
	a.state = Idle
	return fmt.Errorf("%s: no shared_ack after %d polls: %w", a.schema.Name, a.polls, ErrArbitrationTimeout)
}

// Release drops shared_req, handing the bank back to the owning side.
func (a *Arbiter) Release() error {
	err := a.setRequest(0)
	a.state = Idle
	return err
}

// WithShared runs fn while holding shared access. Release always
// happens, even when fn fails.
func (a *Arbiter) WithShared(fn func() error) error {
	if err := a.Acquire(); err != nil {
		return err
	}
	fnErr := fn()
	if err := a.Release(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

// abandon clears the request bit on a best-effort basis when a poll
// read failed; the read error is what the caller sees.
func (a *Arbiter) abandon() {
	_ = a.setRequest(0)
	a.state = Idle
}

func (a *Arbiter) setRequest(v uint16) error {
	raw := make([]byte, a.schema.Size)
	if err := a.bus.Read(a.schema.Addr, raw); err != nil {
		return fmt.Errorf("%s: %w", a.schema.Name, err)
	}
	raw, err := a.codec.Insert(a.schema, raw, "shared_req", v)
	if err != nil {
		return err
	}
	if err := a.bus.Write(a.schema.Addr, raw); err != nil {
		return fmt.Errorf("%s: %w", a.schema.Name, err)
	}
	return nil
}

func (a *Arbiter) readAck() (bool, error) {
	raw := make([]byte, a.schema.Size)
	if err := a.bus.Read(a.schema.Addr, raw); err != nil {
		return false, fmt.Errorf("%s: %w", a.schema.Name, err)
	}
	ack, err := a.codec.Extract(a.schema, raw, "shared_ack")
	if err != nil {
		return false, err
	}
	return ack == 1, nil
}
