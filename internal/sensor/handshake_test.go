// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/lsm6dsv320x/internal/bus"
	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
)

// grantOnRequest plays the companion interface's firmware: whenever a
// handshake register is written with shared_req set, it answers by
// setting shared_ack in the same register.
func grantOnRequest(dev *bus.Device, codec *regmap.Codec) {
	dev.OnWrite(func(sp regmap.Space, reg uint8, data []byte) {
		schema, ok := regmap.Lookup(sp, reg)
		if !ok || (schema.Name != "UI_HANDSHAKE_CTRL" && schema.Name != "IF2_HANDSHAKE_CTRL") {
			return
		}
		req, err := codec.Extract(schema, data, "shared_req")
		if err != nil {
			return
		}
		raw, err := codec.Insert(schema, data, "shared_ack", req)
		if err != nil {
			return
		}
		dev.Poke(sp, reg, raw...)
	})
}

func TestAcquireTimesOutAndClearsRequest(t *testing.T) {
	dev := bus.NewDevice()
	h := dev.Auxiliary()
	codec := regmap.NewCodec(regmap.LSBFirst)

	// Nobody ever acks: the poll budget must bound the wait.
	arb := NewArbiter(h, codec, regmap.Auxiliary, 8, 50*time.Microsecond)
	err := arb.Acquire()
	require.ErrorIs(t, err, ErrArbitrationTimeout)
	require.Equal(t, Idle, arb.State())

	// The request bit was cleared before returning; a timed-out caller
	// never leaves the protocol latched.
	raw := dev.Peek(regmap.Auxiliary, regmap.IF2HandshakeCtrl)
	req, extractErr := codec.Extract(mustLookup(t, regmap.Auxiliary, regmap.IF2HandshakeCtrl), []byte{raw}, "shared_req")
	require.NoError(t, extractErr)
	require.Equal(t, uint16(0), req)

	// One pause per poll, nothing unbounded.
	require.Len(t, h.Waits(), 8)
}

func TestAcquireGrantedAndReleased(t *testing.T) {
	dev := bus.NewDevice()
	h := dev.Auxiliary()
	codec := regmap.NewCodec(regmap.LSBFirst)
	grantOnRequest(dev, codec)

	arb := NewArbiter(h, codec, regmap.Auxiliary, 4, time.Microsecond)
	require.NoError(t, arb.Acquire())
	require.Equal(t, Granted, arb.State())

	require.NoError(t, arb.Release())
	require.Equal(t, Idle, arb.State())

	schema := mustLookup(t, regmap.Auxiliary, regmap.IF2HandshakeCtrl)
	raw := dev.Peek(regmap.Auxiliary, regmap.IF2HandshakeCtrl)
	req, err := codec.Extract(schema, []byte{raw}, "shared_req")
	require.NoError(t, err)
	require.Equal(t, uint16(0), req)
}

func TestAcquireGrantedMSBOrder(t *testing.T) {
	dev := bus.NewDevice()
	h := dev.Primary()
	codec := regmap.NewCodec(regmap.MSBFirst)
	grantOnRequest(dev, codec)

	// Same protocol, opposite packing: the request bit lands at the
	// other end of the byte and the grant must still be observed.
	arb := NewArbiter(h, codec, regmap.Primary, 4, time.Microsecond)
	require.NoError(t, arb.Acquire())
	require.Equal(t, Granted, arb.State())
}

func TestWithSharedReleasesOnCallbackError(t *testing.T) {
	dev := bus.NewDevice()
	h := dev.Auxiliary()
	codec := regmap.NewCodec(regmap.LSBFirst)
	grantOnRequest(dev, codec)

	arb := NewArbiter(h, codec, regmap.Auxiliary, 4, time.Microsecond)
	cbErr := errors.New("callback failed")
	err := arb.WithShared(func() error { return cbErr })
	require.ErrorIs(t, err, cbErr)
	require.Equal(t, Idle, arb.State())

	schema := mustLookup(t, regmap.Auxiliary, regmap.IF2HandshakeCtrl)
	raw := dev.Peek(regmap.Auxiliary, regmap.IF2HandshakeCtrl)
	req, extractErr := codec.Extract(schema, []byte{raw}, "shared_req")
	require.NoError(t, extractErr)
	require.Equal(t, uint16(0), req)
}

func TestAcquireSurfacesBusErrors(t *testing.T) {
	dev := bus.NewDevice()
	h := dev.Auxiliary()
	codec := regmap.NewCodec(regmap.LSBFirst)

	busErr := errors.New("bus glitch")
	// First read is the read-modify-write fetch; fail the first poll.
	h.FailOnRead(1, busErr)

	arb := NewArbiter(h, codec, regmap.Auxiliary, 4, time.Microsecond)
	err := arb.Acquire()
	require.ErrorIs(t, err, busErr)
	require.NotErrorIs(t, err, ErrArbitrationTimeout)
	require.Equal(t, Idle, arb.State())
}

func mustLookup(t *testing.T, space regmap.Space, addr uint8) regmap.Schema {
	t.Helper()
	schema, ok := regmap.Lookup(space, addr)
	require.True(t, ok)
	return schema
}
