// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/lsm6dsv320x/internal/bus"
	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
)

func newAuxSensor(t *testing.T) (*Sensor, *bus.Device) {
	t.Helper()
	dev := bus.NewDevice()
	s, err := New(dev.Auxiliary(), Options{
		Space:          regmap.Auxiliary,
		HandshakePolls: 4,
		HandshakePause: time.Microsecond,
	})
	require.NoError(t, err)
	return s, dev
}

func TestNewRejectsWrongIdentity(t *testing.T) {
	dev := bus.NewDevice()
	dev.Poke(regmap.Auxiliary, regmap.IF2WhoAmI, 0x6B)

	_, err := New(dev.Auxiliary(), Options{Space: regmap.Auxiliary})
	require.ErrorIs(t, err, regmap.ErrUnexpectedHardwareState)
}

func TestNewVerifiesIdentityOnBothOrders(t *testing.T) {
	for _, order := range []regmap.BitOrder{regmap.LSBFirst, regmap.MSBFirst} {
		dev := bus.NewDevice()
		_, err := New(dev.Primary(), Options{Space: regmap.Primary, BitOrder: order})
		require.NoError(t, err, "order %d", order)
	}
}

func TestReadGyroBurst(t *testing.T) {
	s, dev := newAuxSensor(t)
	dev.Poke(regmap.Auxiliary, regmap.IF2OutXGOIS, 0xFF, 0xFF, 0x00, 0x80, 0xFF, 0x7F)

	sample, err := s.ReadGyro()
	require.NoError(t, err)
	require.Equal(t, Sample{X: -1, Y: -32768, Z: 32767}, sample)
}

func TestReadAccelBurst(t *testing.T) {
	s, dev := newAuxSensor(t)
	dev.Poke(regmap.Auxiliary, regmap.IF2OutXAOIS, 0x01, 0x00, 0x02, 0x00, 0xFE, 0xFF)

	sample, err := s.ReadAccel()
	require.NoError(t, err)
	require.Equal(t, Sample{X: 1, Y: 2, Z: -2}, sample)
}

func TestBurstNeedsAuxiliaryInterface(t *testing.T) {
	dev := bus.NewDevice()
	s, err := New(dev.Primary(), Options{Space: regmap.Primary})
	require.NoError(t, err)

	_, err = s.ReadGyro()
	require.Error(t, err)
	_, err = s.Temperature()
	require.Error(t, err)
	_, err = s.Status()
	require.Error(t, err)
}

func TestTemperature(t *testing.T) {
	s, dev := newAuxSensor(t)

	dev.Poke(regmap.Auxiliary, regmap.IF2OutTemp, 0x34, 0x12)
	raw, err := s.Temperature()
	require.NoError(t, err)
	require.Equal(t, int16(0x1234), raw)

	dev.Poke(regmap.Auxiliary, regmap.IF2OutTemp, 0x9C, 0xFF)
	raw, err = s.Temperature()
	require.NoError(t, err)
	require.Equal(t, int16(-100), raw)
}

func TestStatus(t *testing.T) {
	s, dev := newAuxSensor(t)

	dev.Poke(regmap.Auxiliary, regmap.IF2StatusRegOIS, 0x03)
	status, err := s.Status()
	require.NoError(t, err)
	require.Equal(t, Status{AccelDataReady: true, GyroDataReady: true}, status)

	dev.Poke(regmap.Auxiliary, regmap.IF2StatusRegOIS, 0x04)
	status, err = s.Status()
	require.NoError(t, err)
	require.Equal(t, Status{GyroSettling: true}, status)
}

func TestGyroFullScale(t *testing.T) {
	s, dev := newAuxSensor(t)

	// The power-on fs_g_ois code is reserved; reading it back must not
	// silently default.
	_, err := s.GyroFullScale()
	require.ErrorIs(t, err, regmap.ErrReservedFieldCode)

	require.NoError(t, s.SetGyroFullScale(Gyro500DPS))
	require.Equal(t, byte(0x02), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl2OIS)&0x07)

	fs, err := s.GyroFullScale()
	require.NoError(t, err)
	require.Equal(t, Gyro500DPS, fs)

	// Programming an undefined code fails before touching the bus.
	require.ErrorIs(t, s.SetGyroFullScale(GyroFullScale(5)), regmap.ErrReservedFieldCode)
	require.ErrorIs(t, s.SetGyroFullScale(GyroFullScale(0)), regmap.ErrReservedFieldCode)
}

func TestGyroFullScalePreservesSiblings(t *testing.T) {
	s, dev := newAuxSensor(t)

	// Bandwidth bits already programmed; full-scale write must not
	// disturb them.
	dev.Poke(regmap.Auxiliary, regmap.IF2Ctrl2OIS, 0x18)
	require.NoError(t, s.SetGyroFullScale(Gyro2000DPS))
	require.Equal(t, byte(0x1C), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl2OIS))
}

func TestAccelFullScale(t *testing.T) {
	s, dev := newAuxSensor(t)

	require.NoError(t, s.SetAccelFullScale(Accel8G))
	require.Equal(t, byte(0x02), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl3OIS)&0x03)

	fs, err := s.AccelFullScale()
	require.NoError(t, err)
	require.Equal(t, Accel8G, fs)

	require.ErrorIs(t, s.SetAccelFullScale(AccelFullScale(4)), regmap.ErrReservedFieldCode)
}

func TestEnableOIS(t *testing.T) {
	s, dev := newAuxSensor(t)

	require.NoError(t, s.EnableOIS(true, true))
	require.Equal(t, byte(0x06), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl1OIS))

	require.NoError(t, s.EnableOIS(false, true))
	require.Equal(t, byte(0x04), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl1OIS))
}

func TestSetGyroSelfTest(t *testing.T) {
	s, dev := newAuxSensor(t)

	require.NoError(t, s.SetGyroSelfTest(SelfTestPositive))
	require.Equal(t, byte(0x04), dev.Peek(regmap.Auxiliary, regmap.IF2IntOIS))

	// Clamp codes fold the clamp-disable bit in above the sign bits.
	require.NoError(t, s.SetGyroSelfTest(SelfTestClampPos))
	require.Equal(t, byte(0x14), dev.Peek(regmap.Auxiliary, regmap.IF2IntOIS))

	require.NoError(t, s.SetGyroSelfTest(SelfTestDisabled))
	require.Equal(t, byte(0x00), dev.Peek(regmap.Auxiliary, regmap.IF2IntOIS))

	require.ErrorIs(t, s.SetGyroSelfTest(SelfTest(0x3)), regmap.ErrReservedFieldCode)
	require.ErrorIs(t, s.SetGyroSelfTest(SelfTest(0x7)), regmap.ErrReservedFieldCode)
}

func TestSharedAccessRunsUnderHandshake(t *testing.T) {
	dev := bus.NewDevice()
	codec := regmap.NewCodec(regmap.LSBFirst)
	grantOnRequest(dev, codec)

	s, err := New(dev.Auxiliary(), Options{
		Space:          regmap.Auxiliary,
		HandshakePolls: 4,
		HandshakePause: time.Microsecond,
	})
	require.NoError(t, err)

	var stateDuring HandshakeState
	require.NoError(t, s.SharedAccess(func() error {
		stateDuring = s.Handshake().State()
		return s.SetGyroFullScale(Gyro250DPS)
	}))
	require.Equal(t, Granted, stateDuring)
	require.Equal(t, Idle, s.Handshake().State())
	require.Equal(t, byte(0x01), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl2OIS)&0x07)
}

func TestSharedAccessTimeoutWithoutFirmware(t *testing.T) {
	s, _ := newAuxSensor(t)

	// No companion firmware answers on a bare device.
	err := s.SharedAccess(func() error { return nil })
	require.ErrorIs(t, err, ErrArbitrationTimeout)
	require.Equal(t, Idle, s.Handshake().State())
}

func TestRawReadWrite(t *testing.T) {
	s, dev := newAuxSensor(t)

	require.NoError(t, s.RawWrite(regmap.IF2Ctrl1OIS, []byte{0xFF}))
	require.Equal(t, byte(0xFF), dev.Peek(regmap.Auxiliary, regmap.IF2Ctrl1OIS))

	raw, err := s.RawRead(regmap.IF2Ctrl1OIS)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF}, raw)

	// Unmapped addresses and wrong widths are rejected.
	_, err = s.RawRead(0x55)
	require.Error(t, err)
	require.Error(t, s.RawWrite(regmap.IF2Ctrl1OIS, []byte{1, 2}))
}
