// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensor is the LSM6DSV320X driver core: identity checking,
// burst sample reads, OIS configuration, shared-bank arbitration and
// configuration program application, all through one bus handle.
package sensor

import (
	"fmt"
	"time"

	"github.com/relabs-tech/lsm6dsv320x/internal/bus"
	"github.com/relabs-tech/lsm6dsv320x/internal/program"
	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
)

// GyroFullScale selects the OIS gyroscope full-scale range. The values
// are the hardware field codes of fs_g_ois.
type GyroFullScale uint16

const (
	Gyro250DPS  GyroFullScale = 1
	Gyro500DPS  GyroFullScale = 2
	Gyro1000DPS GyroFullScale = 3
	Gyro2000DPS GyroFullScale = 4
)

// AccelFullScale selects the OIS accelerometer full-scale range. The
// values are the hardware field codes of fs_xl_ois.
type AccelFullScale uint16

const (
	Accel2G  AccelFullScale = 0
	Accel4G  AccelFullScale = 1
	Accel8G  AccelFullScale = 2
	Accel16G AccelFullScale = 3
)

// SelfTest selects the OIS gyroscope self-test stimulus. The sparse
// codes fold the clamp-disable bit in at bit 2, matching the hardware's
// st_g_ois / st_ois_clampdis split.
type SelfTest uint8

const (
	SelfTestDisabled SelfTest = 0x0
	SelfTestPositive SelfTest = 0x1
	SelfTestNegative SelfTest = 0x2
	SelfTestClampPos SelfTest = 0x5
	SelfTestClampNeg SelfTest = 0x6
)

// Status is the decoded IF2_STATUS_REG_OIS snapshot. The data-ready
// flags clear themselves when the corresponding high output byte is
// read, so two reads in a row need not agree.
type Status struct {
	AccelDataReady bool `json:"xlda"`
	GyroDataReady  bool `json:"gda"`
	GyroSettling   bool `json:"gyro_settling"`
}

// Options configures a Sensor at construction. The zero value selects
// the primary interface, LSB-first packing and a 100-poll handshake
// budget with 100µs pauses.
type Options struct {
	Space    regmap.Space
	BitOrder regmap.BitOrder

	// HandshakePolls bounds the arbitration acknowledge polling;
	// HandshakePause is the delay between polls.
	HandshakePolls int
	HandshakePause time.Duration
}

// Sensor is one driver instance bound to one host interface of one
// device. It exclusively owns its bus handle for its whole lifetime and
// issues exactly one transaction at a time.
type Sensor struct {
	bus    bus.Bus
	codec  *regmap.Codec
	space  regmap.Space
	arb    *Arbiter
	loader *program.Loader
}

// New binds a driver to b and verifies the device identity. A WHO_AM_I
// byte other than 0x73 reports regmap.ErrUnexpectedHardwareState: the
// wrong part is wired, or the bus is lying.
func New(b bus.Bus, opts Options) (*Sensor, error) {
	if opts.HandshakePolls == 0 {
		opts.HandshakePolls = 100
	}
	if opts.HandshakePause == 0 {
		opts.HandshakePause = 100 * time.Microsecond
	}

	codec := regmap.NewCodec(opts.BitOrder)
	s := &Sensor{
		bus:    b,
		codec:  codec,
		space:  opts.Space,
		arb:    NewArbiter(b, codec, opts.Space, opts.HandshakePolls, opts.HandshakePause),
		loader: program.NewLoader(b),
	}
	if err := s.CheckIdentity(); err != nil {
		return nil, err
	}
	return s, nil
}

// Space reports which host interface this instance talks through.
func (s *Sensor) Space() regmap.Space { return s.space }

// CheckIdentity reads and verifies the identification register.
func (s *Sensor) CheckIdentity() error {
	if _, err := s.Read(regmap.UIWhoAmI); err != nil {
		return fmt.Errorf("lsm6dsv320x identity: %w", err)
	}
	return nil
}

// Read fetches and decodes the register at addr in this instance's
// space. The whole register is one bus transaction.
func (s *Sensor) Read(addr uint8) (regmap.Decoded, error) {
	schema, ok := regmap.Lookup(s.space, addr)
	if !ok {
		return nil, fmt.Errorf("no %s register at 0x%02X", s.space, addr)
	}
	raw := make([]byte, schema.Size)
	if err := s.bus.Read(schema.Addr, raw); err != nil {
		return nil, err
	}
	return s.codec.Decode(schema, raw)
}

// RawRead fetches the undecoded bytes of the register at addr. Debug
// tooling uses this to show the device as it is, including states the
// codec would reject.
func (s *Sensor) RawRead(addr uint8) ([]byte, error) {
	schema, ok := regmap.Lookup(s.space, addr)
	if !ok {
		return nil, fmt.Errorf("no %s register at 0x%02X", s.space, addr)
	}
	raw := make([]byte, schema.Size)
	if err := s.bus.Read(schema.Addr, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// RawWrite stores undecoded bytes to the register at addr, bypassing
// read-only masking. Debug tooling only.
func (s *Sensor) RawWrite(addr uint8, data []byte) error {
	schema, ok := regmap.Lookup(s.space, addr)
	if !ok {
		return fmt.Errorf("no %s register at 0x%02X", s.space, addr)
	}
	if len(data) != schema.Size {
		return fmt.Errorf("%s: got %d bytes, register is %d wide", schema.Name, len(data), schema.Size)
	}
	return s.bus.Write(schema.Addr, data)
}

// WriteField read-modify-writes one field of a register, leaving every
// sibling bit as the device holds it.
func (s *Sensor) WriteField(addr uint8, field string, v uint16) error {
	schema, ok := regmap.Lookup(s.space, addr)
	if !ok {
		return fmt.Errorf("no %s register at 0x%02X", s.space, addr)
	}
	raw := make([]byte, schema.Size)
	if err := s.bus.Read(schema.Addr, raw); err != nil {
		return err
	}
	raw, err := s.codec.Insert(schema, raw, field, v)
	if err != nil {
		return err
	}
	return s.bus.Write(schema.Addr, raw)
}

// readField fetches one field without interpreting the rest of the
// register.
func (s *Sensor) readField(addr uint8, field string) (regmap.Schema, uint16, error) {
	schema, ok := regmap.Lookup(s.space, addr)
	if !ok {
		return regmap.Schema{}, 0, fmt.Errorf("no %s register at 0x%02X", s.space, addr)
	}
	raw := make([]byte, schema.Size)
	if err := s.bus.Read(schema.Addr, raw); err != nil {
		return regmap.Schema{}, 0, err
	}
	v, err := s.codec.Extract(schema, raw, field)
	return schema, v, err
}

// The shared OIS control bank sits at the same addresses (0x6F-0x72) in
// both spaces, so the UI constants below address it correctly through
// either interface; only the handshake register address differs per
// space, and the arbiter handles that.

// SetGyroFullScale programs the OIS gyroscope range.
func (s *Sensor) SetGyroFullScale(fs GyroFullScale) error {
	schema, ok := regmap.Lookup(s.space, regmap.UICtrl2OIS)
	if !ok {
		return fmt.Errorf("no %s register at 0x%02X", s.space, regmap.UICtrl2OIS)
	}
	if _, err := regmap.EnumName(schema, "fs_g_ois", uint16(fs)); err != nil {
		return err
	}
	return s.WriteField(regmap.UICtrl2OIS, "fs_g_ois", uint16(fs))
}

// GyroFullScale reads back the programmed OIS gyroscope range. A
// reserved code in the device reports regmap.ErrReservedFieldCode; the
// power-on value of fs_g_ois is one such code.
func (s *Sensor) GyroFullScale() (GyroFullScale, error) {
	schema, v, err := s.readField(regmap.UICtrl2OIS, "fs_g_ois")
	if err != nil {
		return 0, err
	}
	if _, err := regmap.EnumName(schema, "fs_g_ois", v); err != nil {
		return 0, err
	}
	return GyroFullScale(v), nil
}

// SetAccelFullScale programs the OIS accelerometer range.
func (s *Sensor) SetAccelFullScale(fs AccelFullScale) error {
	schema, ok := regmap.Lookup(s.space, regmap.UICtrl3OIS)
	if !ok {
		return fmt.Errorf("no %s register at 0x%02X", s.space, regmap.UICtrl3OIS)
	}
	if _, err := regmap.EnumName(schema, "fs_xl_ois", uint16(fs)); err != nil {
		return err
	}
	return s.WriteField(regmap.UICtrl3OIS, "fs_xl_ois", uint16(fs))
}

// AccelFullScale reads back the programmed OIS accelerometer range.
func (s *Sensor) AccelFullScale() (AccelFullScale, error) {
	_, v, err := s.readField(regmap.UICtrl3OIS, "fs_xl_ois")
	if err != nil {
		return 0, err
	}
	return AccelFullScale(v), nil
}

// EnableOIS switches the gyroscope and accelerometer OIS chains.
func (s *Sensor) EnableOIS(gyro, accel bool) error {
	if err := s.WriteField(regmap.UICtrl1OIS, "ois_g_en", boolBit(gyro)); err != nil {
		return err
	}
	return s.WriteField(regmap.UICtrl1OIS, "ois_xl_en", boolBit(accel))
}

// SetGyroSelfTest programs the OIS gyroscope self-test stimulus. The
// clamp variants also raise st_ois_clampdis.
func (s *Sensor) SetGyroSelfTest(mode SelfTest) error {
	switch mode {
	case SelfTestDisabled, SelfTestPositive, SelfTestNegative, SelfTestClampPos, SelfTestClampNeg:
	default:
		return fmt.Errorf("gyro self-test: code 0x%X: %w", uint8(mode), regmap.ErrReservedFieldCode)
	}
	if err := s.WriteField(regmap.UIIntOIS, "st_g_ois", uint16(mode)&0x3); err != nil {
		return err
	}
	return s.WriteField(regmap.UIIntOIS, "st_ois_clampdis", uint16(mode)>>2&0x1)
}

// Status reads the OIS status register. Auxiliary interface only.
func (s *Sensor) Status() (Status, error) {
	if s.space != regmap.Auxiliary {
		return Status{}, fmt.Errorf("OIS status is only visible through the auxiliary interface")
	}
	d, err := s.Read(regmap.IF2StatusRegOIS)
	if err != nil {
		return Status{}, err
	}
	return Status{
		AccelDataReady: d["xlda"] == 1,
		GyroDataReady:  d["gda"] == 1,
		GyroSettling:   d["gyro_settling"] == 1,
	}, nil
}

// Temperature reads the raw 16-bit two's complement temperature output.
// Auxiliary interface only.
func (s *Sensor) Temperature() (int16, error) {
	if s.space != regmap.Auxiliary {
		return 0, fmt.Errorf("temperature output is only visible through the auxiliary interface")
	}
	var raw [2]byte
	if err := s.bus.Read(regmap.IF2OutTemp, raw[:]); err != nil {
		return 0, err
	}
	return int16(uint16(raw[0]) | uint16(raw[1])<<8), nil
}

// ReadGyro fetches one OIS gyroscope axis triplet in a single burst
// transaction. Auxiliary interface only.
func (s *Sensor) ReadGyro() (Sample, error) {
	return s.readBurst(regmap.IF2OutXGOIS)
}

// ReadAccel fetches one OIS accelerometer axis triplet in a single
// burst transaction. Auxiliary interface only.
func (s *Sensor) ReadAccel() (Sample, error) {
	return s.readBurst(regmap.IF2OutXAOIS)
}

func (s *Sensor) readBurst(base uint8) (Sample, error) {
	if s.space != regmap.Auxiliary {
		return Sample{}, fmt.Errorf("OIS outputs are only visible through the auxiliary interface")
	}
	var raw [SampleBytes]byte
	if err := s.bus.Read(base, raw[:]); err != nil {
		return Sample{}, err
	}
	return DecodeSample(raw[:])
}

// SharedAccess runs fn while holding the cross-interface handshake, so
// fn may touch the shared OIS control bank without racing the other
// side.
func (s *Sensor) SharedAccess(fn func() error) error {
	return s.arb.WithShared(fn)
}

// Handshake exposes the arbiter for callers that need explicit
// acquire/release sequencing.
func (s *Sensor) Handshake() *Arbiter { return s.arb }

// Apply runs a compiled configuration program against the device,
// strictly in order, failing fast on the first transport error.
func (s *Sensor) Apply(p program.Program) error {
	return s.loader.Apply(p)
}

func boolBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
