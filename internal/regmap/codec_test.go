// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTablesValidate(t *testing.T) {
	require.NoError(t, Validate(Registers(Primary)))
	require.NoError(t, Validate(Registers(Auxiliary)))
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	testCases := []struct {
		name  string
		table []Schema
	}{
		{"width sum mismatch", []Schema{
			{Addr: 0x10, Name: "BAD", Size: 1, Fields: []Field{{Name: "a", Bits: 7}}},
		}},
		{"duplicate address", []Schema{
			{Addr: 0x10, Name: "A", Size: 1, Fields: []Field{{Name: "a", Bits: 8}}},
			{Addr: 0x10, Name: "B", Size: 1, Fields: []Field{{Name: "b", Bits: 8}}},
		}},
		{"default wider than field", []Schema{
			{Addr: 0x10, Name: "BAD", Size: 1, Fields: []Field{
				{Name: "a", Bits: 2, HasDefault: true, Default: 4},
				{Name: "b", Bits: 6},
			}},
		}},
		{"enum code wider than field", []Schema{
			{Addr: 0x10, Name: "BAD", Size: 1, Fields: []Field{
				{Name: "a", Bits: 2, Enum: []Enum{{Code: 4, Name: "x"}}},
				{Name: "b", Bits: 6},
			}},
		}},
		{"unsupported size", []Schema{
			{Addr: 0x10, Name: "BAD", Size: 3, Fields: []Field{{Name: "a", Bits: 16}, {Name: "b", Bits: 8}}},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, Validate(tc.table))
		})
	}
}

func TestWhoAmIFixedDefault(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2WhoAmI)
	require.True(t, ok)

	for _, order := range []BitOrder{LSBFirst, MSBFirst} {
		codec := NewCodec(order)

		d, err := codec.Decode(schema, []byte{WhoAmI})
		require.NoError(t, err)
		require.Equal(t, uint16(WhoAmI), d["id"])

		// A different part on the bus is a hardware-contract failure.
		_, err = codec.Decode(schema, []byte{0x6B})
		require.ErrorIs(t, err, ErrUnexpectedHardwareState)

		// Encode can never alter the fixed id, whatever the caller says.
		raw, err := codec.Encode(schema, Decoded{"id": 0x42})
		require.NoError(t, err)
		require.Equal(t, []byte{WhoAmI}, raw)
	}
}

func TestRoundTripNormalizesReservedBits(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2Ctrl1OIS)
	require.True(t, ok)

	// Bits held by read-write fields of CTRL1_OIS, per packing order.
	liveMask := map[BitOrder]byte{
		LSBFirst: 0x27, // spi_read_en:0, ois_g_en:1, ois_xl_en:2, sim_ois:5
		MSBFirst: 0xE4, // same fields packed from the top down
	}

	for order, mask := range liveMask {
		codec := NewCodec(order)
		for v := 0; v <= 0xFF; v++ {
			raw := byte(v)
			d, err := codec.Decode(schema, []byte{raw})
			require.NoError(t, err)

			out, err := codec.Encode(schema, d)
			require.NoError(t, err)
			require.Equal(t, raw&mask, out[0], "order %d raw 0x%02X", order, raw)
		}
	}
}

func TestRoundTripTwoByteRegister(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2OutXGOIS)
	require.True(t, ok)

	codec := NewCodec(LSBFirst)
	d, err := codec.Decode(schema, []byte{0x34, 0x12})
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), d["out"])

	// The output word is read-only without a declared default, so
	// encode normalizes it away entirely.
	out, err := codec.Encode(schema, d)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00}, out)
}

func TestGyroFullScaleCodes(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2Ctrl2OIS)
	require.True(t, ok)
	codec := NewCodec(LSBFirst)

	defined := map[byte]string{
		1: "±250 dps",
		2: "±500 dps",
		3: "±1000 dps",
		4: "±2000 dps",
	}
	for code, want := range defined {
		d, err := codec.Decode(schema, []byte{code})
		require.NoError(t, err)
		require.Equal(t, uint16(code), d["fs_g_ois"])

		name, err := EnumName(schema, "fs_g_ois", uint16(code))
		require.NoError(t, err)
		require.Equal(t, want, name)
	}

	// Code 0 and codes 5-7 have no defined meaning; decode rejects them
	// instead of guessing a default.
	for _, code := range []byte{0, 5, 6, 7} {
		_, err := codec.Decode(schema, []byte{code})
		require.ErrorIs(t, err, ErrReservedFieldCode, "code %d", code)
	}
}

func TestEncodeRejectsOverwideValues(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2Ctrl2OIS)
	require.True(t, ok)
	codec := NewCodec(LSBFirst)

	_, err := codec.Encode(schema, Decoded{"fs_g_ois": 1, "lpf1_g_ois_bw": 4})
	require.ErrorIs(t, err, ErrFieldValueOutOfRange)

	var rangeErr *FieldRangeError
	require.True(t, errors.As(err, &rangeErr))
	require.Equal(t, "lpf1_g_ois_bw", rangeErr.Field)
	require.Equal(t, uint16(4), rangeErr.Value)
	require.Equal(t, uint16(3), rangeErr.Max)
}

func TestExtractAndInsert(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2Ctrl2OIS)
	require.True(t, ok)
	codec := NewCodec(LSBFirst)

	// Extract never interprets sibling fields, so a reserved full-scale
	// code does not block reading the bandwidth bits.
	v, err := codec.Extract(schema, []byte{0b0001_1000}, "lpf1_g_ois_bw")
	require.NoError(t, err)
	require.Equal(t, uint16(3), v)

	raw, err := codec.Insert(schema, []byte{0b0001_1000}, "fs_g_ois", 2)
	require.NoError(t, err)
	require.Equal(t, []byte{0b0001_1010}, raw)

	_, err = codec.Insert(schema, []byte{0x00}, "fs_g_ois", 8)
	require.ErrorIs(t, err, ErrFieldValueOutOfRange)

	_, err = codec.Insert(schema, []byte{0x00}, "not_used0", 1)
	require.Error(t, err)

	_, err = codec.Insert(schema, []byte{0x00}, "missing", 1)
	require.Error(t, err)
}

func TestInsertMSBOrder(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2Ctrl2OIS)
	require.True(t, ok)
	codec := NewCodec(MSBFirst)

	// fs_g_ois is the first declared field, so MSB packing puts it in
	// bits 7:5.
	raw, err := codec.Insert(schema, []byte{0x00}, "fs_g_ois", 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0x80}, raw)

	v, err := codec.Extract(schema, raw, "fs_g_ois")
	require.NoError(t, err)
	require.Equal(t, uint16(4), v)
}

func TestDecodeSizeMismatch(t *testing.T) {
	schema, ok := Lookup(Auxiliary, IF2WhoAmI)
	require.True(t, ok)
	codec := NewCodec(LSBFirst)

	_, err := codec.Decode(schema, []byte{0x73, 0x00})
	require.Error(t, err)
	_, err = codec.Decode(schema, nil)
	require.Error(t, err)
}

func TestLookupAliasedBank(t *testing.T) {
	// The OIS control bank appears in both spaces at the same
	// addresses with the same layout.
	for _, addr := range []uint8{0x6F, 0x70, 0x71, 0x72} {
		p, ok := Lookup(Primary, addr)
		require.True(t, ok, "primary 0x%02X", addr)
		a, ok := Lookup(Auxiliary, addr)
		require.True(t, ok, "auxiliary 0x%02X", addr)
		require.Equal(t, p.Fields, a.Fields, "0x%02X", addr)
	}

	_, ok := Lookup(Primary, 0x55)
	require.False(t, ok)
}
