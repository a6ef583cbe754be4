// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regmap

import "fmt"

// BitOrder selects how fields are packed into a register. The hardware
// supports both orderings; a build uses exactly one, chosen when the
// driver is constructed.
type BitOrder int

const (
	// LSBFirst packs the first declared field at bit 0.
	LSBFirst BitOrder = iota
	// MSBFirst packs the first declared field at the most significant end.
	MSBFirst
)

// Decoded maps field names to their values for one register snapshot.
// Produced by Decode, consumed by Encode.
type Decoded map[string]uint16

// Codec turns raw register bytes into field values and back. Both
// directions are pure; the codec never touches a bus. A codec is fixed
// to one bit order for its lifetime.
type Codec struct {
	order BitOrder
}

// NewCodec returns a codec packing fields in the given bit order.
func NewCodec(order BitOrder) *Codec {
	return &Codec{order: order}
}

// shift returns the right-shift that isolates a field of the given width
// at the given packing offset within a register of totalBits.
func (c *Codec) shift(totalBits, offset, bits uint) uint {
	if c.order == MSBFirst {
		return totalBits - offset - bits
	}
	return offset
}

// Decode extracts every field of the schema from raw. Read-only fields
// with a fixed default are verified against it; enumerated fields are
// verified to hold a defined code.
func (c *Codec) Decode(s Schema, raw []byte) (Decoded, error) {
	if len(raw) != s.Size {
		return nil, fmt.Errorf("%s: got %d bytes, register is %d wide", s.Name, len(raw), s.Size)
	}

	word := uint16(raw[0])
	if s.Size == 2 {
		word |= uint16(raw[1]) << 8 // registers are little-endian
	}

	totalBits := uint(s.Size) * 8
	out := make(Decoded, len(s.Fields))
	var offset uint
	for _, f := range s.Fields {
		v := (word >> c.shift(totalBits, offset, f.Bits)) & fieldMax(f.Bits)
		offset += f.Bits

		if f.Access == ReadOnly && f.HasDefault && v != f.Default {
			return nil, fmt.Errorf("%s.%s: decoded 0x%X, hardware contract fixes it to 0x%X: %w",
				s.Name, f.Name, v, f.Default, ErrUnexpectedHardwareState)
		}
		if len(f.Enum) > 0 {
			if _, ok := f.enumName(v); !ok {
				return nil, fmt.Errorf("%s.%s: code 0x%X: %w", s.Name, f.Name, v, ErrReservedFieldCode)
			}
		}
		out[f.Name] = v
	}
	return out, nil
}

// Encode packs the decoded values back into raw bytes. Read-only fields
// are forced to their defaults no matter what the caller supplied, so
// reserved bits can never be corrupted. Read-write values wider than
// their field fail with a FieldRangeError instead of wrapping silently.
func (c *Codec) Encode(s Schema, d Decoded) ([]byte, error) {
	totalBits := uint(s.Size) * 8
	var word uint16
	var offset uint
	for _, f := range s.Fields {
		v := d[f.Name]
		if f.Access == ReadOnly {
			v = 0
			if f.HasDefault {
				v = f.Default
			}
		} else if max := fieldMax(f.Bits); v > max {
			return nil, &FieldRangeError{Register: s.Name, Field: f.Name, Value: v, Max: max}
		}
		word |= v << c.shift(totalBits, offset, f.Bits)
		offset += f.Bits
	}

	raw := make([]byte, s.Size)
	raw[0] = byte(word)
	if s.Size == 2 {
		raw[1] = byte(word >> 8)
	}
	return raw, nil
}

// Extract isolates one field's value from raw without decoding the rest
// of the register and without default or enum verification. Used for
// read-modify-write cycles where sibling fields may legitimately hold
// codes this build does not interpret.
func (c *Codec) Extract(s Schema, raw []byte, field string) (uint16, error) {
	if len(raw) != s.Size {
		return 0, fmt.Errorf("%s: got %d bytes, register is %d wide", s.Name, len(raw), s.Size)
	}
	word := uint16(raw[0])
	if s.Size == 2 {
		word |= uint16(raw[1]) << 8
	}

	totalBits := uint(s.Size) * 8
	var offset uint
	for _, f := range s.Fields {
		if f.Name == field {
			return (word >> c.shift(totalBits, offset, f.Bits)) & fieldMax(f.Bits), nil
		}
		offset += f.Bits
	}
	return 0, fmt.Errorf("%s: no field %q", s.Name, field)
}

// Insert returns a copy of raw with one read-write field replaced,
// leaving every other bit untouched. Writing a read-only field is
// rejected.
func (c *Codec) Insert(s Schema, raw []byte, field string, v uint16) ([]byte, error) {
	if len(raw) != s.Size {
		return nil, fmt.Errorf("%s: got %d bytes, register is %d wide", s.Name, len(raw), s.Size)
	}
	word := uint16(raw[0])
	if s.Size == 2 {
		word |= uint16(raw[1]) << 8
	}

	totalBits := uint(s.Size) * 8
	var offset uint
	for _, f := range s.Fields {
		if f.Name != field {
			offset += f.Bits
			continue
		}
		if f.Access == ReadOnly {
			return nil, fmt.Errorf("%s.%s: field is read-only", s.Name, f.Name)
		}
		max := fieldMax(f.Bits)
		if v > max {
			return nil, &FieldRangeError{Register: s.Name, Field: f.Name, Value: v, Max: max}
		}
		sh := c.shift(totalBits, offset, f.Bits)
		word = word&^(max<<sh) | v<<sh

		out := make([]byte, s.Size)
		out[0] = byte(word)
		if s.Size == 2 {
			out[1] = byte(word >> 8)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: no field %q", s.Name, field)
}

// EnumName resolves an enumerated field's code to its variant name.
// Undefined codes report ErrReservedFieldCode.
func EnumName(s Schema, field string, code uint16) (string, error) {
	f, ok := s.Field(field)
	if !ok {
		return "", fmt.Errorf("%s: no field %q", s.Name, field)
	}
	name, ok := f.enumName(code)
	if !ok {
		return "", fmt.Errorf("%s.%s: code 0x%X: %w", s.Name, field, code, ErrReservedFieldCode)
	}
	return name, nil
}
