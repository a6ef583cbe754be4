// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package regmap models the LSM6DSV320X register banks as data: one
// schema table per host interface, consulted by a single generic bit
// codec. Register layouts are fixed by the hardware contract and must
// match the datasheet bit for bit.
package regmap

import "fmt"

// Access describes whether a bit field may be written by the host.
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
)

// Enum names one defined code of an enumerated field. Codes absent from
// a field's enum table are reserved.
type Enum struct {
	Code uint16
	Name string
}

// Field describes one bit range of a register. Fields are packed in
// declaration order; the bit offset is implied by the widths of the
// fields preceding it.
type Field struct {
	Name       string
	Bits       uint
	Access     Access
	HasDefault bool
	Default    uint16
	Enum       []Enum
}

// enumName resolves a code against the field's enum table.
func (f Field) enumName(code uint16) (string, bool) {
	for _, e := range f.Enum {
		if e.Code == code {
			return e.Name, true
		}
	}
	return "", false
}

// Schema describes one register: its address within an interface space,
// its width in bytes and its ordered field list.
type Schema struct {
	Addr   uint8
	Name   string
	Size   int
	Fields []Field
}

// Field returns the named field descriptor.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the structural invariants of a schema table: field
// widths sum to the register width, addresses are unique, defaults and
// enum codes fit their fields.
func Validate(table []Schema) error {
	seen := make(map[uint8]string, len(table))
	for _, s := range table {
		if prev, ok := seen[s.Addr]; ok {
			return fmt.Errorf("address 0x%02X declared by both %s and %s", s.Addr, prev, s.Name)
		}
		seen[s.Addr] = s.Name

		if s.Size != 1 && s.Size != 2 {
			return fmt.Errorf("%s: unsupported register size %d", s.Name, s.Size)
		}

		var total uint
		for _, f := range s.Fields {
			if f.Bits == 0 || f.Bits > 16 {
				return fmt.Errorf("%s.%s: invalid width %d", s.Name, f.Name, f.Bits)
			}
			max := fieldMax(f.Bits)
			if f.HasDefault && f.Default > max {
				return fmt.Errorf("%s.%s: default 0x%X exceeds field maximum 0x%X", s.Name, f.Name, f.Default, max)
			}
			for _, e := range f.Enum {
				if e.Code > max {
					return fmt.Errorf("%s.%s: enum code 0x%X (%s) exceeds field maximum 0x%X", s.Name, f.Name, e.Code, e.Name, max)
				}
			}
			total += f.Bits
		}
		if total != uint(s.Size)*8 {
			return fmt.Errorf("%s: field widths sum to %d bits, register is %d bits", s.Name, total, s.Size*8)
		}
	}
	return nil
}

func fieldMax(bits uint) uint16 {
	return uint16(1<<bits - 1)
}
