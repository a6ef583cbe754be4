// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regmap

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the codec. Callers match them with errors.Is.
var (
	// ErrUnexpectedHardwareState means a read-only field with a fixed
	// default decoded to a different value. The device is not the part
	// this register map describes, or it is misbehaving.
	ErrUnexpectedHardwareState = errors.New("unexpected hardware state")

	// ErrReservedFieldCode means an enumerated field decoded to a code
	// the hardware contract assigns no meaning to.
	ErrReservedFieldCode = errors.New("reserved field code")

	// ErrFieldValueOutOfRange means a caller tried to encode a value
	// wider than the field's declared bit width.
	ErrFieldValueOutOfRange = errors.New("field value out of range")
)

// FieldRangeError reports which field rejected which value on encode.
// It wraps ErrFieldValueOutOfRange.
type FieldRangeError struct {
	Register string
	Field    string
	Value    uint16
	Max      uint16
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("%s.%s: value 0x%X exceeds field maximum 0x%X",
		e.Register, e.Field, e.Value, e.Max)
}

func (e *FieldRangeError) Unwrap() error { return ErrFieldValueOutOfRange }
