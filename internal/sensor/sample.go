// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"encoding/binary"
	"fmt"
)

// SampleBytes is the size of one axis triplet on the wire: three
// two-byte little-endian two's-complement values.
const SampleBytes = 6

// Sample is one decoded axis triplet. The JSON shape matches what the
// producer publishes over MQTT.
type Sample struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// DecodeSample decodes an axis triplet from one atomically-read burst
// block. It never issues a transaction itself: the caller must have
// fetched all six bytes in a single bus read, otherwise the axes can
// mix bytes from two sampling instants.
func DecodeSample(raw []byte) (Sample, error) {
	if len(raw) != SampleBytes {
		return Sample{}, fmt.Errorf("axis sample: got %d bytes, want %d", len(raw), SampleBytes)
	}
	return Sample{
		X: int16(binary.LittleEndian.Uint16(raw[0:2])),
		Y: int16(binary.LittleEndian.Uint16(raw[2:4])),
		Z: int16(binary.LittleEndian.Uint16(raw[4:6])),
	}, nil
}
