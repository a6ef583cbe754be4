// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package program

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// operationJSON is the wire form of one program step: either
// {"addr":"0x01","value":"0x80"} or {"delay_ms":20}. Addresses and
// values are hex strings, matching how the compiler emits them.
type operationJSON struct {
	Addr    string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
	DelayMS *int   `json:"delay_ms,omitempty"`
}

// Load decodes a compiled program from its JSON form: an ordered array
// of write and delay steps.
func Load(r io.Reader) (Program, error) {
	var steps []operationJSON
	if err := json.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}

	p := make(Program, 0, len(steps))
	for i, s := range steps {
		switch {
		case s.DelayMS != nil:
			if s.Addr != "" || s.Value != "" {
				return nil, fmt.Errorf("step %d: delay mixed with a register write", i)
			}
			if *s.DelayMS < 0 {
				return nil, fmt.Errorf("step %d: negative delay %d ms", i, *s.DelayMS)
			}
			p = append(p, Delay{Duration: time.Duration(*s.DelayMS) * time.Millisecond})
		case s.Addr != "" && s.Value != "":
			addr, err := strconv.ParseUint(s.Addr, 0, 8)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid address %q: %w", i, s.Addr, err)
			}
			value, err := strconv.ParseUint(s.Value, 0, 8)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid value %q: %w", i, s.Value, err)
			}
			p = append(p, WriteRegister{Addr: uint8(addr), Value: uint8(value)})
		default:
			return nil, fmt.Errorf("step %d: neither a write nor a delay", i)
		}
	}
	return p, nil
}

// LoadFile reads a compiled program from disk.
func LoadFile(path string) (Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open program file: %w", err)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
