// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bus abstracts the physical transport carrying register
// transactions to the LSM6DSV320X. The driver is polymorphic over any
// transport satisfying Bus; the concrete kind (I2C, SPI, serial bridge,
// simulated device) is chosen once at construction.
package bus

import "time"

// Bus performs addressed register transfers against one device on one
// host interface. A handle is exclusively owned by one driver instance;
// there is never more than one in-flight transaction. Multi-byte reads
// and writes are single uninterrupted transactions, which is what makes
// burst sample reads coherent.
type Bus interface {
	// Read fills buf from consecutive registers starting at reg.
	Read(reg uint8, buf []byte) error

	// Write stores data to consecutive registers starting at reg.
	Write(reg uint8, data []byte) error

	// Wait blocks the calling context for d. Settling delays and
	// arbitration polling go through here so simulated transports can
	// observe them instead of sleeping.
	Wait(d time.Duration)
}
