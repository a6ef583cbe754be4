// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/lsm6dsv320x/internal/bus"
	"github.com/relabs-tech/lsm6dsv320x/internal/config"
	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
	"github.com/relabs-tech/lsm6dsv320x/internal/sensor"
)

// OpenSensor builds the configured transport and binds a driver
// instance to it. The returned closer releases the transport.
func OpenSensor() (*sensor.Sensor, func() error, error) {
	cfg := config.Get()

	space := regmap.Primary
	if cfg.Interface == "auxiliary" {
		space = regmap.Auxiliary
	}
	order := regmap.LSBFirst
	if cfg.BitOrder == "msb" {
		order = regmap.MSBFirst
	}

	var b bus.Bus
	closer := func() error { return nil }

	switch cfg.BusKind {
	case "i2c":
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		c, err := bus.NewI2C(cfg.I2CBus, cfg.I2CAddr)
		if err != nil {
			return nil, nil, err
		}
		b, closer = c, c.Close
	case "spi":
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		freq := physic.Frequency(cfg.SPIFreqHz) * physic.Hertz
		if freq == 0 {
			freq = 10 * physic.MegaHertz
		}
		c, err := bus.NewSPI(cfg.SPIDevice, freq)
		if err != nil {
			return nil, nil, err
		}
		b, closer = c, c.Close
	case "serial":
		c, err := bus.NewSerial(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return nil, nil, err
		}
		b, closer = c, c.Close
	case "sim":
		b = simBus(space, order)
	default:
		return nil, nil, fmt.Errorf("unsupported BUS_KIND %q", cfg.BusKind)
	}

	s, err := sensor.New(b, sensor.Options{
		Space:          space,
		BitOrder:       order,
		HandshakePolls: cfg.HandshakePolls,
		HandshakePause: time.Duration(cfg.HandshakePauseUS) * time.Microsecond,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return s, closer, nil
}

// simBus builds an in-memory device whose companion-interface firmware
// grants every handshake request on the next poll, so tools run without
// hardware attached.
func simBus(space regmap.Space, order regmap.BitOrder) bus.Bus {
	dev := bus.NewDevice()
	codec := regmap.NewCodec(order)
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
	if space == regmap.Auxiliary {
		return dev.Auxiliary()
	}
	return dev.Primary()
}
