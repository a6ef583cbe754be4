// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/lsm6dsv320x/internal/app"
	"github.com/relabs-tech/lsm6dsv320x/internal/config"
)

func main() {
	if err := config.InitGlobal("lsm6dsv320x.conf"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunOISProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
