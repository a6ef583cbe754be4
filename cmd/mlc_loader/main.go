// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"errors"
	"log"
	"os"

	"github.com/relabs-tech/lsm6dsv320x/internal/app"
	"github.com/relabs-tech/lsm6dsv320x/internal/config"
	"github.com/relabs-tech/lsm6dsv320x/internal/program"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <program.json>", os.Args[0])
	}

	if err := config.InitGlobal("lsm6dsv320x.conf"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	p, err := program.LoadFile(os.Args[1])
	if err != nil {
		log.Fatalf("failed to load program: %v", err)
	}
	log.Printf("loaded %d operations from %s", len(p), os.Args[1])

	s, closeBus, err := app.OpenSensor()
	if err != nil {
		log.Fatalf("failed to open sensor: %v", err)
	}
	defer closeBus()
	log.Printf("sensor identity verified on %s interface", s.Space())

	if err := s.Apply(p); err != nil {
		var applyErr *program.ApplyError
		if errors.As(err, &applyErr) {
			log.Fatalf("program aborted at operation %d: %v (operations before it were issued, none after it were attempted)",
				applyErr.Index, applyErr.Err)
		}
		log.Fatalf("apply failed: %v", err)
	}

	log.Printf("program applied: %d operations issued in order", len(p))
}
