// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/relabs-tech/lsm6dsv320x/internal/app"
	"github.com/relabs-tech/lsm6dsv320x/internal/config"
)

func main() {
	log.Println("starting lsm6dsv320x register debug tool")

	if err := config.InitGlobal("lsm6dsv320x.conf"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	s, closeBus, err := app.OpenSensor()
	if err != nil {
		log.Fatalf("failed to open sensor: %v", err)
	}
	defer closeBus()
	log.Printf("sensor identity verified on %s interface", s.Space())

	debug := app.NewRegisterDebug(s)
	http.HandleFunc("/ws", debug.HandleWS)

	port := config.Get().WebServerPort
	if port == 0 {
		port = 8081
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("register debug tool listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
