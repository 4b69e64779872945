// Package main runs the local match harness: two game sessions in one
// process coordinating over the bus, the rooms service, and the simulated
// ledger.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	darkwatercmd "github.com/louisbranch/darkwater/internal/cmd/darkwater"
	platformcmd "github.com/louisbranch/darkwater/internal/platform/cmd"
)

func main() {
	log.SetPrefix("[DARKWATER] ")
	if err := platformcmd.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := darkwatercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := darkwatercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to run match: %v", err)
	}
}
