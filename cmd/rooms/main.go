// Package main starts the rooms service: the shared room record store the
// game sessions coordinate through.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	roomscmd "github.com/louisbranch/darkwater/internal/cmd/rooms"
	platformcmd "github.com/louisbranch/darkwater/internal/platform/cmd"
)

func main() {
	log.SetPrefix("[ROOMS] ")
	if err := platformcmd.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := roomscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := roomscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
