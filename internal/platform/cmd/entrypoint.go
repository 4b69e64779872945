// Package cmd provides shared entrypoint helpers for service commands.
package cmd

import (
	"errors"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/louisbranch/darkwater/internal/platform/config"
)

// Service identifiers for command log prefixes and CLI naming consistency.
const (
	ServiceRooms     = "rooms"
	ServiceDarkwater = "darkwater"
)

// LoadDotEnv loads a .env file when present. A missing file is not an error;
// deployments configure the environment directly.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs loads defaults from env and then parses flags.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}
