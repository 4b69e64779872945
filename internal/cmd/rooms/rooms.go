// Package rooms configures and runs the rooms service command.
package rooms

import (
	"context"
	"flag"
	"fmt"
	"time"

	platformcmd "github.com/louisbranch/darkwater/internal/platform/cmd"
	"github.com/louisbranch/darkwater/internal/services/rooms/app"
)

// Config holds the rooms command configuration.
type Config struct {
	HTTPAddr      string        `env:"DARKWATER_ROOMS_HTTP_ADDR" envDefault:"localhost:8087"`
	DBPath        string        `env:"DARKWATER_ROOMS_DB_PATH"`
	SweepInterval time.Duration `env:"DARKWATER_ROOMS_SWEEP_INTERVAL" envDefault:"10m"`
	RoomTTL       time.Duration `env:"DARKWATER_ROOMS_ROOM_TTL" envDefault:"2h"`
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty keeps rooms in memory)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often expired rooms are collected")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", cfg.RoomTTL, "how long a room survives without updates")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the rooms server.
func Run(ctx context.Context, cfg Config) error {
	server, err := app.NewServer(app.Config{
		HTTPAddr:      cfg.HTTPAddr,
		DBPath:        cfg.DBPath,
		SweepInterval: cfg.SweepInterval,
		RoomTTL:       cfg.RoomTTL,
	})
	if err != nil {
		return fmt.Errorf("init rooms server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve rooms: %w", err)
	}
	return nil
}
