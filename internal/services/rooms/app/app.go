// Package app wires the rooms service: storage, routes, HTTP server, and the
// background sweep that expires abandoned rooms.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/louisbranch/darkwater/internal/services/rooms/api"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage/memory"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage/sqlite"
)

const (
	defaultHTTPAddr      = "localhost:8087"
	defaultSweepInterval = 10 * time.Minute
	defaultRoomTTL       = 2 * time.Hour
)

// Config holds the rooms server configuration.
type Config struct {
	// HTTPAddr is the listen address.
	HTTPAddr string
	// DBPath selects SQLite persistence; empty keeps rooms in memory.
	DBPath string
	// SweepInterval is how often expired rooms are collected.
	SweepInterval time.Duration
	// RoomTTL is how long a room survives without an update.
	RoomTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.RoomTTL <= 0 {
		c.RoomTTL = defaultRoomTTL
	}
	return c
}

// Server is the assembled rooms service.
type Server struct {
	cfg   Config
	store storage.Store
	http  *http.Server
}

// NewServer opens storage and wires the routes.
func NewServer(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	var store storage.Store
	if cfg.DBPath != "" {
		var err error
		store, err = sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open room storage: %w", err)
		}
	} else {
		store = memory.New()
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.NewHandler(store))

	return &Server{
		cfg:   cfg,
		store: store,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go s.sweep(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	log.Printf("listening on %s", s.cfg.HTTPAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close releases storage.
func (s *Server) Close() error {
	return s.store.Close()
}

// sweep periodically removes rooms whose last update is older than the TTL.
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeleteExpired(ctx, time.Now().Add(-s.cfg.RoomTTL))
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("sweep expired rooms: %v", err)
				}
				continue
			}
			if n > 0 {
				log.Printf("swept %d expired room(s)", n)
			}
		}
	}
}
