package app

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.HTTPAddr == "" {
		t.Fatal("expected a default listen address")
	}
	if cfg.SweepInterval <= 0 || cfg.RoomTTL <= 0 {
		t.Fatalf("expected positive sweep defaults, got %v/%v", cfg.SweepInterval, cfg.RoomTTL)
	}
}

func TestConfigDefaultsKeepOverrides(t *testing.T) {
	cfg := Config{HTTPAddr: ":9999", SweepInterval: time.Minute, RoomTTL: time.Hour}.withDefaults()
	if cfg.HTTPAddr != ":9999" || cfg.SweepInterval != time.Minute || cfg.RoomTTL != time.Hour {
		t.Fatalf("defaults clobbered overrides: %+v", cfg)
	}
}

func TestNewServerMemoryBacked(t *testing.T) {
	srv, err := NewServer(Config{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.Close()

	if srv.store == nil || srv.http == nil {
		t.Fatal("server not fully wired")
	}
}

func TestNewServerSQLiteBacked(t *testing.T) {
	srv, err := NewServer(Config{DBPath: t.TempDir() + "/rooms.db"})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
