package main

import (
	"testing"

	"cargoclash/internal/config"

	"github.com/rs/zerolog"
)

func TestNewLogger_ParsesLevel(t *testing.T) {
	if got := newLogger("debug").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("newLogger(debug) level=%v want debug", got)
	}
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	if got := newLogger("chatty").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("newLogger(chatty) level=%v want info", got)
	}
}

func TestBuildRepos_InMemory(t *testing.T) {
	var cfg config.Config
	cfg.DB.InMemory = true

	r, err := buildRepos(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildRepos: %v", err)
	}
	if r.Tx == nil || r.Vehicles == nil || r.Players == nil || r.Locations == nil ||
		r.Missions == nil || r.Markets == nil || r.CombatLog == nil {
		t.Fatalf("buildRepos left a nil repo: %+v", r)
	}
}

func TestBuildRepos_SQLiteFallback(t *testing.T) {
	var cfg config.Config
	cfg.DB.SQLitePath = "file:mainrepos?mode=memory&cache=shared"

	r, err := buildRepos(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildRepos: %v", err)
	}
	if r.Tx == nil || r.CombatLog == nil {
		t.Fatalf("buildRepos left a nil repo: %+v", r)
	}
}
