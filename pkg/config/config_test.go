package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("MAX_UPLOAD_BYTES", "garbage")
	t.Setenv("CORRECTIONS_PATH", "")
	cfg := Load()
	if cfg.AutoMigrate {
		t.Fatalf("expected auto migrate disabled")
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Fatalf("unexpected max upload %d", cfg.MaxUploadBytes)
	}
	if cfg.CorrectionsPath != "data/corrections.json" {
		t.Fatalf("unexpected corrections path %q", cfg.CorrectionsPath)
	}
}

func TestOpenSolver(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		CorrectionsPath: filepath.Join(dir, "corrections.json"),
		BackgroundDir:   filepath.Join(dir, "bg"),
		TesseractLang:   "eng",
	}
	solver, store, err := cfg.OpenSolver()
	if err != nil {
		t.Fatalf("open solver: %v", err)
	}
	if solver.References.Len() != 0 || store.Snapshot() == nil {
		t.Fatalf("unexpected solver state")
	}
}
