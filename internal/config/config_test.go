package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Currency != "XOF" {
		t.Fatalf("currency = %s", cfg.Currency)
	}
	for _, code := range []string{"AC", "VE", "BQ", "CA", "OD"} {
		if !cfg.KnownJournal(code) {
			t.Fatalf("journal %s missing", code)
		}
	}
	if cfg.KnownJournal("XX") {
		t.Fatalf("XX must be unknown")
	}
	if cfg.Lettrage.MaxSubsetSize < 2 {
		t.Fatalf("subset bound too small: %d", cfg.Lettrage.MaxSubsetSize)
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compta.yaml")
	body := []byte("currency: EUR\nlettrage:\n  max_subset_size: 6\naccounts:\n  client: \"4111\"\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Currency != "EUR" {
		t.Fatalf("currency = %s", cfg.Currency)
	}
	if cfg.Lettrage.MaxSubsetSize != 6 {
		t.Fatalf("max_subset_size = %d", cfg.Lettrage.MaxSubsetSize)
	}
	if cfg.Accounts.Client != "4111" {
		t.Fatalf("client = %s", cfg.Accounts.Client)
	}
	// untouched keys keep their defaults
	if cfg.Accounts.Vente != "701" {
		t.Fatalf("vente = %s", cfg.Accounts.Vente)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	cfg, err := Load("")
	if err != nil || cfg.Currency == "" {
		t.Fatalf("empty path must return defaults: %v", err)
	}
}
