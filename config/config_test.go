package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":10001" {
		t.Fatalf("default address = %q", cfg.Server.Address)
	}
	if cfg.Retrieval.DistrictResults != 40 || cfg.Retrieval.SchoolResults != 10 {
		t.Fatalf("default result counts = %d/%d", cfg.Retrieval.DistrictResults, cfg.Retrieval.SchoolResults)
	}
	if cfg.Retrieval.HistoryDepth != 6 {
		t.Fatalf("default history depth = %d", cfg.Retrieval.HistoryDepth)
	}
	if cfg.Storage.Redis.HistoryTTL != 30*time.Minute {
		t.Fatalf("default history ttl = %v", cfg.Storage.Redis.HistoryTTL)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SCHOOLCHAT_SERVER_ADDRESS", ":8080")
	t.Setenv("SCHOOLCHAT_RETRIEVAL_DISTRICT_RESULTS", "25")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("env override ignored, address = %q", cfg.Server.Address)
	}
	if cfg.Retrieval.DistrictResults != 25 {
		t.Fatalf("env override ignored, district results = %d", cfg.Retrieval.DistrictResults)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  address: ":9000"
schools:
  "Lakeview Junior High": lakeview.example.net
retrieval:
  district_domain: example.net
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Fatalf("file value ignored, address = %q", cfg.Server.Address)
	}
	if cfg.Schools["Lakeview Junior High"] != "lakeview.example.net" {
		t.Fatalf("schools map = %v", cfg.Schools)
	}
	if cfg.Retrieval.DistrictDomain != "example.net" {
		t.Fatalf("district domain = %q", cfg.Retrieval.DistrictDomain)
	}
	// Untouched keys keep their defaults.
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("default provider = %q", cfg.LLM.Provider)
	}
}

func TestPostgresDSN(t *testing.T) {
	t.Parallel()
	p := PostgresConfig{Host: "db", DBName: "schoolchat", User: "app", Password: "secret"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("DSN() error = %v", err)
	}
	want := "postgres://app:secret@db:5432/schoolchat?sslmode=disable"
	if dsn != want {
		t.Fatalf("DSN() = %q, want %q", dsn, want)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatalf("expected error for unconfigured postgres")
	}

	u := PostgresConfig{URL: "postgres://x"}
	if dsn, _ := u.DSN(); dsn != "postgres://x" {
		t.Fatalf("URL not preferred: %q", dsn)
	}
}
