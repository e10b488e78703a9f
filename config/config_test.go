package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if cfg.MaxRetries != want.MaxRetries || cfg.BackoffBase != want.BackoffBase {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.MaxRetries = 7
	cfg.BackoffBase = 1.5
	cfg.DBPath = "/tmp/custom.db"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", loaded.MaxRetries)
	}
	if loaded.BackoffBase != 1.5 {
		t.Errorf("BackoffBase = %v, want 1.5", loaded.BackoffBase)
	}
	if loaded.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q, want /tmp/custom.db", loaded.DBPath)
	}
}

func TestGetUnknownKey(t *testing.T) {
	cfg := Default()
	_, err := cfg.Get("bogus_key")
	if err == nil {
		t.Fatal("expected an error for unknown key")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
}

func TestSetMaxRetriesCoercion(t *testing.T) {
	cfg := Default()
	if err := cfg.Set("max_retries", 5); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}

	if err := cfg.Set("max_retries", -1); err == nil {
		t.Fatal("expected error setting negative max_retries")
	}
}

func TestSetUnknownKey(t *testing.T) {
	cfg := Default()
	err := cfg.Set("bogus_key", 1)
	if err == nil {
		t.Fatal("expected an error for unknown key")
	}
}

func TestSetWrongType(t *testing.T) {
	cfg := Default()
	err := cfg.Set("db_path", 42)
	if err == nil {
		t.Fatal("expected an error setting db_path to a non-string")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.WorkerPollInterval = 2.5
	cfg.JobTimeout = 10
	cfg.ProcessingLease = 100

	if cfg.PollInterval().Seconds() != 2.5 {
		t.Errorf("PollInterval = %v, want 2.5s", cfg.PollInterval())
	}
	if cfg.Timeout().Seconds() != 10 {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout())
	}
	if cfg.Lease().Seconds() != 100 {
		t.Errorf("Lease = %v, want 100s", cfg.Lease())
	}
}
