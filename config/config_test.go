package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/nexfetch/nexfetch/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Domain != "skyrim" {
		t.Errorf("Domain = %q, want default skyrim", cfg.Domain)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.DownloadDir != "mod_downloads" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Concurrency)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "domain: morrowind\nrps: 1\ndownload_dir: archives\n"
	if err := os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Domain != "morrowind" {
		t.Errorf("Domain = %q, want morrowind", cfg.Domain)
	}
	if cfg.RPS != 1 {
		t.Errorf("RPS = %d, want 1", cfg.RPS)
	}
	if cfg.DownloadDir != "archives" {
		t.Errorf("DownloadDir = %q, want archives", cfg.DownloadDir)
	}
	if cfg.Burst != 5 {
		t.Errorf("Burst = %d, want the default to survive a partial file", cfg.Burst)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NEXFETCH_DOMAIN", "oblivion")

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Domain != "oblivion" {
		t.Errorf("Domain = %q, want env override oblivion", cfg.Domain)
	}
}

func TestAddFlags(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)

	if err := fs.Parse([]string{"--domain", "morrowind", "--concurrency", "8", "--verbose"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Domain != "morrowind" {
		t.Errorf("Domain = %q, want flag override", cfg.Domain)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}
