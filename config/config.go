// Package config loads nexfetch settings from a YAML file,
// environment variables, and command-line flags, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"os"
	"time"

	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// NEXFETCH_DOMAIN.
const EnvPrefix = "NEXFETCH"

// DefaultFile is the config file name fig searches for.
const DefaultFile = "nexfetch.yaml"

// Config holds every tunable of the fetch pipeline.
type Config struct {
	// APIKeyFile is the path of the file holding the Nexus API key.
	APIKeyFile string `fig:"api_key_file" default:"nexus_api_key.txt"`
	// Domain is the game domain the mod ids belong to.
	Domain string `fig:"domain" default:"skyrim"`
	// ModList is the CSV file of mod ids to fetch.
	ModList string `fig:"mod_list" default:"mod_list.csv"`
	// ModListColumn is the zero-based CSV column holding the ids.
	ModListColumn int `fig:"mod_list_column"`
	// DownloadDir receives the downloaded archives.
	DownloadDir string `fig:"download_dir" default:"mod_downloads"`
	// ProfileDir receives the JSON artifacts of each run.
	ProfileDir string `fig:"profile_dir" default:"profile"`
	// ChunkSize is the download chunk size in bytes; 0 keeps the 1 MiB
	// default.
	ChunkSize int64 `fig:"chunk_size"`
	// Timeout bounds each API query.
	Timeout time.Duration `fig:"timeout" default:"5s"`
	// RPS and Burst throttle outbound API calls; 0 disables throttling.
	RPS   int `fig:"rps" default:"2"`
	Burst int `fig:"burst" default:"5"`
	// Concurrency bounds simultaneous downloads.
	Concurrency int `fig:"concurrency" default:"3"`
	// UserAgent identifies the client to the API.
	UserAgent string `fig:"user_agent" default:"nexfetch"`
	// Verbose switches logging to debug level.
	Verbose bool `fig:"verbose"`
}

// Load reads the config file (searched in path, then the working
// directory and ~/.nexfetch) and applies NEXFETCH_ environment
// overrides. A missing file is fine; defaults and env cover it.
func Load(path string) (*Config, error) {
	var cfg Config

	dirs := []string{path}
	if path == "" {
		dirs = []string{"."}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, home+"/.nexfetch")
		}
	}

	err := fig.Load(&cfg, fig.File(DefaultFile), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if err != nil {
		if !errors.Is(err, fig.ErrFileNotFound) {
			return nil, err
		}
		if err := fig.Load(&cfg, fig.IgnoreFile(), fig.UseEnv(EnvPrefix)); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// AddFlags binds the command-line overrides onto fs. Call before
// fs.Parse; flag values replace whatever file and env produced.
func (c *Config) AddFlags(fs *pflag.FlagSet) *Config {
	fs.StringVarP(&c.APIKeyFile, "key-file", "k", c.APIKeyFile, "File holding the Nexus API key")
	fs.StringVarP(&c.Domain, "domain", "g", c.Domain, "Game domain, e.g. skyrim")
	fs.StringVarP(&c.ModList, "mod-list", "l", c.ModList, "CSV file of mod ids")
	fs.IntVar(&c.ModListColumn, "mod-list-column", c.ModListColumn, "Zero-based CSV column holding the ids")
	fs.StringVarP(&c.DownloadDir, "download-dir", "o", c.DownloadDir, "Destination folder for archives")
	fs.StringVar(&c.ProfileDir, "profile-dir", c.ProfileDir, "Folder for JSON artifacts")
	fs.Int64Var(&c.ChunkSize, "chunk-size", c.ChunkSize, "Download chunk size in bytes")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Per-query timeout")
	fs.IntVar(&c.RPS, "rps", c.RPS, "API requests per second, 0 disables throttling")
	fs.IntVar(&c.Burst, "burst", c.Burst, "API request burst capacity")
	fs.IntVarP(&c.Concurrency, "concurrency", "c", c.Concurrency, "Simultaneous downloads")
	fs.StringVar(&c.UserAgent, "user-agent", c.UserAgent, "User-Agent header value")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Debug logging")

	return c
}
