package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/haven/pkg/cache"
	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/httputil"
)

// Config is the application configuration read from config.toml.
//
//	cache_dir      = "~/.cache/haven"
//	repositories   = "~/.config/haven/repositories.json"
//	fetch_timeout  = "30s"
//	concurrency    = 8
//	maven_local    = true
//	redis_url      = "redis://localhost:6379/0"
//	outcome_ttl    = "24h"
type Config struct {
	CacheDir     string   `toml:"cache_dir"`
	Repositories string   `toml:"repositories"`
	FetchTimeout duration `toml:"fetch_timeout"`
	Concurrency  int      `toml:"concurrency"`

	// MavenLocal adds ~/.m2/repository as a local repository.
	MavenLocal bool `toml:"maven_local"`

	// DefaultRepositories appends the built-in remotes after the ones in
	// the registry file.
	DefaultRepositories bool `toml:"default_repositories"`

	// RedisURL selects the shared outcome cache instead of the file cache.
	RedisURL   string   `toml:"redis_url"`
	OutcomeTTL duration `toml:"outcome_ttl"`
}

// duration decodes TOML strings such as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() (Config, error) {
	cdir, err := cacheDir()
	if err != nil {
		return Config{}, err
	}
	gdir, err := configDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		CacheDir:     cdir,
		Repositories: filepath.Join(gdir, "repositories.json"),
		FetchTimeout: duration{httputil.DefaultTimeout},
		Concurrency:  runtime.NumCPU(),
		OutcomeTTL:   duration{cache.DefaultTTL},
	}, nil
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.CacheDir = expandHome(cfg.CacheDir)
	cfg.Repositories = expandHome(cfg.Repositories)
	if cfg.FetchTimeout.Duration <= 0 {
		cfg.FetchTimeout.Duration = httputil.DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.OutcomeTTL.Duration <= 0 {
		cfg.OutcomeTTL.Duration = cache.DefaultTTL
	}
	return cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the XDG cache directory (~/.cache/haven/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the XDG config directory (~/.config/haven/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultConfigPath returns config.toml inside configDir.
func defaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// mavenHome returns the local Maven repository (~/.m2/repository).
func mavenHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".m2", "repository"), nil
}

// Cache layout under Config.CacheDir.
const (
	artifactsSubdir = "repositories"
	outcomesSubdir  = "outcomes"
)

func (c Config) artifactsDir() string { return filepath.Join(c.CacheDir, artifactsSubdir) }
func (c Config) outcomesDir() string  { return filepath.Join(c.CacheDir, outcomesSubdir) }
