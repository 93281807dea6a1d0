// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file — `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `TASKGRID_`, where `__` maps to “.”
     (e.g., `TASKGRID_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.

Values carrying a `vault:` prefix stay opaque here; main calls
`ResolveSecrets` once a Vault client exists, before anything dials the
database.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/taskgrid/taskgrid/internal/vault"
)

var current atomic.Pointer[Config]

// vaultPrefix marks a config value that must be resolved through Vault
// before use.  Format: vault:<mount/path>#<key>.
const vaultPrefix = "vault:"

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves TASKGRID_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("TASKGRID_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: TASKGRID_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("TASKGRID_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"sweep_schedule", cfg.Sweep.Schedule,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────── secret resolution ───────────────────────────────*/

// NeedsVault reports whether any config field carries a vault: reference.
func (c *Config) NeedsVault() bool {
	for _, v := range c.secretFields() {
		if strings.HasPrefix(*v, vaultPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every vault:-prefixed value in place.  Must run
// before the database or session manager is built.
func (c *Config) ResolveSecrets(ctx context.Context, cli *vault.Client) error {
	for _, v := range c.secretFields() {
		if !strings.HasPrefix(*v, vaultPrefix) {
			continue
		}
		ref := strings.TrimPrefix(*v, vaultPrefix)
		path, key, ok := strings.Cut(ref, "#")
		if !ok {
			return fmt.Errorf("config: malformed vault reference %q", *v)
		}
		val, err := cli.GetKV(ctx, path, key, 5*time.Minute)
		if err != nil {
			return err
		}
		*v = val
	}
	return nil
}

// secretFields lists the fields eligible for vault: references.
func (c *Config) secretFields() []*string {
	return []*string{
		&c.Database.Password,
		&c.Auth.ServiceToken,
		&c.Auth.SessionKey,
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
