// internal/config/model.go
//
// Typed configuration model for Taskgrid.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `TASKGRID_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client by ResolveSecrets before the process uses it,
// so secrets stay out of flat files and git history.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  It must contain exactly one %s verb
// where the password goes.  The *secret* portion (`Password`) normally
// carries a `vault:` reference.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

//
// Auth section
//

// Auth configures the three principal tiers.
//
// ServiceToken is the shared bearer secret that marks internal service
// calls; empty disables the tier.  SessionKey signs user-session cookies.
// DefaultGrantRole is what resource creators receive, parsed and checked at
// startup so an unknown role name can never reach the comparison logic.
type Auth struct {
	ServiceToken     string `koanf:"service_token"`
	SessionKey       string `koanf:"session_key" validate:"required,min=16"`
	SessionTTLHours  int    `koanf:"session_ttl_hours"`
	DefaultGrantRole string `koanf:"default_grant_role" validate:"required"`
}

//
// Sweep section
//

// Sweep drives the periodic expired-grant cleanup.
type Sweep struct {
	Schedule string `koanf:"schedule" validate:"required"` // cron spec, e.g. "@hourly"
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or TASKGRID_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // TASKGRID_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Sweep    Sweep    `koanf:"sweep"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
