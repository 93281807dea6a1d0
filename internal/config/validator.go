// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Beyond the struct tags, one custom check lives here: the configured
// default grant role must parse against the closed role vocabulary.  An
// unknown role name is a configuration error and must die at boot, never
// surface later as a silent denial.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/taskgrid/taskgrid/internal/acl"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}

	role, err := acl.ParseRole(c.Auth.DefaultGrantRole)
	if err != nil {
		return err
	}
	if !role.IsProjectRole() {
		return fmt.Errorf("config: default_grant_role %q is not a project role", role)
	}
	return nil
}
