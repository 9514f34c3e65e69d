// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals and defaults the merged Koanf tree.  Any tag mismatch or
// validation error aborts startup, so the binary never runs with partial,
// malformed, or missing configuration.
//
// Besides the struct tags, one cross-field rule lives here: the default
// locale must be one of the supported locales.

package config

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
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
	if !slices.Contains(c.Locale.Supported, c.Locale.Default) {
		return fmt.Errorf("locale.default %q is not in locale.supported", c.Locale.Default)
	}
	return nil
}
