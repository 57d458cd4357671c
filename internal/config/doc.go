// Package config loads piston's runtime configuration.
//
// Settings come from three sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A config file, TOML or YAML chosen by extension
//  3. PISTON_* environment variables
//
// Load applies all three and validates the result:
//
//	cfg, err := config.Load("piston.toml")
//	if err != nil {
//		return err
//	}
//
// A missing file is not an error; defaults and environment still apply.
package config
