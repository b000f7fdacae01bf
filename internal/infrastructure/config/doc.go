// Package config handles loading and validating the proxy configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (the upstream credential, the JWT signing secret and
//     the account password) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The admin password may be supplied either as a plain secret or as an
//     Argon2id PHC hash string
//
// Configuration is loaded once at startup and is immutable afterwards.
// Missing required values fail process startup rather than surfacing as
// deferred runtime errors.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
