// Package config handles configuration loading, parsing, and validation
// from environment variables (QUARRY_ prefix) and an optional YAML file,
// with environment taking precedence. It provides type-safe access to
// application settings while keeping configuration details separate from
// business logic.
package config
