// Package config loads the digestmail configuration: mail transport
// settings and the digest definitions, from a YAML or TOML file, a .env file
// and environment overrides.
package config
