// Package config loads assetboard's YAML configuration and watches it for
// changes.
//
// Secrets and the inventory URL are never written into the file itself; the
// file names the environment variables that hold them (url_env, key_env).
// LoadEnvFile populates the environment from a .env file before Load runs.
package config
