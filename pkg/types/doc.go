// Package types defines the shared Go types used across the service.
// Asset is the canonical in-memory representation of one inventoried
// machine, separate from the CSV wire format and the JSON API payloads.
package types
