// Package api serves assetboard's REST endpoints under /api/v1.
//
// Every read works on the snapshot current at the start of the request.
// The list and stats endpoints take the search term from ?search= and the
// filter state from repeated category parameters (?os=...&dept=...), so the
// filtered set and its aggregates are always computed together.
package api
