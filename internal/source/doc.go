// Package source fetches the raw inventory CSV.
//
// Two fetchers exist: an HTTP fetcher for published spreadsheet exports and
// a file fetcher for local exports. Neither retries by default; a failed
// fetch is reported to the caller, who decides whether to try again.
//
// For HTTPS sources the fetcher records the server's leaf certificate so the
// status endpoint can warn before the export URL stops working.
package source
