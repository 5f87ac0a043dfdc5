// Package receiver accepts CSV inventory exports pushed over HTTP and
// installs them as the current snapshot, for deployments where the
// dashboard cannot reach the spreadsheet itself.
package receiver
