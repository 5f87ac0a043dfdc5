// Package inventory turns a CSV export of the hardware inventory into
// scored Asset records.
//
// Parse never fails: malformed rows are skipped and missing numbers become
// zero, so a partially broken export still yields every readable machine.
// The column positions the export uses live in columns.go and nowhere else.
package inventory
