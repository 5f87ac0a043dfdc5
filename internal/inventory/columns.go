package inventory

import (
	"strings"

	"github.com/assetboard/assetboard/internal/health"
	"github.com/assetboard/assetboard/pkg/types"
)

// Zero-based column positions in the inventory export.
const (
	colID             = 1
	colComputerName   = 2
	colType           = 4
	colOS             = 5
	colCPU            = 7
	colMemory         = 9
	colGPU            = 10
	colHDD1           = 12
	colHDD1Hours      = 15
	colHDD2           = 16
	colHDD2Hours      = 19
	colTotalDiskHours = 20
	colUser           = 26
	colDept           = 28
)

// minColumns is the number of fields a row needs before it is mapped at all.
const minColumns = 5

// mapColumns builds an unscored Asset from one split row.
func mapColumns(cols []string) types.Asset {
	return types.Asset{
		ID:             field(cols, colID),
		ComputerName:   field(cols, colComputerName),
		User:           field(cols, colUser),
		Dept:           strings.TrimSpace(strings.ReplaceAll(field(cols, colDept), "\r", "")),
		Type:           field(cols, colType),
		OS:             field(cols, colOS),
		CPU:            field(cols, colCPU),
		Memory:         field(cols, colMemory),
		GPU:            field(cols, colGPU),
		HDD1:           field(cols, colHDD1),
		HDD2:           field(cols, colHDD2),
		HDD1Hours:      hours(cols, colHDD1Hours),
		HDD2Hours:      hours(cols, colHDD2Hours),
		TotalDiskHours: hours(cols, colTotalDiskHours),
	}
}

// field returns column i, or "" when the row is too short.
func field(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}

// hours reads an hour counter such as "12,000". Thousands separators are
// dropped; anything that does not start with a number, or is negative,
// reads as 0.
func hours(cols []string, i int) int {
	n := health.LeadingInt(strings.ReplaceAll(field(cols, i), ",", ""))
	if n < 0 {
		return 0
	}
	return n
}
