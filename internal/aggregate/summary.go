package aggregate

import (
	"math"
	"strings"

	"github.com/assetboard/assetboard/pkg/types"
)

// Summary holds the headline numbers shown above the charts.
type Summary struct {
	Total        int     `json:"total"`
	Windows11    int     `json:"windows11"`
	Windows11Pct float64 `json:"windows11_pct"`
	FastDisk     int     `json:"fast_disk"`
	AvgHDD1Hours int     `json:"avg_hdd1_hours"`
}

// Summarize computes the summary over assets. FastDisk counts assets whose
// HDD1 or HDD2 mentions "SSD" or "M.2" (case-sensitive). Windows11Pct is
// rounded to one decimal and is 0 for an empty set.
func Summarize(assets []types.Asset) Summary {
	s := Summary{Total: len(assets)}
	var hours int
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.OS), "11") {
			s.Windows11++
		}
		if isFastDisk(a.HDD1) || isFastDisk(a.HDD2) {
			s.FastDisk++
		}
		hours += a.HDD1Hours
	}

	denom := s.Total
	if denom == 0 {
		denom = 1
	}
	s.Windows11Pct = math.Round(float64(s.Windows11)/float64(denom)*1000) / 10
	s.AvgHDD1Hours = int(math.Round(float64(hours) / float64(denom)))
	return s
}

func isFastDisk(model string) bool {
	return strings.Contains(model, "SSD") || strings.Contains(model, "M.2")
}
