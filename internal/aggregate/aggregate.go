package aggregate

import (
	"sort"
	"strings"

	"github.com/assetboard/assetboard/pkg/types"
)

// Count is one labelled bar or slice.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// OS bucket labels.
const (
	OSWindows11 = "Windows 11"
	OSWindows10 = "Windows 10"
	OSOthers    = "Others"
)

// OSDistribution buckets assets by OS family. An OS containing "11" is
// Windows 11, else one containing "10" is Windows 10, else any non-blank
// value is Others. Empty buckets are omitted; the result is sorted by count
// descending with ties kept in bucket order.
func OSDistribution(assets []types.Asset) []Count {
	buckets := []Count{{Label: OSWindows11}, {Label: OSWindows10}, {Label: OSOthers}}
	for _, a := range assets {
		switch os := strings.ToLower(strings.TrimSpace(a.OS)); {
		case strings.Contains(os, "11"):
			buckets[0].Count++
		case strings.Contains(os, "10"):
			buckets[1].Count++
		case os == "" || os == "-" || os == "unknown" || os == "n/a":
		default:
			buckets[2].Count++
		}
	}

	out := make([]Count, 0, len(buckets))
	for _, b := range buckets {
		if b.Count > 0 {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// GradeDistribution counts assets per health grade. It always returns four
// entries in A, B, C, D order.
func GradeDistribution(assets []types.Asset) []Count {
	idx := make(map[types.Grade]int, len(types.Grades))
	out := make([]Count, len(types.Grades))
	for i, g := range types.Grades {
		idx[g] = i
		out[i] = Count{Label: string(g)}
	}
	for _, a := range assets {
		if i, ok := idx[a.HealthGrade]; ok {
			out[i].Count++
		}
	}
	return out
}

// DiskHistogram tallies the raw HDD1 and HDD2 model strings independently,
// so an asset contributes up to two counts. Blank, "-" and "unknown" values
// are skipped. Labels appear in order of first occurrence.
func DiskHistogram(assets []types.Asset) []Count {
	idx := make(map[string]int)
	out := make([]Count, 0)
	add := func(v string) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "-", "unknown":
			return
		}
		if i, ok := idx[v]; ok {
			out[i].Count++
			return
		}
		idx[v] = len(out)
		out = append(out, Count{Label: v, Count: 1})
	}
	for _, a := range assets {
		add(a.HDD1)
		add(a.HDD2)
	}
	return out
}
