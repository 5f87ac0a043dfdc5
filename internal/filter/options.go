package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/assetboard/assetboard/pkg/types"
)

// IsPlaceholder reports whether v is a blank or "no data" marker: empty,
// "-", "unknown" or "n/a" (case-insensitive).
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "-", "unknown", "n/a":
		return true
	}
	return false
}

// Options returns the distinct selectable values per category across
// assets. Placeholders are left out. Values are sorted lexically, except
// memory, which sorts numbers numerically ahead of any free-text values.
func Options(assets []types.Asset) map[Category][]string {
	out := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		seen := make(map[string]struct{})
		vals := make([]string, 0)
		for _, a := range assets {
			v := strings.TrimSpace(c.Value(a))
			if IsPlaceholder(v) {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			vals = append(vals, v)
		}

		sort.Strings(vals)
		if c == Memory {
			sort.SliceStable(vals, func(i, j int) bool { return memoryLess(vals[i], vals[j]) })
		}
		out[c] = vals
	}
	return out
}

// memoryLess orders "4" < "8 GB" < "16" < "32 GB" by the leading number.
// Values with a number come before those without, which sort lexically
// among themselves.
func memoryLess(a, b string) bool {
	na, okA := leadingFloat(a)
	nb, okB := leadingFloat(b)
	switch {
	case okA && okB:
		return na < nb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat reads the number at the start of s, ignoring whatever
// follows it: "16 GB" is 16, "8.5GB" is 8.5, "GB" has none.
func leadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
