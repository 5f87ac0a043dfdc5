package inventory

import (
	"fmt"
	"io"
	"strings"

	"github.com/assetboard/assetboard/internal/health"
	"github.com/assetboard/assetboard/pkg/types"
)

// Parse converts the raw export text into scored assets, preserving row
// order. The first line is the header and is discarded. Blank rows, rows
// with fewer than five fields, and rows with neither an asset tag nor a
// computer name are skipped.
//
// Parse holds no state between calls: the same text always yields the same
// records.
func Parse(text string) []types.Asset {
	lines := strings.Split(text, "\n")
	out := make([]types.Asset, 0, len(lines))

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}

		cols := SplitRow(lines[i])
		if len(cols) < minColumns {
			continue
		}

		a := mapColumns(cols)
		if a.ID == "" && a.ComputerName == "" {
			continue
		}

		score := health.Compute(health.Input{
			Memory:    a.Memory,
			HDD1:      a.HDD1,
			OS:        a.OS,
			HDD1Hours: a.HDD1Hours,
		})
		a.HealthScore = score.Score
		a.HealthGrade = score.Grade
		a.HealthColor = score.Color
		a.ScoreBreakdown = score.Breakdown

		out = append(out, a)
	}
	return out
}

// ParseReader reads r to the end and parses it. The only error it returns
// is the reader's.
func ParseReader(r io.Reader) ([]types.Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inventory: read: %w", err)
	}
	return Parse(string(data)), nil
}

// SplitRow splits one CSV line into cleaned fields.
//
// A comma separates fields only when an even number of double quotes
// follows it on the line, i.e. when it sits outside any quoted span. Each
// field then loses one leading and one trailing quote and surrounding
// whitespace. Doubled quotes inside a field are not unescaped.
func SplitRow(line string) []string {
	remaining := strings.Count(line, `"`)

	var cols []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			remaining--
		case ',':
			if remaining%2 == 0 {
				cols = append(cols, clean(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(cols, clean(line[start:]))
}

// clean strips one surrounding quote from each end, then whitespace.
func clean(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}
