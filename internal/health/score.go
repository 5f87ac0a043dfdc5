package health

import (
	"strings"

	"github.com/assetboard/assetboard/pkg/types"
)

// Factor contributions.
const (
	ramHigh = 30 // ≥16 GB
	ramMid  = 20 // 8–15 GB
	ramLow  = 5

	diskNVMe  = 40 // "nvme" or "m.2"
	diskSSD   = 30
	diskOther = 10

	osWin11 = 30
	osWin10 = 20

	// UsagePenalty is applied when the primary disk exceeds MaxDiskHours.
	UsagePenalty = -20
)

// MaxDiskHours is five years of continuous power-on time.
const MaxDiskHours = 43800

// Thresholds that map a score to a grade. Lower bounds are inclusive.
const (
	ThresholdA = 80
	ThresholdB = 60
	ThresholdC = 40
)

// Presentation tags, one per grade.
const (
	ColorA = "green"
	ColorB = "blue"
	ColorC = "orange"
	ColorD = "red"
)

// Input holds the asset attributes the score depends on.
type Input struct {
	// Memory is the RAM size in GB as written in the export. Only the
	// leading integer is read; anything unparseable counts as 0.
	Memory string

	// HDD1 is the free-text description of the primary disk.
	HDD1 string

	// OS is the free-text operating system name.
	OS string

	// HDD1Hours is the power-on hours of the primary disk.
	HDD1Hours int
}

// Output is the result of the health score calculation.
type Output struct {
	// Score is the clamped total in the range 0–100.
	Score int

	// Grade is derived from Score.
	Grade types.Grade

	// Color is the presentation tag for Grade.
	Color string

	// Breakdown carries the four contributions verbatim.
	Breakdown types.ScoreBreakdown
}

// Compute calculates the health score for one asset.
//
//	score = clamp(ram + disk + os + penalty, 0, 100)
func Compute(in Input) Output {
	b := types.ScoreBreakdown{
		RAMScore:  ramScore(LeadingInt(in.Memory)),
		DiskScore: diskScore(in.HDD1),
		OSScore:   osScore(in.OS),
	}
	if in.HDD1Hours > MaxDiskHours {
		b.Penalty = UsagePenalty
	}

	score := clamp(b.RAMScore+b.DiskScore+b.OSScore+b.Penalty, 0, 100)
	grade := GradeFor(score)

	return Output{
		Score:     score,
		Grade:     grade,
		Color:     ColorFor(grade),
		Breakdown: b,
	}
}

// GradeFor maps a score to its letter grade.
func GradeFor(score int) types.Grade {
	switch {
	case score >= ThresholdA:
		return types.GradeA
	case score >= ThresholdB:
		return types.GradeB
	case score >= ThresholdC:
		return types.GradeC
	default:
		return types.GradeD
	}
}

// ColorFor returns the presentation tag for g.
func ColorFor(g types.Grade) string {
	switch g {
	case types.GradeA:
		return ColorA
	case types.GradeB:
		return ColorB
	case types.GradeC:
		return ColorC
	default:
		return ColorD
	}
}

func ramScore(gb int) int {
	switch {
	case gb >= 16:
		return ramHigh
	case gb >= 8:
		return ramMid
	default:
		return ramLow
	}
}

func diskScore(hdd1 string) int {
	d := strings.ToLower(hdd1)
	switch {
	case strings.Contains(d, "nvme"), strings.Contains(d, "m.2"):
		return diskNVMe
	case strings.Contains(d, "ssd"):
		return diskSSD
	default:
		return diskOther
	}
}

func osScore(os string) int {
	o := strings.ToLower(os)
	switch {
	case strings.Contains(o, "windows 11"):
		return osWin11
	case strings.Contains(o, "windows 10"):
		return osWin10
	default:
		return 0
	}
}

// maxLeadingInt stops LeadingInt from overflowing on absurd inputs.
const maxLeadingInt = 1 << 40

// LeadingInt parses the integer prefix of s: leading whitespace and an
// optional sign are accepted, then digits up to the first non-digit.
// "16 GB" is 16, "8.5" is 8, "" and "n/a" are 0. It never fails.
func LeadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' || n > maxLeadingInt {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		return -n
	}
	return n
}

// clamp restricts v to the range [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
