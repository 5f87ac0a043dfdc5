package api

import (
	"fmt"

	"github.com/assetboard/assetboard/internal/health"
	"github.com/assetboard/assetboard/pkg/types"
)

// DiagnosticHint is one human-readable upgrade or replacement suggestion for
// an asset. The UI shows these as chips in the asset detail view.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation shown on click.
	Detail string `json:"detail"`
	// Value is an optional number the hint refers to (GB, hours).
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives hints from an asset's fields and score
// breakdown. Hints are ordered by factor: memory, disk, OS, disk wear.
func computeDiagnostics(a types.Asset) []DiagnosticHint {
	var hints []DiagnosticHint

	// Memory.
	gb := float64(health.LeadingInt(a.Memory))
	switch {
	case gb < 8:
		hints = append(hints, DiagnosticHint{
			Key:   "ram_low",
			Level: "critical",
			Title: fmt.Sprintf("%.0f GB RAM", gb),
			Detail: "This machine has less than 8 GB of memory, which is not enough for a current " +
				"browser, office suite and video calls at the same time. Upgrade to at least 16 GB " +
				"if the board allows it, otherwise plan a replacement.",
			Value: &gb,
		})
	case gb < 16:
		hints = append(hints, DiagnosticHint{
			Key:   "ram_upgrade",
			Level: "warning",
			Title: fmt.Sprintf("%.0f GB RAM", gb),
			Detail: "Memory is workable but below the 16 GB standard. A RAM upgrade is one of the " +
				"cheapest ways to raise this machine's score.",
			Value: &gb,
		})
	}

	// Primary disk type.
	if a.ScoreBreakdown.DiskScore < 30 {
		disk := a.HDD1
		if disk == "" {
			disk = "unknown disk"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "disk_hdd",
			Level: "warning",
			Title: "Replace HDD with SSD",
			Detail: fmt.Sprintf("The primary disk (%s) is not recorded as an SSD or NVMe drive. "+
				"Moving the system disk to an SSD usually gives the biggest perceived speed-up "+
				"for the money.", disk),
		})
	}

	// Operating system.
	switch a.ScoreBreakdown.OSScore {
	case 0:
		os := a.OS
		if os == "" {
			os = "not recorded"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "os_unsupported",
			Level: "critical",
			Title: "OS upgrade needed",
			Detail: fmt.Sprintf("The operating system (%s) is neither Windows 10 nor Windows 11. "+
				"Check whether it still receives security updates.", os),
		})
	case 20:
		hints = append(hints, DiagnosticHint{
			Key:   "os_win10",
			Level: "warning",
			Title: "Move to Windows 11",
			Detail: "Windows 10 has reached end of support. Check the CPU against the Windows 11 " +
				"requirements; machines that fail them are replacement candidates.",
		})
	}

	// Disk wear.
	for _, d := range []struct {
		key   string
		name  string
		hours int
	}{
		{"hdd1_hours", "Primary disk", a.HDD1Hours},
		{"hdd2_hours", "Secondary disk", a.HDD2Hours},
	} {
		if d.hours <= health.MaxDiskHours {
			continue
		}
		v := float64(d.hours)
		hints = append(hints, DiagnosticHint{
			Key:   d.key,
			Level: "critical",
			Title: fmt.Sprintf("%s worn", d.name),
			Detail: fmt.Sprintf("%s has %d power-on hours, past the %d hour (five year) mark. "+
				"Back up its data and schedule a replacement before it fails.", d.name, d.hours, health.MaxDiskHours),
			Value: &v,
		})
	}

	if len(hints) == 0 {
		score := float64(a.HealthScore)
		hints = append(hints, DiagnosticHint{
			Key:   "healthy",
			Level: "ok",
			Title: "All clear",
			Detail: fmt.Sprintf("This machine scores %d/100 (grade %s) with no upgrade "+
				"recommendations.", a.HealthScore, a.HealthGrade),
			Value: &score,
		})
	}

	return hints
}
