package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/assetboard/assetboard/internal/health"
	"github.com/assetboard/assetboard/pkg/types"
)

// condition is a parsed "field op value" rule expression.
//
// Numeric fields: health_score, ram_score, disk_score, os_score,
// hdd1_hours, hdd2_hours, total_disk_hours, memory_gb. They accept
// > >= < <= == !=.
//
// Text fields: grade, dept, os, type, cpu, gpu, hdd1, hdd2. They accept
// == and != (case-insensitive) and contains. The value may contain spaces:
//
//	dept == Human Resources
type condition struct {
	field string
	op    string

	text    string
	number  float64
	numeric bool
}

var numericFields = map[string]func(types.Asset) float64{
	"health_score":     func(a types.Asset) float64 { return float64(a.HealthScore) },
	"ram_score":        func(a types.Asset) float64 { return float64(a.ScoreBreakdown.RAMScore) },
	"disk_score":       func(a types.Asset) float64 { return float64(a.ScoreBreakdown.DiskScore) },
	"os_score":         func(a types.Asset) float64 { return float64(a.ScoreBreakdown.OSScore) },
	"hdd1_hours":       func(a types.Asset) float64 { return float64(a.HDD1Hours) },
	"hdd2_hours":       func(a types.Asset) float64 { return float64(a.HDD2Hours) },
	"total_disk_hours": func(a types.Asset) float64 { return float64(a.EffectiveTotalDiskHours()) },
	"memory_gb":        func(a types.Asset) float64 { return float64(health.LeadingInt(a.Memory)) },
}

var textFields = map[string]func(types.Asset) string{
	"grade": func(a types.Asset) string { return string(a.HealthGrade) },
	"dept":  func(a types.Asset) string { return a.Dept },
	"os":    func(a types.Asset) string { return a.OS },
	"type":  func(a types.Asset) string { return a.Type },
	"cpu":   func(a types.Asset) string { return a.CPU },
	"gpu":   func(a types.Asset) string { return a.GPU },
	"hdd1":  func(a types.Asset) string { return a.HDD1 },
	"hdd2":  func(a types.Asset) string { return a.HDD2 },
}

// parseCondition parses cond or reports why it cannot be evaluated.
func parseCondition(cond string) (condition, error) {
	parts := strings.Fields(cond)
	if len(parts) < 3 {
		return condition{}, fmt.Errorf("alerts: condition %q: want \"field op value\"", cond)
	}
	c := condition{field: parts[0], op: parts[1], text: strings.Join(parts[2:], " ")}

	if _, ok := numericFields[c.field]; ok {
		switch c.op {
		case ">", ">=", "<", "<=", "==", "!=":
		default:
			return condition{}, fmt.Errorf("alerts: condition %q: operator %q not valid for %s", cond, c.op, c.field)
		}
		n, err := strconv.ParseFloat(c.text, 64)
		if err != nil {
			return condition{}, fmt.Errorf("alerts: condition %q: %s needs a number: %w", cond, c.field, err)
		}
		c.number, c.numeric = n, true
		return c, nil
	}

	if _, ok := textFields[c.field]; ok {
		switch c.op {
		case "==", "!=", "contains":
		default:
			return condition{}, fmt.Errorf("alerts: condition %q: operator %q not valid for %s", cond, c.op, c.field)
		}
		return c, nil
	}

	return condition{}, fmt.Errorf("alerts: condition %q: unknown field %q", cond, c.field)
}

// eval reports whether a satisfies c, and the observed field value.
func (c condition) eval(a types.Asset) (bool, string) {
	if c.numeric {
		v := numericFields[c.field](a)
		return compareFloat(v, c.op, c.number), strconv.FormatFloat(v, 'f', -1, 64)
	}

	v := textFields[c.field](a)
	switch c.op {
	case "==":
		return strings.EqualFold(v, c.text), v
	case "!=":
		return !strings.EqualFold(v, c.text), v
	case "contains":
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.text)), v
	default:
		return false, v
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
