// Package health derives the per-asset health score.
//
// score.go provides the pure Compute(Input) function that rates a machine
// 0–100 from four factors: RAM size (max 30), primary disk type (max 40),
// OS generation (max 30) and a -20 penalty once the primary disk has run
// for more than five years of continuous power-on hours.
//
// Grade thresholds: A ≥80, B ≥60, C ≥40, D below.
package health
