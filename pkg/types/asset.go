package types

// Grade is the letter tier derived from a health score.
type Grade string

// The four health grades, best first.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Grades lists every grade in ascending letter order.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD}

// ScoreBreakdown holds the individual contributions that were summed into
// HealthScore. Penalty is 0 or negative.
type ScoreBreakdown struct {
	RAMScore  int `json:"ram_score"`
	DiskScore int `json:"disk_score"`
	OSScore   int `json:"os_score"`
	Penalty   int `json:"penalty"`
}

// Asset is one physical machine from the inventory export.
//
// Assets are built once per parse and never mutated afterwards; a refresh
// replaces the whole set.
type Asset struct {
	// Identity. All free text, any may be empty (but not both ID and
	// ComputerName).
	ID           string `json:"id"`
	ComputerName string `json:"computer_name"`
	User         string `json:"user"`
	Dept         string `json:"dept"`

	// Hardware.
	Type   string `json:"type"`
	OS     string `json:"os"`
	CPU    string `json:"cpu"`
	Memory string `json:"memory"` // GB, as written in the export
	GPU    string `json:"gpu"`

	// Storage. Hours are power-on hours.
	HDD1           string `json:"hdd1"`
	HDD2           string `json:"hdd2"`
	HDD1Hours      int    `json:"hdd1_hours"`
	HDD2Hours      int    `json:"hdd2_hours"`
	TotalDiskHours int    `json:"total_disk_hours"`

	// Derived at parse time.
	HealthScore    int            `json:"health_score"`
	HealthGrade    Grade          `json:"health_grade"`
	HealthColor    string         `json:"health_color"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
}

// Key returns the identifier used to address the asset: its asset tag, or
// the computer name when the tag is empty.
func (a Asset) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return a.ComputerName
}

// EffectiveTotalDiskHours returns TotalDiskHours when the export supplied
// one, otherwise the sum of both disks.
func (a Asset) EffectiveTotalDiskHours() int {
	if a.TotalDiskHours != 0 {
		return a.TotalDiskHours
	}
	return a.HDD1Hours + a.HDD2Hours
}
