package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assetboard/assetboard/pkg/types"
)

func osAssets(oses ...string) []types.Asset {
	out := make([]types.Asset, 0, len(oses))
	for _, os := range oses {
		out = append(out, types.Asset{OS: os})
	}
	return out
}

func TestOSDistribution(t *testing.T) {
	got := OSDistribution(osAssets("Windows 11 Pro", "Windows 10 Pro", "Windows 10 Home", "macOS", "-", ""))
	assert.Equal(t, []Count{
		{Label: OSWindows10, Count: 2},
		{Label: OSWindows11, Count: 1},
		{Label: OSOthers, Count: 1},
	}, got)
}

func TestOSDistribution_ElevenBeatsTen(t *testing.T) {
	got := OSDistribution(osAssets("Windows 10 upgraded to 11"))
	assert.Equal(t, []Count{{Label: OSWindows11, Count: 1}}, got)
}

func TestOSDistribution_OmitsZeroBuckets(t *testing.T) {
	got := OSDistribution(osAssets("Windows 11 Pro", "Windows 11 Home"))
	assert.Equal(t, []Count{{Label: OSWindows11, Count: 2}}, got)
}

func TestOSDistribution_PlaceholdersExcluded(t *testing.T) {
	assert.Empty(t, OSDistribution(osAssets("", "-", "Unknown", "N/A")))
	assert.Empty(t, OSDistribution(nil))
}

func TestOSDistribution_TiesKeepBucketOrder(t *testing.T) {
	got := OSDistribution(osAssets("Linux", "Windows 10", "Windows 11"))
	assert.Equal(t, []Count{
		{Label: OSWindows11, Count: 1},
		{Label: OSWindows10, Count: 1},
		{Label: OSOthers, Count: 1},
	}, got)
}

func TestGradeDistribution(t *testing.T) {
	assets := []types.Asset{
		{HealthGrade: types.GradeA},
		{HealthGrade: types.GradeB},
		{HealthGrade: types.GradeB},
		{HealthGrade: types.GradeD},
	}
	assert.Equal(t, []Count{
		{Label: "A", Count: 1},
		{Label: "B", Count: 2},
		{Label: "C", Count: 0},
		{Label: "D", Count: 1},
	}, GradeDistribution(assets))
}

func TestGradeDistribution_AlwaysFourEntries(t *testing.T) {
	got := GradeDistribution(nil)
	assert.Len(t, got, 4)
	for _, c := range got {
		assert.Zero(t, c.Count)
	}
}

func TestGradeDistribution_SumsToTotal(t *testing.T) {
	assets := make([]types.Asset, 0, 40)
	for i := 0; i < 40; i++ {
		assets = append(assets, types.Asset{HealthGrade: types.Grades[i%4]})
	}
	sum := 0
	for _, c := range GradeDistribution(assets) {
		sum += c.Count
	}
	assert.Equal(t, len(assets), sum)
}

func TestDiskHistogram(t *testing.T) {
	assets := []types.Asset{
		{HDD1: "SSD 256GB", HDD2: "HDD 1TB"},
		{HDD1: "SSD 256GB", HDD2: "-"},
		{HDD1: "NVMe 512GB", HDD2: ""},
		{HDD1: "Unknown", HDD2: "HDD 1TB"},
	}
	assert.Equal(t, []Count{
		{Label: "SSD 256GB", Count: 2},
		{Label: "HDD 1TB", Count: 2},
		{Label: "NVMe 512GB", Count: 1},
	}, DiskHistogram(assets))
}

func TestDiskHistogram_SameModelInBothSlots(t *testing.T) {
	got := DiskHistogram([]types.Asset{{HDD1: "SSD 256GB", HDD2: "SSD 256GB"}})
	assert.Equal(t, []Count{{Label: "SSD 256GB", Count: 2}}, got)
}

func TestDiskHistogram_Empty(t *testing.T) {
	assert.Empty(t, DiskHistogram(nil))
}
