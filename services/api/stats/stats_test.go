package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agrovision/grainloss/services/api/models"
)

func detectionList(healthy, damaged, impurity int) []models.Detection {
	detections := make([]models.Detection, 0, healthy+damaged+impurity)
	add := func(class models.GrainClass, n int) {
		for i := 0; i < n; i++ {
			detections = append(detections, models.Detection{
				Class:      class,
				Confidence: 0.9,
				BBox:       models.BBox{X: float64(i), Y: float64(i), Width: 20, Height: 20},
			})
		}
	}
	add(models.ClassHealthy, healthy)
	add(models.ClassDamaged, damaged)
	add(models.ClassImpurity, impurity)
	return detections
}

func TestCompute_ReferenceScenario(t *testing.T) {
	// 10 healthy + 5 damaged + 2 impurity at 40 g / 0.1 m²:
	// grainCount=15 -> 0.6 g sampled -> 6 g/m² -> 60 kg/ha.
	result := Compute(detectionList(10, 5, 2), 40, 0.1)

	require.Equal(t, 10, result.HealthyCount)
	require.Equal(t, 5, result.BadCount)
	require.Equal(t, 2, result.ImpurityCount)
	require.InDelta(t, 60.00, result.TotalLossKgPerHa, 1e-9)
	require.InDelta(t, 58.8, result.HealthyPercent, 1e-9)
	require.InDelta(t, 29.4, result.BadPercent, 1e-9)
	require.InDelta(t, 11.8, result.ImpurityPercent, 1e-9)
	require.Equal(t, "F", result.QualityGrade)
}

func TestCompute_EmptyDetections(t *testing.T) {
	result := Compute(nil, 40, 0.1)

	require.Equal(t, 0, result.HealthyCount)
	require.Equal(t, 0, result.BadCount)
	require.Equal(t, 0, result.ImpurityCount)
	require.Zero(t, result.TotalLossKgPerHa)
	require.Zero(t, result.HealthyPercent)
	require.Zero(t, result.BadPercent)
	require.Zero(t, result.ImpurityPercent)
}

func TestCompute_CountsPartitionDetections(t *testing.T) {
	cases := []struct{ healthy, damaged, impurity int }{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{7, 3, 9},
		{100, 0, 42},
	}
	for _, tc := range cases {
		detections := detectionList(tc.healthy, tc.damaged, tc.impurity)
		result := Compute(detections, 40, 0.1)
		require.Equal(t, len(detections), result.HealthyCount+result.BadCount+result.ImpurityCount)
	}
}

func TestCompute_PercentBounds(t *testing.T) {
	cases := []struct{ healthy, damaged, impurity int }{
		{1, 0, 0},
		{0, 0, 1},
		{3, 3, 3},
		{1, 2, 300},
	}
	for _, tc := range cases {
		result := Compute(detectionList(tc.healthy, tc.damaged, tc.impurity), 40, 0.1)
		for _, pct := range []float64{result.HealthyPercent, result.BadPercent, result.ImpurityPercent} {
			require.GreaterOrEqual(t, pct, 0.0)
			require.LessOrEqual(t, pct, 100.0)
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	detections := detectionList(12, 4, 6)
	first := Compute(detections, 37.5, 0.25)
	second := Compute(detections, 37.5, 0.25)
	require.Equal(t, first, second)
}

func TestCompute_CoercesUnusableParameters(t *testing.T) {
	detections := detectionList(10, 5, 2)
	expected := Compute(detections, 40, 0.1)

	for _, w := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		require.Equal(t, expected, Compute(detections, w, 0.1), "weight %v should coerce to default", w)
	}
	for _, a := range []float64{0, -0.1, math.NaN(), math.Inf(-1)} {
		require.Equal(t, expected, Compute(detections, 40, a), "area %v should coerce to default", a)
	}
}

func TestCompute_ImpuritiesExcludedFromLoss(t *testing.T) {
	withImpurity := Compute(detectionList(10, 5, 50), 40, 0.1)
	withoutImpurity := Compute(detectionList(10, 5, 0), 40, 0.1)
	require.Equal(t, withoutImpurity.TotalLossKgPerHa, withImpurity.TotalLossKgPerHa)
}

func TestGrade_Boundaries(t *testing.T) {
	cases := []struct {
		percent float64
		grade   string
	}{
		{100, "A"},
		{95, "A"},
		{94.9, "B"},
		{85, "B"},
		{84.9, "C"},
		{75, "C"},
		{74.9, "D"},
		{60, "D"},
		{59.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.grade, Grade(tc.percent), "percent %v", tc.percent)
	}
}
