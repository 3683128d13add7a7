package stats

import (
	"math"

	"github.com/agrovision/grainloss/services/api/models"
)

// Defaults applied when the caller supplies an unusable physical parameter.
const (
	DefaultGrainWeightGrams = 40.0 // reference weight of 1000 grains
	DefaultPhotoAreaM2      = 0.1  // 31.6 x 31.6 cm sampling frame
)

// Compute derives the loss/health statistics for one detection list.
//
// grainWeightGrams is the agronomic thousand-grain weight: the loss chain is
//
//	grainCount * w / 1000   -> sampled grain mass (g)
//	/ photoAreaM2           -> loss density (g/m²)
//	* 10000 / 1000          -> loss (kg/ha)
//
// Impurities are excluded from grainCount since they are not seed material.
// Rounding happens once at the end (loss to 2 decimals, percents to 1), never
// on intermediate values, so results stay comparable across implementations.
func Compute(detections []models.Detection, grainWeightGrams, photoAreaM2 float64) models.Statistics {
	if grainWeightGrams <= 0 || math.IsNaN(grainWeightGrams) || math.IsInf(grainWeightGrams, 0) {
		grainWeightGrams = DefaultGrainWeightGrams
	}
	if photoAreaM2 <= 0 || math.IsNaN(photoAreaM2) || math.IsInf(photoAreaM2, 0) {
		photoAreaM2 = DefaultPhotoAreaM2
	}

	var healthy, bad, impurity int
	for _, d := range detections {
		switch d.Class {
		case models.ClassHealthy:
			healthy++
		case models.ClassDamaged:
			bad++
		default:
			impurity++
		}
	}

	grainCount := healthy + bad
	totalGrainWeightGrams := float64(grainCount) * grainWeightGrams / 1000
	lossPerM2Grams := totalGrainWeightGrams / photoAreaM2
	totalLossKgPerHa := lossPerM2Grams * 10000 / 1000

	total := healthy + bad + impurity
	var healthyPct, badPct, impurityPct float64
	if total > 0 {
		healthyPct = float64(healthy) / float64(total) * 100
		badPct = float64(bad) / float64(total) * 100
		impurityPct = float64(impurity) / float64(total) * 100
	}

	healthyPct = round1(healthyPct)

	return models.Statistics{
		HealthyCount:     healthy,
		BadCount:         bad,
		ImpurityCount:    impurity,
		TotalLossKgPerHa: round2(totalLossKgPerHa),
		HealthyPercent:   healthyPct,
		BadPercent:       round1(badPct),
		ImpurityPercent:  round1(impurityPct),
		QualityGrade:     Grade(healthyPct),
	}
}

// Grade maps the healthy percentage to the GOST-style quality grade the
// inference server reports.
func Grade(healthyPercent float64) string {
	switch {
	case healthyPercent >= 95:
		return "A"
	case healthyPercent >= 85:
		return "B"
	case healthyPercent >= 75:
		return "C"
	case healthyPercent >= 60:
		return "D"
	default:
		return "F"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
