// Package analytics builds derived views over a filtered measurement set:
// the KPI summary and the loss time series. Both are projections recomputed
// on every query, never cached.
package analytics

import (
	"sort"
	"time"

	"github.com/agrovision/grainloss/services/api/models"
)

// Summarize computes the KPI rollup. Means are simple arithmetic means over
// the set, not weighted by detection count; an empty set yields zeros.
func Summarize(records []models.MeasurementRecord) models.Summary {
	summary := models.Summary{Count: len(records)}
	if len(records) == 0 {
		return summary
	}

	var lossSum, badPctSum float64
	for _, rec := range records {
		lossSum += rec.Statistics.TotalLossKgPerHa
		badPctSum += rec.Statistics.BadPercent
		summary.TotalHealthy += rec.Statistics.HealthyCount
		summary.TotalBad += rec.Statistics.BadCount
	}
	summary.AverageLoss = lossSum / float64(len(records))
	summary.AverageBadPercent = badPctSum / float64(len(records))
	return summary
}

// Series projects the set onto a trend line: ascending by timestamp, one
// point per measurement with its loss value and display date.
func Series(records []models.MeasurementRecord) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, models.SeriesPoint{
			Timestamp: rec.Timestamp,
			Loss:      rec.Statistics.TotalLossKgPerHa,
			Date:      formatDate(rec.Timestamp),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	return points
}

func formatDate(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("02.01.2006")
}
