package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrovision/grainloss/services/api/analytics"
	"github.com/agrovision/grainloss/services/api/models"
)

// handleV1SaveMeasurement persists one analysis result.
// POST /api/v1/measurements
func (s *Server) handleV1SaveMeasurement(c *gin.Context) {
	var rec models.MeasurementRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement payload: " + err.Error()})
		return
	}

	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UTC().UnixMilli()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	id, err := s.store.Save(ctx, rec)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
}

// handleV1ListMeasurements returns the filtered history, most recent first.
// GET /api/v1/measurements?start=...&end=...&field=...&combine_operator=...
func (s *Server) handleV1ListMeasurements(c *gin.Context) {
	filter, ok := parseFilter(c, true)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	records, err := s.store.GetFiltered(ctx, filter)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"meta": gin.H{"count": len(records)},
	})
}

// handleV1GetMeasurement returns one stored measurement.
// GET /api/v1/measurements/:id
func (s *Server) handleV1GetMeasurement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// handleV1DeleteMeasurement removes one stored measurement permanently.
// DELETE /api/v1/measurements/:id
func (s *Server) handleV1DeleteMeasurement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": id}})
}

// handleV1Summary returns the KPI rollup and loss trend for a filtered set.
// GET /api/v1/measurements/summary?start=...&end=...&field=...&combine_operator=...
func (s *Server) handleV1Summary(c *gin.Context) {
	filter, ok := parseFilter(c, true)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	records, err := s.store.GetFiltered(ctx, filter)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"summary": analytics.Summarize(records),
			"series":  analytics.Series(records),
		},
		"meta": gin.H{"count": len(records)},
	})
}

// handleV1FieldAggregates returns per-field rollups within a date range,
// worst average loss first. The field/operator filter dimensions do not
// apply here.
// GET /api/v1/measurements/fields?start=...&end=...
func (s *Server) handleV1FieldAggregates(c *gin.Context) {
	filter, ok := parseFilter(c, false)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	aggregated, err := s.store.GetAggregatedByField(ctx, filter)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": aggregated,
		"meta": gin.H{"count": len(aggregated)},
	})
}

// parseFilter reads the shared filter query parameters. Date bounds accept
// either epoch milliseconds or RFC3339. Writes the error response itself and
// reports ok=false on bad input.
func parseFilter(c *gin.Context, withMetadata bool) (models.Filter, bool) {
	var filter models.Filter

	if startStr := c.Query("start"); startStr != "" {
		millis, err := parseTimeParam(startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return filter, false
		}
		filter.StartDate = &millis
	}

	if endStr := c.Query("end"); endStr != "" {
		millis, err := parseTimeParam(endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return filter, false
		}
		filter.EndDate = &millis
	}

	if withMetadata {
		if field := c.Query("field"); field != "" {
			filter.FieldName = &field
		}
		if operator := c.Query("combine_operator"); operator != "" {
			filter.CombineOperator = &operator
		}
	}

	return filter, true
}

func parseTimeParam(raw string) (int64, error) {
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return millis, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, err
	}
	return t.UTC().UnixMilli(), nil
}
