package http

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrovision/grainloss/services/api/stats"
)

// handleV1Analyze runs the detection-to-metric pipeline for one image.
// POST /api/v1/analyze  (multipart: file, grain_weight_grams?, photo_area_m2?)
//
// The result is not persisted; saving is an explicit follow-up call to
// POST /api/v1/measurements.
func (s *Server) handleV1Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}

	// Malformed numeric inputs are coerced to the documented defaults by the
	// statistics engine, never rejected.
	grainWeight := parseFloatField(c, "grain_weight_grams")
	photoArea := parseFloatField(c, "photo_area_m2")

	width, height := imageBounds(imageBytes)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.DetectTimeout+5*time.Second)
	defer cancel()

	detections := s.adapter.Detect(ctx, imageBytes, width, height)
	statistics := stats.Compute(detections, grainWeight, photoArea)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"detections": detections,
			"statistics": statistics,
		},
		"meta": gin.H{
			"detection_mode": s.adapter.Mode(),
			"count":          len(detections),
		},
	})
}

func parseFloatField(c *gin.Context, name string) float64 {
	raw := c.PostForm(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// imageBounds reads just the image header to size the synthetic bounding
// boxes on the fallback path. Undecodable input keeps the generator defaults.
func imageBounds(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
