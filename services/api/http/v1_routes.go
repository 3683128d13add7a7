package http

import "github.com/gin-gonic/gin"

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/analyze, /api/v1/measurements
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	// Analysis endpoint - detection + local statistics, nothing persisted
	v1.POST("/analyze", s.handleV1Analyze)

	// Measurement endpoints - saved analyses and derived views
	measurements := v1.Group("/measurements")
	{
		measurements.POST("", s.handleV1SaveMeasurement)
		measurements.GET("", s.handleV1ListMeasurements)
		measurements.GET("/summary", s.handleV1Summary)
		measurements.GET("/fields", s.handleV1FieldAggregates)
		measurements.GET("/:id", s.handleV1GetMeasurement)
		measurements.DELETE("/:id", s.handleV1DeleteMeasurement)
	}
}

// apiVersionMiddleware tags every v1 response.
func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
