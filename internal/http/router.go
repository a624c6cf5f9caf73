package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router.
// An empty allowedOrigins list allows all origins. metrics may be nil.
func SetupRouter(predictor Predictor, catalog CatalogReader, allowedOrigins []string, metrics http.Handler) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(predictor, catalog)

	// API v1 routes.
	v1 := router.Group("/v1")
	datasets := v1.Group("/datasets/:datasetId")
	datasets.GET("/timeseries", handler.ListTimeSeries)

	series := datasets.Group("/timeseries/:timeSeriesId")
	series.GET("/frames", handler.GetFrames)
	series.POST("/predict", handler.PostPrediction)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	return router
}
