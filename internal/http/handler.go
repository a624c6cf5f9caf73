package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/changedetection-api/internal/domain"
	"go.ngs.io/changedetection-api/internal/usecase"
)

// Predictor runs change-detection predictions.
type Predictor interface {
	Predict(ctx context.Context, ref domain.TimeSeriesRef) error
}

// CatalogReader answers catalog queries.
type CatalogReader interface {
	ListTimeSeries(ctx context.Context, datasetID string) ([]string, error)
	Series(ctx context.Context, ref domain.TimeSeriesRef) (*usecase.SeriesInfo, error)
}

// Handler handles HTTP requests for change-detection predictions.
type Handler struct {
	predictor Predictor
	catalog   CatalogReader
}

// NewHandler creates a new HTTP handler.
func NewHandler(predictor Predictor, catalog CatalogReader) *Handler {
	return &Handler{
		predictor: predictor,
		catalog:   catalog,
	}
}

func seriesRef(c *gin.Context) domain.TimeSeriesRef {
	return domain.TimeSeriesRef{
		DatasetID:    c.Param("datasetId"),
		TimeSeriesID: c.Param("timeSeriesId"),
	}
}

// StatusFor maps an error to the HTTP status reported to clients.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindInternal:
		return http.StatusInternalServerError
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	})
}

// PostPrediction handles POST /v1/datasets/:datasetId/timeseries/:timeSeriesId/predict.
func (h *Handler) PostPrediction(c *gin.Context) {
	// The run keeps going if the client disconnects: the exclusive section is not abandoned halfway.
	ctx := context.WithoutCancel(c.Request.Context())

	if err := h.predictor.Predict(ctx, seriesRef(c)); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListTimeSeries handles GET /v1/datasets/:datasetId/timeseries.
func (h *Handler) ListTimeSeries(c *gin.Context) {
	datasetID := c.Param("datasetId")

	ids, err := h.catalog.ListTimeSeries(c.Request.Context(), datasetID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dataset_id":  datasetID,
		"time_series": ids,
		"count":       len(ids),
	})
}

// GetFrames handles GET /v1/datasets/:datasetId/timeseries/:timeSeriesId/frames.
func (h *Handler) GetFrames(c *gin.Context) {
	info, err := h.catalog.Series(c.Request.Context(), seriesRef(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
