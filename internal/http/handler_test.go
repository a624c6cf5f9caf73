package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/changedetection-api/internal/domain"
	"go.ngs.io/changedetection-api/internal/usecase"
)

type stubPredictor struct {
	err  error
	refs []domain.TimeSeriesRef
	ctx  context.Context
}

func (p *stubPredictor) Predict(ctx context.Context, ref domain.TimeSeriesRef) error {
	p.ctx = ctx
	p.refs = append(p.refs, ref)
	return p.err
}

type stubCatalog struct {
	series map[string]*usecase.SeriesInfo
}

func (c *stubCatalog) ListTimeSeries(_ context.Context, datasetID string) ([]string, error) {
	ids := []string{}
	for _, s := range c.series {
		if s.DatasetID == datasetID {
			ids = append(ids, s.TimeSeriesID)
		}
	}
	return ids, nil
}

func (c *stubCatalog) Series(_ context.Context, ref domain.TimeSeriesRef) (*usecase.SeriesInfo, error) {
	s, ok := c.series[ref.DatasetID+"/"+ref.TimeSeriesID]
	if !ok {
		return nil, &domain.SeriesNotFoundError{DatasetID: ref.DatasetID, TimeSeriesID: ref.TimeSeriesID}
	}
	return s, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostPredictionStatuses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"success", nil, http.StatusNoContent, ""},
		{"not found", &domain.SeriesNotFoundError{TimeSeriesID: "ts"}, http.StatusNotFound, "not_found"},
		{"not a pair", &domain.InvalidSeriesShapeError{TimeSeriesID: "ts", Count: 3}, http.StatusBadRequest, "invalid_input"},
		{"unpack", &domain.UnpackError{Err: errors.New("corrupt")}, http.StatusInternalServerError, "internal"},
		{"upstream", errors.New("inference backend unreachable"), http.StatusBadGateway, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPredictor{err: tt.err}
			router := SetupRouter(p, &stubCatalog{}, nil, nil)

			w := serve(t, router, http.MethodPost, "/v1/datasets/ds1/timeseries/ts1/predict")

			assert.Equal(t, tt.wantCode, w.Code)
			require.Len(t, p.refs, 1)
			assert.Equal(t, domain.TimeSeriesRef{DatasetID: "ds1", TimeSeriesID: "ts1"}, p.refs[0])

			if tt.wantKind != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantKind, body["kind"])
				assert.Equal(t, tt.err.Error(), body["error"])
			}
		})
	}
}

func TestPostPredictionDetachesFromClient(t *testing.T) {
	p := &stubPredictor{}
	router := SetupRouter(p, &stubCatalog{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/v1/datasets/ds/timeseries/ts/predict", http.NoBody).WithContext(ctx)
	cancel()
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, p.ctx)
	assert.NoError(t, p.ctx.Err())
}

func TestCatalogRoutes(t *testing.T) {
	info := &usecase.SeriesInfo{
		DatasetID:    "ds",
		TimeSeriesID: "ts",
		Predictable:  true,
		Frames: []usecase.FrameInfo{
			{ID: "t0", Position: 0, Path: "/data/ds/ts/t0.tif"},
			{ID: "t1", Position: 1, Path: "/data/ds/ts/t1.tif"},
		},
	}
	router := SetupRouter(&stubPredictor{}, &stubCatalog{series: map[string]*usecase.SeriesInfo{"ds/ts": info}}, nil, nil)

	w := serve(t, router, http.MethodGet, "/v1/datasets/ds/timeseries/ts/frames")
	require.Equal(t, http.StatusOK, w.Code)
	var got usecase.SeriesInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, *info, got)

	w = serve(t, router, http.MethodGet, "/v1/datasets/ds/timeseries/nope/frames")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, router, http.MethodGet, "/v1/datasets/ds/timeseries")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dataset_id":"ds","time_series":["ts"],"count":1}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := SetupRouter(&stubPredictor{}, &stubCatalog{}, []string{"https://maps.example"}, metrics)

	w := serve(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = serve(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}
