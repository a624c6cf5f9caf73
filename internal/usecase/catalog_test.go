package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/changedetection-api/internal/domain"
)

type memoryCatalog map[string][]domain.TimeFrame

func (m memoryCatalog) ContainsTimeSeries(_ context.Context, datasetID, timeSeriesID string) (bool, error) {
	_, ok := m[datasetID+"/"+timeSeriesID]
	return ok, nil
}

func (m memoryCatalog) TimeFrames(_ context.Context, datasetID, timeSeriesID string) ([]domain.TimeFrame, error) {
	return m[datasetID+"/"+timeSeriesID], nil
}

func (m memoryCatalog) ListTimeSeries(_ context.Context, _ string) ([]string, error) {
	return nil, errors.New("not used")
}

type joinStorage struct{}

func (joinStorage) Path(datasetID, timeSeriesID string, frame domain.TimeFrame) string {
	return "/data/" + datasetID + "/" + timeSeriesID + "/" + frame.ID + ".tif"
}

func TestCatalogSeries(t *testing.T) {
	uc := NewCatalogUseCase(memoryCatalog{
		"ds/pair":   {{ID: "t0", Position: 0}, {ID: "t1", Position: 1}},
		"ds/triple": {{ID: "t0"}, {ID: "t1"}, {ID: "t2"}},
	}, joinStorage{})

	info, err := uc.Series(context.Background(), domain.TimeSeriesRef{DatasetID: "ds", TimeSeriesID: "pair"})
	require.NoError(t, err)
	assert.True(t, info.Predictable)
	assert.Equal(t, []FrameInfo{
		{ID: "t0", Position: 0, Path: "/data/ds/pair/t0.tif"},
		{ID: "t1", Position: 1, Path: "/data/ds/pair/t1.tif"},
	}, info.Frames)

	info, err = uc.Series(context.Background(), domain.TimeSeriesRef{DatasetID: "ds", TimeSeriesID: "triple"})
	require.NoError(t, err)
	assert.False(t, info.Predictable)

	_, err = uc.Series(context.Background(), domain.TimeSeriesRef{DatasetID: "ds", TimeSeriesID: "none"})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
