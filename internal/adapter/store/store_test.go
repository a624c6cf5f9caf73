package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/changedetection-api/internal/domain"
)

type fakeCatalog struct {
	series map[string][]domain.TimeFrame
	err    error
}

func (c *fakeCatalog) ContainsTimeSeries(_ context.Context, datasetID, timeSeriesID string) (bool, error) {
	_, ok := c.series[datasetID+"/"+timeSeriesID]
	return ok, nil
}

func (c *fakeCatalog) TimeFrames(_ context.Context, datasetID, timeSeriesID string) ([]domain.TimeFrame, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.series[datasetID+"/"+timeSeriesID], nil
}

type prefixStorage string

func (s prefixStorage) Path(datasetID, timeSeriesID string, frame domain.TimeFrame) string {
	return string(s) + "/" + datasetID + "/" + timeSeriesID + "/" + frame.ID
}

func TestFrameLocator(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{series: map[string][]domain.TimeFrame{
		"ds/ts": {{ID: "t0"}, {ID: "t1"}},
	}}
	l := NewFrameLocator(catalog, prefixStorage("/root"))

	ok, err := l.Exists(ctx, "ds", "ts")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Exists(ctx, "ds", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	paths, err := l.FramePaths(ctx, "ds", "ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"/root/ds/ts/t0", "/root/ds/ts/t1"}, paths)
}

func TestFrameLocatorCatalogError(t *testing.T) {
	boom := errors.New("boom")
	l := NewFrameLocator(&fakeCatalog{err: boom}, prefixStorage("/root"))

	_, err := l.FramePaths(context.Background(), "ds", "ts")
	assert.ErrorIs(t, err, boom)
}
