// Package store resolves time series to the raster files of their frames.
package store

import (
	"context"
	"fmt"

	"go.ngs.io/changedetection-api/internal/domain"
)

// Catalog is the interface for looking up time series and their frames.
type Catalog interface {
	// ContainsTimeSeries reports whether the dataset has the given time series.
	ContainsTimeSeries(ctx context.Context, datasetID, timeSeriesID string) (bool, error)

	// TimeFrames returns the frames of a time series ordered by position.
	TimeFrames(ctx context.Context, datasetID, timeSeriesID string) ([]domain.TimeFrame, error)
}

// FrameStorage maps a stored frame to its location on disk.
type FrameStorage interface {
	Path(datasetID, timeSeriesID string, frame domain.TimeFrame) string
}

// FrameLocator resolves time series to frame file paths using a catalog and a frame storage.
type FrameLocator struct {
	catalog Catalog
	storage FrameStorage
}

// NewFrameLocator creates a new frame locator.
func NewFrameLocator(catalog Catalog, storage FrameStorage) *FrameLocator {
	return &FrameLocator{
		catalog: catalog,
		storage: storage,
	}
}

// Exists reports whether the time series is known to the catalog.
func (l *FrameLocator) Exists(ctx context.Context, datasetID, timeSeriesID string) (bool, error) {
	return l.catalog.ContainsTimeSeries(ctx, datasetID, timeSeriesID)
}

// FramePaths returns the file paths of the series frames in frame order.
func (l *FrameLocator) FramePaths(ctx context.Context, datasetID, timeSeriesID string) ([]string, error) {
	frames, err := l.catalog.TimeFrames(ctx, datasetID, timeSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time frames for series %s: %w", timeSeriesID, err)
	}

	paths := make([]string, len(frames))
	for i, frame := range frames {
		paths[i] = l.storage.Path(datasetID, timeSeriesID, frame)
	}

	return paths, nil
}
