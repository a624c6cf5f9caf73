package usecase

import (
	"context"
	"fmt"

	"go.ngs.io/changedetection-api/internal/domain"
)

// SeriesCatalog lists the catalog content.
type SeriesCatalog interface {
	ContainsTimeSeries(ctx context.Context, datasetID, timeSeriesID string) (bool, error)
	TimeFrames(ctx context.Context, datasetID, timeSeriesID string) ([]domain.TimeFrame, error)
	ListTimeSeries(ctx context.Context, datasetID string) ([]string, error)
}

// FrameStorage maps a stored frame to its location on disk.
type FrameStorage interface {
	Path(datasetID, timeSeriesID string, frame domain.TimeFrame) string
}

// FrameInfo describes a time frame in API responses.
type FrameInfo struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Path     string `json:"path"`
}

// SeriesInfo describes a time series in API responses.
type SeriesInfo struct {
	DatasetID    string      `json:"dataset_id"`
	TimeSeriesID string      `json:"time_series_id"`
	Predictable  bool        `json:"predictable"`
	Frames       []FrameInfo `json:"frames"`
}

// CatalogUseCase answers read-only catalog queries.
type CatalogUseCase struct {
	catalog SeriesCatalog
	storage FrameStorage
}

// NewCatalogUseCase creates a new catalog use case.
func NewCatalogUseCase(catalog SeriesCatalog, storage FrameStorage) *CatalogUseCase {
	return &CatalogUseCase{
		catalog: catalog,
		storage: storage,
	}
}

// ListTimeSeries returns the time series identifiers of a dataset.
func (uc *CatalogUseCase) ListTimeSeries(ctx context.Context, datasetID string) ([]string, error) {
	return uc.catalog.ListTimeSeries(ctx, datasetID)
}

// Series returns a time series and its frames.
func (uc *CatalogUseCase) Series(ctx context.Context, ref domain.TimeSeriesRef) (*SeriesInfo, error) {
	exists, err := uc.catalog.ContainsTimeSeries(ctx, ref.DatasetID, ref.TimeSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up time series %s: %w", ref.TimeSeriesID, err)
	}
	if !exists {
		return nil, &domain.SeriesNotFoundError{DatasetID: ref.DatasetID, TimeSeriesID: ref.TimeSeriesID}
	}

	frames, err := uc.catalog.TimeFrames(ctx, ref.DatasetID, ref.TimeSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time frames of %s: %w", ref.TimeSeriesID, err)
	}

	info := &SeriesInfo{
		DatasetID:    ref.DatasetID,
		TimeSeriesID: ref.TimeSeriesID,
		Predictable:  len(frames) == domain.PairSize,
		Frames:       make([]FrameInfo, len(frames)),
	}
	for i, f := range frames {
		info.Frames[i] = FrameInfo{
			ID:       f.ID,
			Position: f.Position,
			Path:     uc.storage.Path(ref.DatasetID, ref.TimeSeriesID, f),
		}
	}

	return info, nil
}
