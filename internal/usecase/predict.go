package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/changedetection-api/internal/domain"
)

// Locator resolves time series to frame file paths.
type Locator interface {
	Exists(ctx context.Context, datasetID, timeSeriesID string) (bool, error)
	FramePaths(ctx context.Context, datasetID, timeSeriesID string) ([]string, error)
}

// ArchiveCodec packs frames for the inference backend and unpacks its response.
type ArchiveCodec interface {
	Pack(paths []string, scratchDir string) (string, error)
	Unpack(blob []byte) ([]domain.RasterFile, error)
}

// InferenceClient sends a packed archive to the inference backend.
type InferenceClient interface {
	Predict(ctx context.Context, archivePath string) ([]byte, error)
}

// Publisher uploads predicted rasters to the map server.
type Publisher interface {
	Publish(ctx context.Context, files []domain.RasterFile) error
}

// Metrics records pipeline measurements.
type Metrics interface {
	RunFinished(outcome string)
	SectionDuration(d time.Duration)
	GateWait(d time.Duration)
	RastersPublished(n int)
}

// PredictionUseCase orchestrates change-detection predictions for pairs of time frames.
type PredictionUseCase struct {
	locator    Locator
	codec      ArchiveCodec
	inference  InferenceClient
	publisher  Publisher
	metrics    Metrics
	scratchDir string
	gate       *singleFlight
	log        zerolog.Logger
}

// NewPredictionUseCase creates a new prediction use case.
// Packed archives are written to scratchDir.
func NewPredictionUseCase(
	locator Locator,
	codec ArchiveCodec,
	inference InferenceClient,
	publisher Publisher,
	metrics Metrics,
	scratchDir string,
	log zerolog.Logger,
) *PredictionUseCase {
	return &PredictionUseCase{
		locator:    locator,
		codec:      codec,
		inference:  inference,
		publisher:  publisher,
		metrics:    metrics,
		scratchDir: scratchDir,
		gate:       predictionGate,
		log:        log.With().Str("component", "prediction").Logger(),
	}
}

// Predict runs the inference backend on the two frames of a time series and
// publishes the predicted GeoTIFFs.
//
// Failures are reported as *domain.SeriesNotFoundError, *domain.InvalidSeriesShapeError
// or *domain.UnpackError; errors from the inference client and the publisher are
// returned unchanged. Use domain.KindOf to classify them.
func (uc *PredictionUseCase) Predict(ctx context.Context, ref domain.TimeSeriesRef) (err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = domain.KindOf(err).String()
		}
		uc.metrics.RunFinished(outcome)
	}()

	log := uc.log.With().
		Str("dataset_id", ref.DatasetID).
		Str("time_series_id", ref.TimeSeriesID).
		Logger()

	exists, err := uc.locator.Exists(ctx, ref.DatasetID, ref.TimeSeriesID)
	if err != nil {
		return fmt.Errorf("failed to look up time series %s: %w", ref.TimeSeriesID, err)
	}
	if !exists {
		log.Error().Msg("can't find time series")
		return &domain.SeriesNotFoundError{DatasetID: ref.DatasetID, TimeSeriesID: ref.TimeSeriesID}
	}

	paths, err := uc.locator.FramePaths(ctx, ref.DatasetID, ref.TimeSeriesID)
	if err != nil {
		return fmt.Errorf("failed to resolve time frames of %s: %w", ref.TimeSeriesID, err)
	}

	// Only before/after pairs can be predicted.
	if len(paths) != domain.PairSize {
		log.Error().Int("frames", len(paths)).Msg("time series is not a pair")
		return &domain.InvalidSeriesShapeError{TimeSeriesID: ref.TimeSeriesID, Count: len(paths)}
	}

	waitStart := time.Now()
	return uc.gate.Do(ctx, func() error {
		uc.metrics.GateWait(time.Since(waitStart))

		start := time.Now()
		defer func() { uc.metrics.SectionDuration(time.Since(start)) }()

		return uc.predictPair(ctx, log, paths)
	})
}

// predictPair must only run while holding the gate.
func (uc *PredictionUseCase) predictPair(ctx context.Context, log zerolog.Logger, paths []string) error {
	archivePath, err := uc.codec.Pack(paths, uc.scratchDir)
	if err != nil {
		return fmt.Errorf("failed to archive time frames: %w", err)
	}
	log.Info().Str("archive", archivePath).Msg("time frames archived")

	blob, err := uc.inference.Predict(ctx, archivePath)
	if err != nil {
		return err
	}
	log.Info().Int("bytes", len(blob)).Msg("prediction received")

	files, err := uc.codec.Unpack(blob)
	if err != nil {
		log.Error().Err(err).Msg("failed to unpack predictions")
		return &domain.UnpackError{Err: err}
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	log.Info().Strs("files", names).Msg("predictions unpacked")

	tifs := domain.FilterGeoTIFFs(files)
	if err := uc.publisher.Publish(ctx, tifs); err != nil {
		return err
	}
	uc.metrics.RastersPublished(len(tifs))
	log.Info().Int("rasters", len(tifs)).Msg("predictions published")

	return nil
}
