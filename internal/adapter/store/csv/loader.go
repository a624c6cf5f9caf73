// Package csv provides CSV-based loading of time series manifests.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.ngs.io/changedetection-api/internal/domain"
)

// SeriesFrames is a time series with its frames in manifest order.
type SeriesFrames struct {
	Ref    domain.TimeSeriesRef
	Frames []domain.TimeFrame
}

var expectedHeaders = []string{"dataset_id", "time_series_id", "frame_id", "file_name"}

// LoadManifest reads a manifest file listing one time frame per row.
func LoadManifest(path string) ([]SeriesFrames, error) {
	//nolint:gosec // G304: Manifest path given by the operator.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return ReadManifest(file)
}

// ReadManifest parses a manifest. Frame positions follow row order within each series,
// and series are returned in order of first appearance.
func ReadManifest(r io.Reader) ([]SeriesFrames, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Validate header.
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", expectedHeaders, header)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != expectedHeaders[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expectedHeaders[i], h)
		}
	}

	series := make([]SeriesFrames, 0)
	index := make(map[domain.TimeSeriesRef]int)
	seenFrames := make(map[string]bool)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		ref := domain.TimeSeriesRef{
			DatasetID:    strings.TrimSpace(record[0]),
			TimeSeriesID: strings.TrimSpace(record[1]),
		}
		frameID := strings.TrimSpace(record[2])
		if ref.DatasetID == "" || ref.TimeSeriesID == "" || frameID == "" {
			return nil, fmt.Errorf("line %d: dataset_id, time_series_id and frame_id are required", line)
		}

		key := ref.DatasetID + "\x00" + ref.TimeSeriesID + "\x00" + frameID
		if seenFrames[key] {
			return nil, fmt.Errorf("line %d: duplicate frame %s in time series %s", line, frameID, ref.TimeSeriesID)
		}
		seenFrames[key] = true

		i, ok := index[ref]
		if !ok {
			i = len(series)
			index[ref] = i
			series = append(series, SeriesFrames{Ref: ref})
		}
		series[i].Frames = append(series[i].Frames, domain.TimeFrame{
			ID:       frameID,
			Position: len(series[i].Frames),
			FileName: strings.TrimSpace(record[3]),
		})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no time frames found in manifest")
	}

	return series, nil
}
