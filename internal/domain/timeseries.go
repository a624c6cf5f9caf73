package domain

import (
	"path/filepath"
	"strings"
)

// TimeSeriesRef identifies a logical series of raster time frames within a dataset.
type TimeSeriesRef struct {
	DatasetID    string
	TimeSeriesID string
}

// TimeFrame is one raster snapshot belonging to a time series.
type TimeFrame struct {
	ID       string
	Position int    // Order within the series (0 = earliest).
	FileName string // File name inside the series storage directory.
}

// RasterFile is a file produced by the inference backend.
type RasterFile struct {
	Path string
}

// Name returns the base name of the file.
func (f RasterFile) Name() string {
	return filepath.Base(f.Path)
}

// Extension returns the file extension without the leading dot.
// A file without an extension yields an empty string.
func (f RasterFile) Extension() string {
	return strings.TrimPrefix(filepath.Ext(f.Path), ".")
}

// GeoTIFFExtension is the only extension forwarded to the publisher.
const GeoTIFFExtension = "tif"

// PairSize is the number of frames required for pairwise change detection.
const PairSize = 2

// FilterGeoTIFFs keeps files whose extension is exactly "tif", preserving order.
func FilterGeoTIFFs(files []RasterFile) []RasterFile {
	tifs := make([]RasterFile, 0, len(files))
	for _, f := range files {
		if f.Extension() == GeoTIFFExtension {
			tifs = append(tifs, f)
		}
	}
	return tifs
}
