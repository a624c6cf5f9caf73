// Package fs provides file-system storage for time frame rasters.
package fs

import (
	"path/filepath"

	"go.ngs.io/changedetection-api/internal/domain"
)

// DefaultExtension is used when a frame has no recorded file name.
const DefaultExtension = ".tif"

// Storage lays frames out as <root>/<dataset>/<series>/<file name>.
// The root can be a local disk or a FUSE-mounted bucket.
type Storage struct {
	root string
}

// NewStorage creates a new file-system frame storage.
func NewStorage(root string) *Storage {
	return &Storage{
		root: root,
	}
}

// Root returns the storage root directory.
func (s *Storage) Root() string {
	return s.root
}

// Path returns the location of a frame raster.
func (s *Storage) Path(datasetID, timeSeriesID string, frame domain.TimeFrame) string {
	name := frame.FileName
	if name == "" {
		name = frame.ID + DefaultExtension
	}
	return filepath.Join(s.root, datasetID, timeSeriesID, filepath.Base(name))
}
