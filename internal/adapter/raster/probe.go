// Package raster inspects time frame rasters before they are sent for inference.
package raster

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
)

// Shape describes the grid of a raster band.
type Shape struct {
	Variable string `json:"variable"`
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
}

// Probe reads grid shapes from NetCDF frames.
// Other formats are opaque and yield no shape.
type Probe struct {
	dataNames []string
}

// NewProbe creates a probe looking for the common band variable names.
func NewProbe() *Probe {
	return &Probe{
		dataNames: []string{"Band1", "band_data", "band", "data", "reflectance", "z"},
	}
}

// IsNetCDF reports whether the path has a NetCDF extension.
func IsNetCDF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".nc4", ".cdf":
		return true
	default:
		return false
	}
}

// Shape returns the grid shape of the frame at path, or nil for non-NetCDF frames.
func (p *Probe) Shape(path string) (*Shape, error) {
	if !IsNetCDF(path) {
		return nil, nil
	}

	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer nc.Close()

	for _, name := range p.dataNames {
		v, err := nc.Var(name)
		if err != nil {
			continue
		}
		return shapeOf(name, v)
	}

	return nil, fmt.Errorf("no band variable found in %s (tried %v)", filepath.Base(path), p.dataNames)
}

// shapeOf uses the two innermost dimensions as rows and columns.
func shapeOf(name string, v netcdf.Var) (*Shape, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) < 2 {
		return nil, fmt.Errorf("expected at least 2D variable %s, got %dD", name, len(dims))
	}

	rows, err := dims[len(dims)-2].Len()
	if err != nil {
		return nil, err
	}
	cols, err := dims[len(dims)-1].Len()
	if err != nil {
		return nil, err
	}

	return &Shape{
		Variable: name,
		Rows:     int(rows),
		Cols:     int(cols),
	}, nil
}
