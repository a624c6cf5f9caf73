package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRasterFileExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/out/change.tif", "tif"},
		{"/tmp/out/change.TIF", "TIF"},
		{"/tmp/out/change.tif.aux.xml", "xml"},
		{"/tmp/out.d/change", ""},
		{"change.", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RasterFile{Path: tt.path}.Extension(), tt.path)
	}
}

func TestFilterGeoTIFFs(t *testing.T) {
	files := []RasterFile{
		{Path: "a.tif"},
		{Path: "b.png"},
		{Path: "c.tif"},
		{Path: "d.TIF"},
		{Path: "e.tiff"},
		{Path: "tif"},
	}

	assert.Equal(t, []RasterFile{{Path: "a.tif"}, {Path: "c.tif"}}, FilterGeoTIFFs(files))
	assert.Empty(t, FilterGeoTIFFs(nil))
}
