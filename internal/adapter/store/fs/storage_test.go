package fs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.ngs.io/changedetection-api/internal/domain"
)

func TestStoragePath(t *testing.T) {
	s := NewStorage("/data")

	tests := []struct {
		name  string
		frame domain.TimeFrame
		want  string
	}{
		{"recorded file name", domain.TimeFrame{ID: "f1", FileName: "2020-06.nc"}, "/data/ds/ts/2020-06.nc"},
		{"default extension", domain.TimeFrame{ID: "f2"}, "/data/ds/ts/f2.tif"},
		{"no traversal", domain.TimeFrame{ID: "f3", FileName: "../../etc/passwd"}, "/data/ds/ts/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), s.Path("ds", "ts", tt.frame))
		})
	}
}
