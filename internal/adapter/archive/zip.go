// Package archive packs time frames for the inference backend and unpacks its predictions.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go.ngs.io/changedetection-api/internal/adapter/raster"
	"go.ngs.io/changedetection-api/internal/domain"
)

// ManifestName is the archive entry describing the packed frames.
const ManifestName = "manifest.json"

// ErrEmptyArchive is returned when a response archive holds no files.
var ErrEmptyArchive = errors.New("archive contains no files")

// ShapeProber reads the grid shape of a frame raster.
type ShapeProber interface {
	Shape(path string) (*raster.Shape, error)
}

// Manifest lists the frames of a packed archive in series order.
type Manifest struct {
	Frames []ManifestFrame `json:"frames"`
}

// ManifestFrame describes one packed frame.
type ManifestFrame struct {
	Index int           `json:"index"`
	Role  string        `json:"role"`
	Entry string        `json:"entry"`
	Shape *raster.Shape `json:"shape,omitempty"`
}

// ZipCodec packs frames into zip archives and unpacks prediction archives.
type ZipCodec struct {
	unpackDir string
	probe     ShapeProber
	log       zerolog.Logger
}

// NewZipCodec creates a codec extracting predictions below unpackDir.
// probe may be nil, in which case no shapes are recorded.
func NewZipCodec(unpackDir string, probe ShapeProber, log zerolog.Logger) *ZipCodec {
	return &ZipCodec{
		unpackDir: unpackDir,
		probe:     probe,
		log:       log.With().Str("component", "archive").Logger(),
	}
}

// Pack writes the frames at paths into a new zip archive in scratchDir and returns its path.
// The archive is left in place; cleaning scratchDir is up to the operator.
func (c *ZipCodec) Pack(paths []string, scratchDir string) (string, error) {
	//nolint:gosec // G301: Scratch directory shared with the inference tooling.
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	archivePath := filepath.Join(scratchDir, fmt.Sprintf("timeframes-%s.zip", uuid.NewString()))
	//nolint:gosec // G304: Path built from configured scratch directory.
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	if err := c.writeFrames(out, paths); err != nil {
		_ = out.Close()
		_ = os.Remove(archivePath)
		return "", err
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	return archivePath, nil
}

func (c *ZipCodec) writeFrames(w io.Writer, paths []string) error {
	zw := zip.NewWriter(w)
	entries := entryNames(paths)
	manifest := Manifest{Frames: make([]ManifestFrame, len(paths))}

	for i, path := range paths {
		if err := addFile(zw, path, entries[i]); err != nil {
			return err
		}
		manifest.Frames[i] = ManifestFrame{
			Index: i,
			Role:  frameRole(i, len(paths)),
			Entry: entries[i],
			Shape: c.shape(path),
		}
	}

	mw, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// shape is informational; probe failures are logged and the frame is packed as is.
func (c *ZipCodec) shape(path string) *raster.Shape {
	if c.probe == nil {
		return nil
	}
	s, err := c.probe.Shape(path)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("failed to probe frame shape")
		return nil
	}
	return s
}

func addFile(zw *zip.Writer, path, entry string) error {
	//nolint:gosec // G304: Frame paths come from the catalog storage.
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open time frame %s: %w", path, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat time frame %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build zip header for %s: %w", path, err)
	}
	header.Name = entry
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", entry, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", entry, err)
	}
	return nil
}

// entryNames uses base names, prefixing the frame index when two frames share one.
func entryNames(paths []string) []string {
	counts := make(map[string]int, len(paths))
	for _, p := range paths {
		counts[filepath.Base(p)]++
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		if counts[base] > 1 || base == ManifestName {
			base = fmt.Sprintf("%d_%s", i, base)
		}
		names[i] = base
	}
	return names
}

func frameRole(i, n int) string {
	if n != domain.PairSize {
		return "frame"
	}
	if i == 0 {
		return "before"
	}
	return "after"
}

// Unpack extracts the archive into a fresh directory and returns its files in archive order.
func (c *ZipCodec) Unpack(blob []byte) ([]domain.RasterFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	//nolint:gosec // G301: Scratch directory shared with the publisher.
	if err := os.MkdirAll(c.unpackDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create unpack directory: %w", err)
	}
	dest, err := os.MkdirTemp(c.unpackDir, "predictions-")
	if err != nil {
		return nil, fmt.Errorf("failed to create unpack directory: %w", err)
	}

	files := make([]domain.RasterFile, 0, len(zr.File))
	for _, f := range zr.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return nil, err
		}

		if f.FileInfo().IsDir() {
			//nolint:gosec // G301: Extracted tree mirrors the archive.
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", f.Name, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return nil, err
		}
		files = append(files, domain.RasterFile{Path: target})
	}

	if len(files) == 0 {
		return nil, ErrEmptyArchive
	}

	return files, nil
}

// safeJoin rejects entries that would land outside dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal archive entry %q", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	//nolint:gosec // G301: Extracted tree mirrors the archive.
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	//nolint:gosec // G304: Target checked by safeJoin.
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	//nolint:gosec // G110: Archive comes from the trusted inference backend.
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}
