// Package geoserver publishes predicted rasters through the GeoServer REST API.
package geoserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"go.ngs.io/changedetection-api/internal/domain"
)

// PublishError reports rasters that could not be uploaded.
type PublishError struct {
	Failed []string // Names of the rasters that failed.
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %d raster(s): %v", len(e.Failed), e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Config holds the GeoServer connection settings.
type Config struct {
	URL       string // Base URL, e.g. http://geoserver:8080/geoserver.
	Workspace string
	User      string
	Password  string
}

// Publisher uploads GeoTIFF predictions as coverage stores.
type Publisher struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewPublisher creates a new GeoServer publisher.
func NewPublisher(cfg Config, httpClient *http.Client, log zerolog.Logger) *Publisher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	return &Publisher{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log.With().Str("component", "geoserver").Str("workspace", cfg.Workspace).Logger(),
	}
}

// Publish uploads every raster, one coverage store per file.
// All files are attempted; failures are reported together.
func (p *Publisher) Publish(ctx context.Context, files []domain.RasterFile) error {
	if len(files) == 0 {
		p.log.Warn().Msg("no rasters to publish")
		return nil
	}

	var result *multierror.Error
	var failed []string
	for _, f := range files {
		if err := p.upload(ctx, f); err != nil {
			result = multierror.Append(result, err)
			failed = append(failed, f.Name())
			continue
		}
		p.log.Info().Str("store", StoreName(f)).Msg("raster published")
	}

	if err := result.ErrorOrNil(); err != nil {
		return &PublishError{Failed: failed, Err: err}
	}
	return nil
}

// StoreName is the coverage store name for a raster: its base name without extension.
func StoreName(f domain.RasterFile) string {
	return strings.TrimSuffix(f.Name(), "."+f.Extension())
}

func (p *Publisher) upload(ctx context.Context, f domain.RasterFile) error {
	//nolint:gosec // G304: Path from the unpacked prediction archive.
	in, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name(), err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Name(), err)
	}

	store := StoreName(f)
	endpoint := fmt.Sprintf("%s/rest/workspaces/%s/coveragestores/%s/file.geotiff?%s",
		p.cfg.URL,
		url.PathEscape(p.cfg.Workspace),
		url.PathEscape(store),
		url.Values{"configure": {"first"}, "coverageName": {store}}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, in)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", f.Name(), err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "image/tiff")
	req.SetBasicAuth(p.cfg.User, p.cfg.Password)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", f.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload of %s returned HTTP %d: %s", f.Name(), resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
