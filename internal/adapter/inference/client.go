// Package inference talks to the remote change-detection model.
package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TransportError reports a failed call to the inference backend.
type TransportError struct {
	URL        string
	StatusCode int // Zero when no response was received.
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference backend %s returned HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference backend %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client sends packed time frames to the inference backend.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client for the backend at baseURL.
// A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/predict",
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "inference").Logger(),
	}
}

// Predict uploads the archive at archivePath and returns the response archive.
func (c *Client) Predict(ctx context.Context, archivePath string) ([]byte, error) {
	body, contentType, err := multipartArchive(archivePath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, c.transportError(0, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/zip")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, c.transportError(resp.StatusCode, errors.New(msg))
	}
	if err != nil {
		return nil, c.transportError(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	if len(data) == 0 {
		return nil, c.transportError(resp.StatusCode, errors.New("empty response"))
	}

	c.log.Debug().
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("inference response received")

	return data, nil
}

func (c *Client) transportError(status int, err error) *TransportError {
	return &TransportError{URL: c.endpoint, StatusCode: status, Err: err}
}

// multipartArchive wraps the archive as the "file" form field.
func multipartArchive(archivePath string) (io.Reader, string, error) {
	//nolint:gosec // G304: Archive path produced by the codec.
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(archivePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read archive: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}
