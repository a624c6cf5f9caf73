// Package sqlite provides the SQLite-backed time series catalog.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"go.ngs.io/changedetection-api/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Catalog stores time series and their ordered time frames.
type Catalog struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the catalog database at path and applies pending migrations.
func Open(path string, log zerolog.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	c := &Catalog{
		db:  db,
		log: log.With().Str("component", "catalog").Logger(),
	}

	if err := c.migrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load catalog migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(c.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	// m is not closed: closing it would close the shared database handle.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read catalog schema version: %w", err)
	}
	c.log.Debug().Uint("version", version).Bool("dirty", dirty).Msg("catalog schema ready")

	return nil
}

// ContainsTimeSeries reports whether the dataset has the given time series.
func (c *Catalog) ContainsTimeSeries(ctx context.Context, datasetID, timeSeriesID string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM time_series WHERE dataset_id = ? AND time_series_id = ?`,
		datasetID, timeSeriesID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query time series %s: %w", timeSeriesID, err)
	}
	return n > 0, nil
}

// TimeFrames returns the frames of a time series ordered by position.
func (c *Catalog) TimeFrames(ctx context.Context, datasetID, timeSeriesID string) ([]domain.TimeFrame, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT frame_id, position, file_name FROM time_frames
		 WHERE dataset_id = ? AND time_series_id = ?
		 ORDER BY position, frame_id`,
		datasetID, timeSeriesID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query time frames: %w", err)
	}
	defer func() { _ = rows.Close() }()

	frames := make([]domain.TimeFrame, 0)
	for rows.Next() {
		var f domain.TimeFrame
		if err := rows.Scan(&f.ID, &f.Position, &f.FileName); err != nil {
			return nil, fmt.Errorf("failed to scan time frame: %w", err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read time frames: %w", err)
	}

	return frames, nil
}

// ListTimeSeries returns the time series identifiers of a dataset.
func (c *Catalog) ListTimeSeries(ctx context.Context, datasetID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT time_series_id FROM time_series WHERE dataset_id = ? ORDER BY time_series_id`,
		datasetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query time series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan time series: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read time series: %w", err)
	}

	return ids, nil
}

// PutTimeSeries registers a time series. Registering an existing series is a no-op.
func (c *Catalog) PutTimeSeries(ctx context.Context, ref domain.TimeSeriesRef) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO time_series (dataset_id, time_series_id) VALUES (?, ?)
		 ON CONFLICT (dataset_id, time_series_id) DO NOTHING`,
		ref.DatasetID, ref.TimeSeriesID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert time series %s: %w", ref.TimeSeriesID, err)
	}
	return nil
}

// PutTimeFrame adds or replaces a frame of an existing time series.
func (c *Catalog) PutTimeFrame(ctx context.Context, ref domain.TimeSeriesRef, frame domain.TimeFrame) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO time_frames (dataset_id, time_series_id, frame_id, position, file_name)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (dataset_id, time_series_id, frame_id)
		 DO UPDATE SET position = excluded.position, file_name = excluded.file_name`,
		ref.DatasetID, ref.TimeSeriesID, frame.ID, frame.Position, frame.FileName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert time frame %s: %w", frame.ID, err)
	}
	return nil
}
