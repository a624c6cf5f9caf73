// Command catalog-import registers time series and their frames from a CSV manifest.
//
// The manifest header is dataset_id,time_series_id,frame_id,file_name; frames are
// ordered by row within each series.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.ngs.io/changedetection-api/internal/adapter/store/csv"
	"go.ngs.io/changedetection-api/internal/adapter/store/sqlite"
	"go.ngs.io/changedetection-api/internal/domain"
	"go.ngs.io/changedetection-api/internal/logging"
)

func main() {
	dbPath := flag.String("db", "/backend-data/catalog.db", "SQLite catalog file")
	manifestPath := flag.String("csv", "", "CSV manifest to import (required)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: catalog-import -csv manifest.csv [-db catalog.db]")
		os.Exit(2)
	}

	log, err := logging.Stderr(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	series, err := csv.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load manifest")
	}

	catalog, err := sqlite.Open(*dbPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer func() { _ = catalog.Close() }()

	ctx := context.Background()
	frames := 0
	for _, s := range series {
		if err := catalog.PutTimeSeries(ctx, s.Ref); err != nil {
			log.Fatal().Err(err).Msg("failed to register time series")
		}
		for _, f := range s.Frames {
			if err := catalog.PutTimeFrame(ctx, s.Ref, f); err != nil {
				log.Fatal().Err(err).Msg("failed to register time frame")
			}
			frames++
		}
		if len(s.Frames) != domain.PairSize {
			log.Warn().
				Str("dataset_id", s.Ref.DatasetID).
				Str("time_series_id", s.Ref.TimeSeriesID).
				Int("frames", len(s.Frames)).
				Msg("time series is not a pair and cannot be predicted")
		}
	}

	log.Info().Int("time_series", len(series)).Int("frames", frames).Msg("catalog import complete")
}
