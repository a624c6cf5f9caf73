// Package main provides the change-detection API HTTP server.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/changedetection-api/internal/adapter/archive"
	"go.ngs.io/changedetection-api/internal/adapter/geoserver"
	"go.ngs.io/changedetection-api/internal/adapter/inference"
	"go.ngs.io/changedetection-api/internal/adapter/raster"
	"go.ngs.io/changedetection-api/internal/adapter/store"
	"go.ngs.io/changedetection-api/internal/adapter/store/fs"
	"go.ngs.io/changedetection-api/internal/adapter/store/sqlite"
	"go.ngs.io/changedetection-api/internal/config"
	httpHandler "go.ngs.io/changedetection-api/internal/http"
	"go.ngs.io/changedetection-api/internal/logging"
	"go.ngs.io/changedetection-api/internal/metrics"
	"go.ngs.io/changedetection-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	configFile := flag.String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "Optional YAML config file")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("changedetection-api version %s\n", version)
		return
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.Stderr(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", version).
		Str("port", cfg.Port).
		Str("scratch_dir", cfg.ScratchDir).
		Str("storage_root", cfg.StorageRoot).
		Str("catalog", cfg.CatalogPath).
		Str("inference_url", cfg.InferenceURL).
		Str("geoserver_url", cfg.GeoserverURL).
		Msg("starting change-detection API server")

	// Initialize stores.
	catalog, err := sqlite.Open(cfg.CatalogPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer func() { _ = catalog.Close() }()

	storage := fs.NewStorage(cfg.StorageRoot)
	locator := store.NewFrameLocator(catalog, storage)

	// Initialize collaborators.
	codec := archive.NewZipCodec(cfg.ScratchDir, raster.NewProbe(), log)
	inferenceClient := inference.NewClient(cfg.InferenceURL, cfg.InferenceTimeout, log)
	publisher := geoserver.NewPublisher(geoserver.Config{
		URL:       cfg.GeoserverURL,
		Workspace: cfg.GeoserverWorkspace,
		User:      cfg.GeoserverUser,
		Password:  cfg.GeoserverPassword,
	}, &http.Client{}, log)

	pipelineMetrics := metrics.NewPipelineCollector(prometheus.DefaultRegisterer)

	// Initialize use cases.
	predictionUC := usecase.NewPredictionUseCase(locator, codec, inferenceClient, publisher, pipelineMetrics, cfg.ScratchDir, log)
	catalogUC := usecase.NewCatalogUseCase(catalog, storage)

	// Setup router.
	router := httpHandler.SetupRouter(predictionUC, catalogUC, cfg.CORSAllowedOrigins, promhttp.Handler())

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("addr", addr).Msg("server listening")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Change Detection API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  changedetection-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -config FILE   Read settings from a YAML file (environment still wins)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  CDAPI_PORT                  Server port (default: 8080)")
	fmt.Println("  CDAPI_SCRATCH_DIR           Scratch directory for archives (default: /backend-data/tmp)")
	fmt.Println("  CDAPI_STORAGE_ROOT          Time frame storage root (default: /backend-data/storage)")
	fmt.Println("  CDAPI_CATALOG_PATH          SQLite catalog file (default: /backend-data/catalog.db)")
	fmt.Println("  CDAPI_INFERENCE_URL         Inference backend base URL (default: http://localhost:5000)")
	fmt.Println("  CDAPI_INFERENCE_TIMEOUT     Inference request timeout, 0 for none (default: 0s)")
	fmt.Println("  CDAPI_GEOSERVER_URL         GeoServer base URL (default: http://localhost:8080/geoserver)")
	fmt.Println("  CDAPI_GEOSERVER_WORKSPACE   GeoServer workspace (default: changedetection)")
	fmt.Println("  CDAPI_GEOSERVER_USER        GeoServer user (default: admin)")
	fmt.Println("  CDAPI_GEOSERVER_PASSWORD    GeoServer password")
	fmt.Println("  CDAPI_CORS_ALLOWED_ORIGINS  Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  CDAPI_LOG_LEVEL             Log level (default: info)")
	fmt.Println("  CDAPI_LOG_FORMAT            json or console (default: json)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                                                 Health check")
	fmt.Println("  GET  /metrics                                                Prometheus metrics")
	fmt.Println("  GET  /v1/datasets/{dataset}/timeseries                       List time series")
	fmt.Println("  GET  /v1/datasets/{dataset}/timeseries/{series}/frames       Time frames of a series")
	fmt.Println("  POST /v1/datasets/{dataset}/timeseries/{series}/predict      Run change detection")
	fmt.Println()
}
