// Package config loads the service configuration from the environment and an optional file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CDAPI_SCRATCH_DIR.
const EnvPrefix = "CDAPI"

// Config holds the service settings.
type Config struct {
	Port               string
	ScratchDir         string
	StorageRoot        string
	CatalogPath        string
	InferenceURL       string
	InferenceTimeout   time.Duration
	GeoserverURL       string
	GeoserverWorkspace string
	GeoserverUser      string
	GeoserverPassword  string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
}

var defaults = map[string]any{
	"port":                 "8080",
	"scratch_dir":          "/backend-data/tmp",
	"storage_root":         "/backend-data/storage",
	"catalog_path":         "/backend-data/catalog.db",
	"inference_url":        "http://localhost:5000",
	"inference_timeout":    "0s",
	"geoserver_url":        "http://localhost:8080/geoserver",
	"geoserver_workspace":  "changedetection",
	"geoserver_user":       "admin",
	"geoserver_password":   "geoserver",
	"cors_allowed_origins": "",
	"log_level":            "info",
	"log_format":           "json",
}

// Load reads the configuration. configFile may be empty; otherwise it must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s not found: %w", configFile, err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(v.GetString("inference_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid inference_timeout: %w", err)
	}
	if timeout < 0 {
		return nil, fmt.Errorf("inference_timeout must not be negative")
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		ScratchDir:         v.GetString("scratch_dir"),
		StorageRoot:        v.GetString("storage_root"),
		CatalogPath:        v.GetString("catalog_path"),
		InferenceURL:       v.GetString("inference_url"),
		InferenceTimeout:   timeout,
		GeoserverURL:       v.GetString("geoserver_url"),
		GeoserverWorkspace: v.GetString("geoserver_workspace"),
		GeoserverUser:      v.GetString("geoserver_user"),
		GeoserverPassword:  v.GetString("geoserver_password"),
		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
	}

	if cfg.ScratchDir == "" {
		return nil, fmt.Errorf("scratch_dir must not be empty")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
