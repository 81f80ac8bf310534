package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	DBPath      string
	LogMode     string
	CatalogXLSX string // optional workbook imported at startup
	CatalogCSV  string // optional District,Block CSV imported at startup
	RulesFile   string // optional YAML field rule table
	GeoEndpoint string
	GeoAPIKey   string
	RequireUID  bool
	SessionTTL  time.Duration
}

// Load reads the environment, after a .env file when one exists.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	cfg := AppConfig{
		Port:        get("PORT", "8080"),
		DBPath:      get("DB_PATH", "krushi.db"),
		LogMode:     get("LOG_MODE", "dev"),
		CatalogXLSX: get("CATALOG_XLSX", ""),
		CatalogCSV:  get("CATALOG_CSV", ""),
		RulesFile:   get("RULES_FILE", ""),
		GeoEndpoint: get("GEO_ENDPOINT", ""),
		GeoAPIKey:   get("GEO_API_KEY", ""),
	}
	var err error
	if cfg.RequireUID, err = strconv.ParseBool(get("REQUIRE_UID", "false")); err != nil {
		return AppConfig{}, fmt.Errorf("REQUIRE_UID: %w", err)
	}
	if cfg.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "2h")); err != nil {
		return AppConfig{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	return cfg, nil
}
