package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"krushi/config"
	"krushi/database"
	"krushi/pkg/geo"
	"krushi/pkg/logger"
	"krushi/pkg/renderer"
	"krushi/pkg/validation"
	"krushi/router"

	// Auth + Health
	authCtrlImp "krushi/pkg/auth/controllerImp"
	healthCtrlImp "krushi/pkg/health/controllerImp"

	// Catalog
	catalogCtrlImp "krushi/pkg/catalog/controllerImp"
	catalogRepoImp "krushi/pkg/catalog/repositoryImp"
	catalogSvc "krushi/pkg/catalog/service"
	catalogSvcImp "krushi/pkg/catalog/serviceImp"

	// Sessions
	sessionCtrlImp "krushi/pkg/session/controllerImp"
	sessionSvcImp "krushi/pkg/session/serviceImp"
)

func main() {
	// 1) Config + logger
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()
	lg.Info("config loaded",
		"port", cfg.Port,
		"db_path", cfg.DBPath,
		"geo_endpoint", cfg.GeoEndpoint,
		"geo_api_key", cfg.GeoAPIKey,
		"require_uid", cfg.RequireUID,
		"session_ttl", cfg.SessionTTL.String(),
	)

	// 2) Catalog DB (sqlite) + seed/imports
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		lg.Fatal("open catalog db", "error", err)
	}
	cSvc := catalogSvcImp.NewCatalogService(catalogRepoImp.New(db), lg)
	if _, err := cSvc.SeedDefaults(false); err != nil {
		lg.Fatal("seed catalog", "error", err)
	}
	importFile(lg, cfg.CatalogXLSX, cSvc.ImportWorkbook)
	importFile(lg, cfg.CatalogCSV, cSvc.ImportBlocksCSV)

	// 3) Validation rules
	rules, err := validation.LoadFieldRulesFile(cfg.RulesFile)
	if err != nil {
		lg.Fatal("load field rules", "path", cfg.RulesFile, "error", err)
	}

	// 4) Sessions
	sSvc := sessionSvcImp.NewSessionService(sessionSvcImp.Deps{
		Renderer: renderer.NewLog(lg),
		Locator:  geo.NewHTTPLocator(cfg.GeoEndpoint, cfg.GeoAPIKey),
		Blocks:   cSvc,
		Rules:    rules,
		Log:      lg,
		TTL:      cfg.SessionTTL,
	})

	// 5) Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			lg.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String())
			return nil
		},
	}))

	router.New(
		e,
		authCtrlImp.NewAuthController(),
		healthCtrlImp.NewHealthCtrl(db, sSvc),
		catalogCtrlImp.NewCatalogController(cSvc),
		sessionCtrlImp.NewSessionController(sSvc),
		cfg.RequireUID,
	)

	// 6) Start + graceful stop
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		lg.Info("listening", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server stopped", "error", err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "error", err)
	}
}

func importFile(lg *logger.Logger, path string, load func(r io.Reader) (catalogSvc.Summary, error)) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		lg.Warn("catalog import skipped", "path", path, "error", err)
		return
	}
	defer f.Close()
	if _, err := load(f); err != nil {
		lg.Warn("catalog import failed", "path", path, "error", err)
	}
}
