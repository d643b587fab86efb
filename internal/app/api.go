package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	v1 "github.com/jaennil/guide_helper/backend/rastertiles/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/repository/raster"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/usecase"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/blocking"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l, err := logger.NewZapLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	shutdownTelemetry, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		l.Fatal("failed to initialize telemetry", "error", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			l.Error("failed to shutdown telemetry", "error", err)
		}
	}()

	opts, err := TilingOptions(cfg)
	if err != nil {
		l.Fatal("invalid tile grid", "error", err)
	}

	tileCache, closeCache, err := NewTileCache(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize tile cache", "backend", cfg.Cache.Backend, "error", err)
	}
	defer func() {
		if err := closeCache.Close(); err != nil {
			l.Error("failed to close tile cache", "error", err)
		}
	}()
	l.Info("tile cache initialized", "backend", cfg.Cache.Backend)

	interp, err := raster.ParseResampling(cfg.Raster.Resampling)
	if err != nil {
		l.Fatal("invalid resampling", "error", err)
	}
	source := raster.NewFileSource(cfg.Raster.Dir, interp, cfg.Raster.DatasetCacheSize)
	defer source.Stop()

	pool := blocking.NewPool(cfg.Workers)
	l.Info("worker pool initialized", "workers", pool.Size())

	tileUseCase := usecase.NewTileUseCase(opts, source, raster.NewPNGEncoder(), tileCache, pool, l)
	infoUseCase := usecase.NewInfoUseCase(opts, cfg.Grid.Preset == config.GridPresetWebMercator, source, pool, l)

	validate := validator.New()
	h := handler.NewHandler(validate, tileUseCase, infoUseCase, cfg.Tile.MaxZoom)
	router := v1.NewRouter(h, l, v1.RouterConfig{
		TelemetryEnabled: cfg.Telemetry.Enabled,
		ServiceName:      cfg.Telemetry.ServiceName,
		AllowedOrigins:   cfg.HTTP.CORS.AllowedOrigins,
	})

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	l.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	l.Info("shutting down http server...", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http_server shutdown completed")
	}

	l.Info("application shutdown completed")
}

// TilingOptions builds the rendering options from the grid and tile config.
func TilingOptions(cfg *config.Config) (tiling.Options, error) {
	grid := tiling.WebMercator()
	if cfg.Grid.Preset != config.GridPresetWebMercator {
		var err error
		grid, err = tiling.NewTileGrid(tiling.Extent{
			XMin: cfg.Grid.XMin,
			YMin: cfg.Grid.YMin,
			XMax: cfg.Grid.XMax,
			YMax: cfg.Grid.YMax,
		})
		if err != nil {
			return tiling.Options{}, err
		}
	}

	return tiling.Options{
		Grid:       grid,
		ReverseY:   cfg.Grid.ReverseY,
		TileWidth:  cfg.Tile.Width,
		TileHeight: cfg.Tile.Height,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewTileCache opens the configured cache backend. The returned closer releases
// its connections.
func NewTileCache(cfg *config.Config, l logger.Logger) (cache.TileCache, io.Closer, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendFilesystem:
		c, err := cache.NewFilesystemCache(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		return c, nopCloser{}, nil
	case config.CacheBackendSQLite:
		c, err := cache.NewSQLiteCache(cfg.Cache.SQLitePath, l)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case config.CacheBackendRedis:
		c, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case config.CacheBackendMemory:
		return cache.NewMapCache(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
