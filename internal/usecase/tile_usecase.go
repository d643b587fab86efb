package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/blocking"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type TileUseCase struct {
	opts    tiling.Options
	source  tiling.RasterSource
	encoder tiling.Encoder
	cache   cache.TileCache
	pool    *blocking.Pool
	logger  logger.Logger
}

func NewTileUseCase(
	opts tiling.Options,
	source tiling.RasterSource,
	encoder tiling.Encoder,
	tileCache cache.TileCache,
	pool *blocking.Pool,
	l logger.Logger,
) *TileUseCase {
	return &TileUseCase{
		opts:    opts,
		source:  source,
		encoder: encoder,
		cache:   tileCache,
		pool:    pool,
		logger:  l,
	}
}

func (uc *TileUseCase) ContentType() string {
	return uc.encoder.ContentType()
}

// GetTile returns the encoded tile for coord, rendering and caching it on a
// miss. The boolean reports whether the bytes came from the cache.
//
// Tiles that do not intersect the raster fail with tiling.ErrOutsideBounds and
// are never cached.
func (uc *TileUseCase) GetTile(ctx context.Context, source string, coord tiling.TileCoord) ([]byte, bool, error) {
	metrics.TilesRequests.Inc()

	if err := tiling.ValidateSourceID(source); err != nil {
		return nil, false, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "tile.cache", trace.WithAttributes(
		attribute.String("raster.source", source),
		attribute.Int("tile.z", coord.Zoom),
		attribute.Int("tile.x", coord.Column),
		attribute.Int("tile.y", coord.Row),
	))
	defer span.End()

	key := cache.TileCacheKey{
		Source: source,
		Z:      coord.Zoom,
		X:      coord.Column,
		Y:      coord.Row,
	}

	l := uc.logger.With("source", source, "tile", coord)

	data, hit, err := cache.LookupOrCompute(ctx, uc.cache, key, func() (cache.TileCacheValue, error) {
		return blocking.Run(ctx, uc.pool, func() (cache.TileCacheValue, error) {
			return uc.render(ctx, l, source, coord)
		})
	})
	span.SetAttributes(attribute.Bool("cache.hit", hit))

	if err != nil {
		if errors.Is(err, tiling.ErrOutsideBounds) {
			metrics.TilesOutsideBounds.Inc()
			l.Debug("tile outside image bounds")
			return nil, false, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.Error("failed to get tile", "error", err)
		return nil, false, err
	}

	if hit {
		metrics.TilesCacheHits.Inc()
		l.Debug("tile cache hit", "size", len(data))
	} else {
		metrics.TilesCacheMisses.Inc()
		metrics.TilesCacheStores.Inc()
		l.Debug("tile rendered", "size", len(data))
	}

	return data, hit, nil
}

func (uc *TileUseCase) render(ctx context.Context, l logger.Logger, source string, coord tiling.TileCoord) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "tile.render")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.TilesRenderDuration.Observe(time.Since(start).Seconds())
	}()

	tileExtent := uc.opts.Extent(coord)

	ds, err := uc.source.Open(ctx, source)
	if err != nil {
		if errors.Is(err, tiling.ErrSourceNotFound) || errors.Is(err, tiling.ErrInvalidSource) {
			return nil, err
		}
		return nil, &CollaboratorError{Op: "open raster", Err: err}
	}
	defer ds.Close()

	res, err := tiling.Resolve(tileExtent, ds.Geometry(), uc.opts.TileWidth, uc.opts.TileHeight)
	if err != nil {
		if errors.Is(err, tiling.ErrOutsideBounds) {
			return nil, err
		}
		return nil, &CollaboratorError{Op: "resolve window", Err: err}
	}
	l.Debug("resolved tile window",
		"window", res.Window,
		"placement", res.Placement,
	)
	span.SetAttributes(
		attribute.Int("window.x", res.Window.X),
		attribute.Int("window.y", res.Window.Y),
		attribute.Int("window.width", res.Window.Width),
		attribute.Int("window.height", res.Window.Height),
	)

	target, err := tiling.Composite(ds, uc.encoder, res, uc.opts.TileWidth, uc.opts.TileHeight)
	if err != nil {
		return nil, &CollaboratorError{Op: "composite", Err: err}
	}

	data, err := uc.encoder.Encode(target)
	if err != nil {
		return nil, &CollaboratorError{Op: "encode", Err: err}
	}

	return data, nil
}
