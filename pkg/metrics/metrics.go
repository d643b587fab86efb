package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_requests_total",
		Help: "Total number of tile requests",
	})

	TilesCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_cache_hits_total",
		Help: "Total number of tiles served from the tile cache",
	})

	TilesCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_cache_misses_total",
		Help: "Total number of tiles that had to be rendered",
	})

	TilesCacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_cache_stores_total",
		Help: "Total number of rendered tiles persisted to the tile cache",
	})

	TilesOutsideBounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_outside_bounds_total",
		Help: "Total number of tile requests that did not intersect the source raster",
	})

	TilesRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiles_render_duration_seconds",
		Help:    "Time spent rendering and encoding a tile in seconds",
		Buckets: prometheus.DefBuckets,
	})

	WorkerQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiles_worker_queue_wait_seconds",
		Help:    "Time blocking work waited for a free worker in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	// Redis metrics
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	}, []string{"operation"})

	RedisPoolStats = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redis_pool_stats",
		Help: "Redis connection pool statistics",
	}, []string{"stat"})
)
