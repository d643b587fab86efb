package v1

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	TelemetryEnabled bool
	ServiceName      string
	AllowedOrigins   []string
}

func NewRouter(handler *handler.Handler, l logger.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	// Add OpenTelemetry middleware if enabled
	if cfg.TelemetryEnabled {
		r.Use(telemetry.GinMiddleware(cfg.ServiceName))
	}

	r.Use(ginZapLogger(l))

	r.GET("/healthz", handler.Healthz)
	registerRasterRoutes(&r.RouterGroup, handler)

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)
	registerRasterRoutes(v1, handler)

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerRasterRoutes(g *gin.RouterGroup, handler *handler.Handler) {
	g.GET("/tile/:source/:z/:x/:y", handler.Tile)
	g.GET("/info/:source", handler.Info)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl := l.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Set("logger", rl)

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		rl.Info("request",
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
			"tile_source", c.Writer.Header().Get("X-Tile-Source"),
		)
	}
}
