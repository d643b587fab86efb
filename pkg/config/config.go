package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	GridPresetCustom      = "custom"
	GridPresetWebMercator = "web_mercator"

	CacheBackendFilesystem = "filesystem"
	CacheBackendSQLite     = "sqlite"
	CacheBackendRedis      = "redis"
	CacheBackendMemory     = "memory"

	LoggerFormatConsole = "console"
	LoggerFormatJSON    = "json"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Grid      Grid      `envPrefix:"GRID_"`
		Tile      Tile      `envPrefix:"TILE_"`
		Raster    Raster    `envPrefix:"RASTER_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Workers   int       `env:"WORKERS" envDefault:"0" validate:"gte=0"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
		CORS   CORS   `envPrefix:"CORS_"`
	}

	Server struct {
		Port         string        `env:"PORT,required" validate:"required"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	CORS struct {
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	}

	// Logger.Format selects zap's console encoder for development or the
	// JSON encoder for production log shipping.
	Logger struct {
		Level  string `env:"LEVEL,required"`
		Format string `env:"FORMAT" envDefault:"console" validate:"oneof=console json"`
	}

	// Grid defaults to the EPSG:32628 (UTM zone 28N) extent the service was
	// first deployed with.
	Grid struct {
		Preset   string  `env:"PRESET" envDefault:"custom" validate:"oneof=custom web_mercator"`
		XMin     float64 `env:"XMIN" envDefault:"166021.44308053772"`
		YMin     float64 `env:"YMIN" envDefault:"0"`
		XMax     float64 `env:"XMAX" envDefault:"534994.655061136" validate:"gtfield=XMin"`
		YMax     float64 `env:"YMAX" envDefault:"9329005.182447437" validate:"gtfield=YMin"`
		ReverseY bool    `env:"REVERSE_Y" envDefault:"false"`
	}

	Tile struct {
		Width   int `env:"WIDTH" envDefault:"256" validate:"min=1,max=4096"`
		Height  int `env:"HEIGHT" envDefault:"256" validate:"min=1,max=4096"`
		MaxZoom int `env:"MAX_ZOOM" envDefault:"30" validate:"min=0,max=30"`
	}

	Raster struct {
		Dir              string `env:"DIR" envDefault:"."`
		Resampling       string `env:"RESAMPLING" envDefault:"nearest" validate:"oneof=nearest bilinear catmullrom"`
		DatasetCacheSize int64  `env:"DATASET_CACHE_SIZE" envDefault:"16" validate:"min=1"`
	}

	Cache struct {
		Backend    string `env:"BACKEND" envDefault:"filesystem" validate:"oneof=filesystem sqlite redis memory"`
		Dir        string `env:"DIR" envDefault:"cache"`
		SQLitePath string `env:"SQLITE_PATH" envDefault:"cache.db"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"rastertiles"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(validator.New()); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
