// Package config loads collage settings from a TOML file, a .env file and
// COLLAGE_* environment variables, in increasing order of precedence.
//
//	cfg, err := config.Load("collage.toml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Server.Addr, cfg.Cache.Backend)
//
// Command-line flags override everything; the CLI applies them after Load.
package config

import (
	"time"

	"github.com/matzehuels/collage/pkg/collage"
)

// Config is the complete configuration.
type Config struct {
	Server   Server   `toml:"server" envPrefix:"SERVER_"`
	Layout   Layout   `toml:"layout" envPrefix:"LAYOUT_"`
	Cache    Cache    `toml:"cache" envPrefix:"CACHE_"`
	Images   Images   `toml:"images" envPrefix:"IMAGES_"`
	Projects Projects `toml:"projects" envPrefix:"PROJECTS_"`
	Log      Log      `toml:"log" envPrefix:"LOG_"`
}

// Server configures the HTTP API.
type Server struct {
	Addr        string   `toml:"addr" env:"ADDR"`
	CORSOrigins []string `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Layout holds engine defaults. Zero values fall back to the engine's own
// defaults.
type Layout struct {
	Width           float64       `toml:"width" env:"WIDTH"`
	Height          float64       `toml:"height" env:"HEIGHT"`
	PerImageTimeout time.Duration `toml:"per_image_timeout" env:"PER_IMAGE_TIMEOUT"`
	GlobalTimeout   time.Duration `toml:"global_timeout" env:"GLOBAL_TIMEOUT"`
	MinGap          float64       `toml:"min_gap" env:"MIN_GAP"`
	Attempts        int           `toml:"attempts" env:"ATTEMPTS"`
	MaxConcurrency  int           `toml:"max_concurrency" env:"MAX_CONCURRENCY"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend string `toml:"backend" env:"BACKEND"` // file, redis or none
	Dir     string `toml:"dir" env:"DIR"`

	RedisAddr     string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string `toml:"redis_prefix" env:"REDIS_PREFIX"`
}

// Images tells measurers and renderers where images live.
type Images struct {
	Root    string `toml:"root" env:"ROOT"`         // local directory
	BaseURL string `toml:"base_url" env:"BASE_URL"` // remote origin; measured over HTTP when set
	Prefix  string `toml:"prefix" env:"PREFIX"`     // href prefix in SVG output
}

// Projects locates the project document.
type Projects struct {
	Path string `toml:"path" env:"PATH"`

	MongoURI        string `toml:"mongo_uri" env:"MONGO_URI"`
	MongoDB         string `toml:"mongo_db" env:"MONGO_DB"`
	MongoCollection string `toml:"mongo_collection" env:"MONGO_COLLECTION"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"` // rotated with lumberjack when set

	MaxSizeMB  int  `toml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int  `toml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int  `toml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool `toml:"compress" env:"COMPRESS"`
}

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Layout: Layout{
			Width:           1600,
			Height:          900,
			PerImageTimeout: collage.DefaultPerImageTimeout,
			GlobalTimeout:   collage.DefaultGlobalTimeout,
			MinGap:          collage.DefaultMinGap,
			Attempts:        collage.DefaultMaxPlacementAttempts,
		},
		Cache: Cache{
			Backend:     BackendFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "collage:",
		},
		Images: Images{
			Root:   ".",
			Prefix: "",
		},
		Projects: Projects{
			Path:            "projects.json",
			MongoDB:         "collage",
			MongoCollection: "projects",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}
