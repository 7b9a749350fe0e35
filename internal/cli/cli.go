package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/collage/pkg/buildinfo"
	"github.com/matzehuels/collage/pkg/cache"
	"github.com/matzehuels/collage/pkg/config"
	"github.com/matzehuels/collage/pkg/measure"
	"github.com/matzehuels/collage/pkg/pipeline"
	"github.com/matzehuels/collage/pkg/project"
	"github.com/matzehuels/collage/pkg/project/mongostore"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "collage"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	out        io.Writer
	logFile    io.WriteCloser
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The config file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		out:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Collage lays out portfolio images as scattered, rotated collages",
		Long: `Collage discovers image sizes concurrently, scatters the images around
random attraction points without overlap, and renders the result as JSON,
animated SVG or PDF. It also serves collages over HTTP and browses the
project list interactively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.Close()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./collage.toml if present)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.projectsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Close releases the log file, if any.
func (c *CLI) Close() {
	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}
}

// logFileOrDiscard returns the log file writer, or io.Discard without one.
func (c *CLI) logFileOrDiscard() io.Writer {
	if c.logFile != nil {
		return c.logFile
	}
	return io.Discard
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file and environment, then applies the log
// settings. A --verbose level set before this call wins over the file.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg

	if c.Logger.GetLevel() != LogDebug && cfg.Log.Level != "" {
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
		}
		c.SetLogLevel(level)
	}
	if w := cfg.Log.LogWriter(); w != nil {
		c.Close()
		c.logFile = w
		c.Logger.SetOutput(io.MultiWriter(c.out, w))
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use with the configured cache
// and measurer.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)

	if base := c.Config.Images.BaseURL; base != "" {
		runner.UseMeasurer(measure.NewHTTP(base), "http")
	} else {
		runner.UseMeasurer(measure.NewFile(c.Config.Images.Root), "file")
	}
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
			Prefix:   c.Config.Cache.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newSource returns the project source: MongoDB when a URI is configured,
// otherwise the given file or the configured path. The returned closer is
// never nil.
func (c *CLI) newSource(ctx context.Context, path string) (project.Source, func(), error) {
	if uri := c.Config.Projects.MongoURI; uri != "" && path == "" {
		store, err := mongostore.Connect(ctx, uri, c.Config.Projects.MongoDB, c.Config.Projects.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	}
	if path == "" {
		path = c.Config.Projects.Path
	}
	return project.FileSource{Path: path}, func() {}, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// standard (~/.cache/collage/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineDefaults seeds pipeline options from the configuration. Flags
// override the result.
func (c *CLI) pipelineDefaults() pipeline.Options {
	l := c.Config.Layout
	return pipeline.Options{
		Width:           l.Width,
		Height:          l.Height,
		MinGap:          l.MinGap,
		Attempts:        l.Attempts,
		PerImageTimeout: l.PerImageTimeout,
		GlobalTimeout:   l.GlobalTimeout,
		MaxConcurrency:  l.MaxConcurrency,
		ImageBase:       c.Config.Images.Prefix,
		ImageRoot:       c.Config.Images.Root,
	}
}

// layoutFlags holds the flags shared by layout, render and serve.
type layoutFlags struct {
	width, height float64
	seed          uint64
	category      string
	noCache       bool
	refresh       bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed for a reproducible collage")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "only include projects of this category: photo, video, graphic")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached layout exists")
}

// apply copies the flags onto opts. Only flags the user set override the
// configured values.
func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	category, err := project.ParseCategory(f.category)
	if err != nil {
		return err
	}
	opts.Category = category
	if cmd.Flags().Changed("width") {
		opts.Width = f.width
	}
	if cmd.Flags().Changed("height") {
		opts.Height = f.height
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed, opts.Seeded = f.seed, true
	}
	opts.Refresh = f.refresh
	return nil
}

// outputBase strips a known format extension from output, or derives a base
// name from the category.
func outputBase(output string, category project.Category) string {
	if output == "" {
		if category == project.CategoryAll {
			return appName
		}
		return appName + "-" + string(category)
	}
	ext := filepath.Ext(output)
	if strings.EqualFold(ext, ".json") || strings.EqualFold(ext, ".svg") || strings.EqualFold(ext, ".pdf") {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
