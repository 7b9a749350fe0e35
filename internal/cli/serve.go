package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/collage/internal/server"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
		noImage bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve collages and projects over HTTP",
		Long: `Serve collages and projects over HTTP.

Routes:
  GET /api/collage     ?width=&height=&category=&seed=&format=json|svg|pdf
  GET /api/projects    ?category=
  GET /api/projects/{id}
  GET /images/*        files from the configured image root
  GET /healthz
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			source, closeSource, err := c.newSource(ctx, "")
			if err != nil {
				return fmt.Errorf("open projects: %w", err)
			}
			defer closeSource()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			metrics := server.NewMetrics()
			metrics.Install()

			imageRoot := cfg.Images.Root
			if noImage || cfg.Images.BaseURL != "" {
				imageRoot = ""
			}
			defaults := c.pipelineDefaults()
			if defaults.ImageBase == "" && imageRoot != "" {
				defaults.ImageBase = "/images/"
			}

			srv := server.New(server.Config{
				Addr:            cfg.Server.Addr,
				CORSOrigins:     cfg.Server.CORSOrigins,
				ImageRoot:       imageRoot,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Defaults:        defaults,
			}, runner, source, metrics, c.Logger.WithPrefix("http"))

			printKeyValue("listen", cfg.Server.Addr)
			printKeyValue("cache", c.cacheLocation())
			if imageRoot != "" {
				printKeyValue("images", imageRoot)
			}
			printNewline()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noImage, "no-images", false, "do not serve /images/ from the image root")

	return cmd
}
