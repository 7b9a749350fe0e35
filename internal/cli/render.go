package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/collage/pkg/pipeline"
	"github.com/matzehuels/collage/pkg/render"
)

// renderOpts holds the render-only command-line flags.
type renderOpts struct {
	output   string // output file path (or base path for multiple outputs)
	formats  string // comma-separated output formats
	from     string // render an existing layout.json instead of laying out
	animate  bool   // staggered fade-in in SVG output
	debug    bool   // outline clustered and fallback items
	linkBase string // PDF link target for project anchors
}

// renderCommand creates the render command for generating collage artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags layoutFlags
		ro    renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render [projects.json]",
		Short: "Render a collage to JSON, SVG or PDF",
		Long: `Render a collage to JSON, SVG or PDF.

By default render lays out the selected projects first. With --from it
renders a layout.json produced by 'layout' instead, without measuring any
image.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineDefaults()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			formats, err := render.ParseFormats(ro.formats)
			if err != nil {
				return err
			}
			opts.Formats = formats
			opts.Animate = ro.animate
			opts.Debug = ro.debug
			if ro.linkBase != "" {
				opts.LinkBase = ro.linkBase
			}

			if ro.from != "" {
				return c.runRenderFrom(cmd.Context(), ro, opts)
			}
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), input, ro, opts, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", render.FormatSVG, "output format(s): json, svg, pdf (comma-separated)")
	cmd.Flags().StringVar(&ro.from, "from", "", "render an existing layout.json")
	cmd.Flags().BoolVar(&ro.animate, "animate", false, "staggered fade-in animation (svg)")
	cmd.Flags().BoolVar(&ro.debug, "debug", false, "outline clustered and fallback items")
	cmd.Flags().StringVar(&ro.linkBase, "link-base", "", "link target for project anchors (pdf)")
	flags.register(cmd)

	return cmd
}

// runRender lays out the selected projects and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input string, ro renderOpts, opts pipeline.Options, noCache bool) error {
	source, closeSource, err := c.newSource(ctx, input)
	if err != nil {
		return fmt.Errorf("open projects: %w", err)
	}
	defer closeSource()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Source = source

	spinner := c.newSpinnerWithContext(ctx, "Rendering collage...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, outputBase(ro.output, opts.Category), ro.output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Layout.Stats, result.CacheInfo.LayoutHit)
	return nil
}

// runRenderFrom renders a stored layout.
func (c *CLI) runRenderFrom(ctx context.Context, ro renderOpts, opts pipeline.Options) error {
	data, err := os.ReadFile(ro.from)
	if err != nil {
		return fmt.Errorf("read layout %s: %w", ro.from, err)
	}
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	artifacts, err := pipeline.RenderFromLayoutData(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", ro.from, err)
	}
	prog.done("Rendered " + ro.from)

	base := ro.output
	if base == "" {
		base = strings.TrimSuffix(ro.from, ".layout.json")
	}
	paths, err := writeArtifacts(artifacts, opts.Formats, outputBase(base, ""), ro.output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes one file per format. A single format goes to output
// verbatim when given; otherwise files are named base.<format>.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, output string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
