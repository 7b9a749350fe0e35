package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/collage/pkg/pipeline"
	"github.com/matzehuels/collage/pkg/render"
)

// layoutCommand creates the layout command for computing collage layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [projects.json]",
		Short: "Compute a collage layout from a project document",
		Long: `Compute a collage layout from a project document.

The layout command measures every image of the selected projects and places
them on the canvas. The output is a layout.json file (same format as
'render -f json') that can be rendered to SVG or PDF with 'render --from'.

Without --seed every run is a fresh shuffle. Seeded layouts are cached
locally and reproduce exactly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineDefaults()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runLayout(cmd.Context(), input, opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: collage[-<category>].layout.json)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the projects, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
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
	opts.Formats = []string{render.FormatJSON}

	spinner := c.newSpinnerWithContext(ctx, "Measuring and placing images...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase("", opts.Category) + ".layout.json"
	}
	if err := os.WriteFile(outputPath, result.Artifacts[render.FormatJSON], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Layout.Stats, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", appName+" render --from "+outputPath+" -f svg")

	return nil
}
