package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/picforge/pkg/design"
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/klive"
	"github.com/matzehuels/picforge/pkg/pipeline"
)

// buildCommand creates the build command, the main entry point: it builds
// the MZI, writes the GDS file and the report database and optionally opens
// both in KLayout.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		configPath string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the MZI layout, export it and verify it",
		Long: `Build the MZI layout, export it and verify it.

The layout is written to <output-dir>/<relative-path>/<name>.gds and the
verification results to <output-dir>/<name>.lyrdb. Verification errors are
reported but never stop the export.

Exported streams are cached locally, so rebuilding an unchanged design only
rewrites the files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The config file names the designer unless -d is given.
			if configPath != "" && !cmd.Flags().Changed("designer") {
				opts.Designer = ""
			}
			return c.runBuild(cmd.Context(), cmd.OutOrStdout(), opts, configPath, noCache)
		},
	}

	// Design flags
	cmd.Flags().StringVarP(&opts.Designer, "designer", "d", pipeline.DefaultDesigner, "designer name used in the top cell and labels")
	cmd.Flags().StringVar(&configPath, "config", "", "design configuration TOML file")
	cmd.Flags().BoolVar(&opts.DelayLine, "delay-line", false, "add the spiral delay-line MZI")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "layout engine version to check against")

	// Output flags
	cmd.Flags().StringVarP(&opts.Dir, "output-dir", "o", ".", "output directory")
	cmd.Flags().StringVar(&opts.RelativePath, "relative-path", pipeline.DefaultRelativePath, "GDS location relative to the output directory")
	cmd.Flags().StringVar(&opts.Name, "name", "", "output base name (default: top cell name)")
	cmd.Flags().StringVar(&opts.ExportType, "export-type", pipeline.DefaultExportType, "export type: static (default), pcell")
	_ = cmd.RegisterFlagCompletionFunc("export-type", completeValues(exportTypes()...))
	cmd.Flags().BoolVar(&opts.Screenshot, "screenshot", false, "save a PNG screenshot next to the GDS file")
	cmd.Flags().BoolVar(&opts.Netlist, "netlist", false, "save the connectivity netlist as JSON")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached streams")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Viewer flags
	cmd.Flags().BoolVar(&opts.Show, "show", false, "open the result in KLayout")
	cmd.Flags().StringVar(&opts.ViewerAddr, "viewer-addr", klive.DefaultAddr, "KLayout live-view address")

	return cmd
}

// runBuild runs the pipeline and prints the written files and the error count.
func (c *CLI) runBuild(ctx context.Context, out io.Writer, opts pipeline.Options, configPath string, noCache bool) error {
	t, err := c.loadTech()
	if err != nil {
		return fmt.Errorf("load technology: %w", err)
	}
	opts.Tech = t
	opts.Logger = c.Logger

	if configPath != "" {
		base := design.DefaultConfig(pipeline.DefaultDesigner)
		if opts.Designer != "" {
			base.Designer = opts.Designer
		}
		cfg, err := design.LoadConfig(configPath, base)
		if err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
		opts.Config = &cfg
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, os.Stderr, "Checking engine version...")
	restore := watchStages(spinner)
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Build failed")
		if pipeline.IsVersionError(err) {
			return fmt.Errorf("%s", errors.UserMessage(err))
		}
		return err
	}
	if ctx.Err() != nil {
		spinner.Stop()
		return ctx.Err()
	}
	spinner.StopWithSuccess("Built %s", result.Design.Top.Name)
	if result.Files != nil {
		printFile(result.Files.GDS)
		if result.Files.Screenshot != "" {
			printFile(result.Files.Screenshot)
		}
		if result.Files.Netlist != "" {
			printFile(result.Files.Netlist)
		}
	}
	if result.Lyrdb != "" {
		printFile(result.Lyrdb)
	}
	printStats(result.Stats.Cells, result.Stats.Instances, result.CacheInfo.ExportHit)

	if opts.Show && result.ViewerError != "" {
		printWarning("Not shown in KLayout: %s", result.ViewerError)
	}

	fmt.Fprintf(out, "Number of errors: %d\n", result.ErrorCount)
	if result.ErrorCount > 0 && result.Lyrdb != "" {
		printNewline()
		printNextStep("Browse errors", appName+" report "+result.Lyrdb)
	}
	return nil
}
