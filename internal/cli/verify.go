package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/gds"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/verify"
)

// verifyCommand creates the verify command for checking an existing GDS file.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		output string
		pitch  float64
		browse bool
	)

	cmd := &cobra.Command{
		Use:   "verify [layout.gds]",
		Short: "Check a GDS file against the submission rules",
		Long: `Check a GDS file against the submission rules.

Pins are recovered from the PinRec shapes, so any layout written by 'build'
or by KLayout with the EBeam technology can be checked. The results are
written as a KLayout report database (default: <input>.lyrdb).`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFileExt("gds"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(cmd.Context(), cmd.OutOrStdout(), args[0], output, pitch, browse)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "report database file (default: <input>.lyrdb)")
	cmd.Flags().Float64Var(&pitch, "pitch", verify.DefaultPitch, "fibre-array pitch in µm")
	cmd.Flags().BoolVar(&browse, "browse", false, "browse the errors interactively")

	return cmd
}

// runVerify reads the layout, checks it and writes the report database.
func (c *CLI) runVerify(ctx context.Context, out io.Writer, input, output string, pitch float64, browse bool) error {
	t, err := c.loadTech()
	if err != nil {
		return fmt.Errorf("load technology: %w", err)
	}
	ly, top, err := readLayout(input, t)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, os.Stderr, "Checking "+top.Name+"...")
	spinner.Start()
	prog := newProgress(c.Logger)
	rep := verify.Check(top, verify.Options{Pitch: pitch})
	prog.done(fmt.Sprintf("Checked %d cells", len(ly.Cells())))

	if ctx.Err() != nil {
		spinner.Stop()
		return ctx.Err()
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".lyrdb"
	}
	if err := rep.WriteLyrdb(output); err != nil {
		spinner.StopWithError("Report not written")
		return err
	}

	spinner.StopWithSuccess("Verified %s", top.Name)
	printFile(output)
	if rep.ErrorCount() > 0 {
		fmt.Fprintln(out, categoryTable(rep))
	}
	fmt.Fprintf(out, "Number of errors: %d\n", rep.ErrorCount())

	if browse && rep.ErrorCount() > 0 {
		return browseReport(rep)
	}
	return nil
}

// reportCommand creates the report command for browsing a report database.
func (c *CLI) reportCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "report [report.lyrdb]",
		Short: "Browse the errors of a report database",
		Long: `Browse the errors of a report database.

Opens an interactive list of the error markers. Use --list to print a
summary table instead.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFileExt("lyrdb"),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			t, err := c.loadTech()
			if err != nil {
				return fmt.Errorf("load technology: %w", err)
			}
			rep, err := verify.ReadLyrdb(args[0], t.DBU)
			if err != nil {
				return err
			}
			if list || rep.ErrorCount() == 0 {
				printInfo("%s: %d errors", rep.Top, rep.ErrorCount())
				if rep.ErrorCount() > 0 {
					fmt.Fprintln(out, categoryTable(rep))
				}
				return nil
			}
			return browseReport(rep)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print a summary instead of the interactive browser")

	return cmd
}

// browseReport runs the interactive report browser.
func browseReport(rep *verify.Report) error {
	p := tea.NewProgram(NewReportModel(rep))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("report browser: %w", err)
	}
	return nil
}

// readLayout reads a GDS file and returns its layout and single top cell.
func readLayout(path string, t *tech.Technology) (*layout.Layout, *layout.Cell, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout %s", path)
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	ly, err := gds.Read(f, t)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	top, err := ly.TopCell()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ly, top, nil
}
