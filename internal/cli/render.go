package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/picforge/pkg/export"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/render"
	"github.com/matzehuels/picforge/pkg/render/netlist"
)

const (
	vizLayout  = "layout"  // layer drawing of the top cell
	vizNetlist = "netlist" // connectivity diagram
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	vizTypes []string // visualization types: "layout", "netlist"
	formats  []string // output formats: "svg", "pdf", "png", "dot"
	width    float64  // layout image width in pixels
	pins     bool     // draw pin markers (layout)
	devrec   bool     // draw DevRec outlines (layout)
	hide     []string // layer names to leave out (layout)
	detailed bool     // show placements and lengths (netlist)
}

// renderCommand creates the render command for drawing a GDS file.
func (c *CLI) renderCommand() *cobra.Command {
	var vizTypesStr, formatsStr string
	opts := renderOpts{width: 1600}

	cmd := &cobra.Command{
		Use:   "render [layout.gds]",
		Short: "Render a GDS file as an image or a netlist diagram",
		Long: `Render a GDS file as an image or a netlist diagram.

The layout view draws every layer in its technology colour, zoomed to the top
cell. The netlist view draws instances as nodes and connected pins as edges
and can be written as Graphviz DOT.

PNG and PDF output require rsvg-convert.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFileExt("gds"),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.vizTypes = splitList(vizTypesStr, vizLayout)
			opts.formats = splitList(formatsStr, "svg")
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single type/format) or base path (multiple)")
	cmd.Flags().StringVarP(&vizTypesStr, "type", "t", "", "visualization type(s): layout (default), netlist (comma-separated)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	_ = cmd.RegisterFlagCompletionFunc("type", completeValues(vizLayout, vizNetlist))
	_ = cmd.RegisterFlagCompletionFunc("format", completeValues("svg", "png", "pdf", "dot"))
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "image width in pixels (layout)")
	cmd.Flags().BoolVar(&opts.pins, "pins", false, "draw pins (layout)")
	cmd.Flags().BoolVar(&opts.devrec, "devrec", false, "draw device outlines (layout)")
	cmd.Flags().StringSliceVar(&opts.hide, "hide", nil, "layers to hide (layout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show placements and waveguide lengths (netlist)")

	return cmd
}

// splitList parses a comma-separated flag value, defaulting to def.
func splitList(s, def string) []string {
	if s == "" {
		return []string{def}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"svg": true, "png": true, "pdf": true, "dot": true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', 'pdf' or 'dot')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender reads the layout and renders every requested type and format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	t, err := c.loadTech()
	if err != nil {
		return fmt.Errorf("load technology: %w", err)
	}
	_, top, err := readLayout(input, t)
	if err != nil {
		return err
	}
	c.Logger.Info("loaded layout", "top", top.Name, "instances", len(top.Instances))

	single := len(opts.vizTypes) == 1 && len(opts.formats) == 1
	base := basePath(opts.output, input)
	for _, vizType := range opts.vizTypes {
		for _, format := range opts.formats {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			path := fmt.Sprintf("%s_%s.%s", base, vizType, format)
			switch {
			case single && opts.output != "":
				path = opts.output
			case len(opts.vizTypes) == 1:
				path = fmt.Sprintf("%s.%s", base, format)
			}
			if err := c.renderAndWrite(top, vizType, format, path, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderAndWrite renders a single viz/format combination and writes it to path.
// Unsupported combinations are skipped with a debug log.
func (c *CLI) renderAndWrite(top *layout.Cell, vizType, format, path string, opts *renderOpts) error {
	data, err := renderCell(top, vizType, format, opts)
	if errors.Is(err, errSkipFormat) {
		c.Logger.Debug("skipping unsupported combination", "type", vizType, "format", format)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s/%s: %w", vizType, format, err)
	}
	if err := export.WriteFile(path, data); err != nil {
		return err
	}
	printFile(path)
	return nil
}

// errSkipFormat is a sentinel error indicating an unsupported format/visualization combination.
var errSkipFormat = errors.New("skip unsupported format")

// renderCell dispatches to the appropriate renderer based on vizType.
func renderCell(top *layout.Cell, vizType, format string, opts *renderOpts) ([]byte, error) {
	switch vizType {
	case vizLayout:
		return renderLayout(top, format, opts)
	case vizNetlist:
		return renderNetlist(top, format, opts)
	default:
		return nil, fmt.Errorf("unknown visualization type: %s", vizType)
	}
}

func renderLayout(top *layout.Cell, format string, opts *renderOpts) ([]byte, error) {
	svgOpts := []render.SVGOption{render.WithWidth(opts.width)}
	if opts.pins {
		svgOpts = append(svgOpts, render.WithPins())
	}
	if opts.devrec {
		svgOpts = append(svgOpts, render.WithDevRec())
	}
	if len(opts.hide) > 0 {
		svgOpts = append(svgOpts, render.WithHiddenLayers(opts.hide...))
	}

	switch format {
	case "svg":
		return render.RenderSVG(top, svgOpts...), nil
	case "png":
		return render.RenderPNG(top, render.WithPNGSVGOptions(svgOpts...))
	case "pdf":
		return render.RenderPDF(top, svgOpts...)
	default:
		return nil, errSkipFormat
	}
}

func renderNetlist(top *layout.Cell, format string, opts *renderOpts) ([]byte, error) {
	dot := netlist.ToDOT(top, netlist.Options{Detailed: opts.detailed})
	if format == "dot" {
		return []byte(dot), nil
	}

	svg, err := netlist.RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case "svg":
		return svg, nil
	case "png":
		return render.ToPNG(svg, 2)
	case "pdf":
		return render.ToPDF(svg)
	default:
		return nil, errSkipFormat
	}
}
