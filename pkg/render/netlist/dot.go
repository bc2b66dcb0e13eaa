package netlist

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/render"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

// Options configures netlist rendering.
type Options struct {
	// Detailed adds the placement and, for waveguides, the length to node
	// labels. When false, only the cell name is shown.
	Detailed bool
}

// NodeID returns the DOT node identifier of the i-th instance.
func NodeID(i int) string { return "i" + strconv.Itoa(i) }

// ToDOT converts the connectivity of c to Graphviz DOT format.
// Waveguides are drawn as ellipses, components as boxes and unconnected
// optical pins as red points.
func ToDOT(c *layout.Cell, opts Options) string {
	ids := make(map[*layout.Instance]string, len(c.Instances))

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for i, inst := range c.Instances {
		id := NodeID(i)
		ids[inst] = id
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(inst, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, conn := range c.Connections() {
		fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", ids[conn.A], ids[conn.B], conn.PinA.Name+" : "+conn.PinB.Name)
	}
	for k, open := range c.Unconnected() {
		stub := fmt.Sprintf("open%d", k)
		fmt.Fprintf(&buf, "  %q [shape=point, color=red, label=\"\"];\n", stub)
		fmt.Fprintf(&buf, "  %q -- %q [label=%q, color=red];\n", ids[open.A], stub, open.PinA.Name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(inst *layout.Instance, detailed bool) string {
	if !detailed {
		return inst.Cell.Name
	}
	parts := []string{inst.Trans.String()}
	if info, ok := waveguide.InfoOf(inst.Cell); ok {
		parts = append(parts, fmt.Sprintf("%.3f µm", info.Length))
	}
	return inst.Cell.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(inst *layout.Instance, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(inst, detailed))}
	if waveguide.IsWaveguide(inst.Cell) {
		attrs = append(attrs, "shape=ellipse", "fillcolor=lightyellow")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
