package render

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width  float64
	margin float64
	pins   bool
	devrec bool
	hidden map[string]bool
}

// WithWidth sets the image width in pixels (default 1200).
func WithWidth(px float64) SVGOption { return func(r *svgRenderer) { r.width = px } }

// WithMargin sets the space around the fitted bounding box as a fraction of
// its size (default 0.05).
func WithMargin(f float64) SVGOption { return func(r *svgRenderer) { r.margin = f } }

// WithPins draws PinRec markers and pin names.
func WithPins() SVGOption { return func(r *svgRenderer) { r.pins = true } }

// WithDevRec draws device outlines.
func WithDevRec() SVGOption { return func(r *svgRenderer) { r.devrec = true } }

// WithHiddenLayers skips the named layers.
func WithHiddenLayers(names ...string) SVGOption {
	return func(r *svgRenderer) {
		for _, n := range names {
			r.hidden[n] = true
		}
	}
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{width: 1200, margin: 0.05, hidden: make(map[string]bool)}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// ViewBox returns the fitted view of c in µm: its bounding box grown by
// margin on every side. An empty cell yields a 1 µm square at the origin.
func ViewBox(c *layout.Cell, margin float64) (x, y, w, h float64) {
	b := c.BBox()
	dbu := c.Layout().DBU
	if b.IsEmpty() {
		return 0, 0, 1, 1
	}
	w = float64(b.Width()) * dbu
	h = float64(b.Height()) * dbu
	pad := margin * math.Max(w, h)
	return float64(b.Left)*dbu - pad, -float64(b.Top)*dbu - pad, w + 2*pad, h + 2*pad
}

// RenderSVG draws c with all its children. Coordinates are µm with the
// y-axis flipped so that the image appears as in a layout viewer.
func RenderSVG(c *layout.Cell, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	ly := c.Layout()

	x, y, w, h := ViewBox(c, r.margin)
	height := math.Max(1, r.width*h/w)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.3f %.3f %.3f %.3f" width="%.0f" height="%.0f">`+"\n",
		x, y, w, h, r.width, height)
	fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(c.Name))
	fmt.Fprintf(&buf, `  <rect x="%.3f" y="%.3f" width="%.3f" height="%.3f" fill="white"/>`+"\n", x, y, w, h)

	stroke := math.Max(w, h) / 1000
	for _, l := range ly.Tech.Layers {
		if !r.visible(l.Name) {
			continue
		}
		var body bytes.Buffer
		c.Walk(func(cell *layout.Cell, t geom.Trans) {
			if !cell.HasShapes(l.LayerInfo) {
				return
			}
			r.drawShapes(&body, cell.Shapes(l.LayerInfo), t, ly.DBU, l.Name == tech.LayerText || (r.pins && l.Name == tech.LayerPinRec))
		})
		if body.Len() == 0 {
			continue
		}
		fmt.Fprintf(&buf, `  <g id="layer-%s" %s stroke-width="%.4f">`+"\n", l.LayerInfo.String(), layerStyle(l), stroke)
		buf.Write(body.Bytes())
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) visible(name string) bool {
	if r.hidden[name] {
		return false
	}
	switch name {
	case tech.LayerPinRec:
		return r.pins
	case tech.LayerDevRec:
		return r.devrec
	}
	return true
}

func layerStyle(l tech.Layer) string {
	switch l.Name {
	case tech.LayerFloorPlan, tech.LayerDevRec:
		return fmt.Sprintf(`fill="none" stroke="%s" stroke-dasharray="4 2" vector-effect="non-scaling-stroke"`, l.Color)
	case tech.LayerText:
		return fmt.Sprintf(`fill="%s" stroke="none"`, l.Color)
	}
	return fmt.Sprintf(`fill="%s" fill-opacity="0.6" stroke="%s"`, l.Color, l.Color)
}

func (r svgRenderer) drawShapes(buf *bytes.Buffer, s *layout.Shapes, t geom.Trans, dbu float64, texts bool) {
	for _, b := range s.Boxes {
		b = t.ApplyBox(b)
		fmt.Fprintf(buf, `    <rect x="%.3f" y="%.3f" width="%.3f" height="%.3f"/>`+"\n",
			float64(b.Left)*dbu, -float64(b.Top)*dbu, float64(b.Width())*dbu, float64(b.Height())*dbu)
	}
	for _, p := range s.Polygons {
		fmt.Fprintf(buf, `    <polygon points="%s"/>`+"\n", svgPoints(p.Transformed(t).Points, dbu))
	}
	for _, p := range s.Paths {
		p = p.Transformed(t)
		fmt.Fprintf(buf, `    <polyline points="%s" fill="none" stroke-width="%.3f" stroke-linejoin="round" stroke-opacity="0.6"/>`+"\n",
			svgPoints(p.Points, dbu), float64(p.Width)*dbu)
	}
	if !texts {
		return
	}
	for _, txt := range s.Texts {
		txt = txt.Transformed(t)
		size := float64(txt.Size) * dbu
		if size == 0 {
			size = 2
		}
		pos := txt.Position()
		fmt.Fprintf(buf, `    <text x="%.3f" y="%.3f" font-family="monospace" font-size="%.3f">%s</text>`+"\n",
			float64(pos.X)*dbu, -float64(pos.Y)*dbu, size, html.EscapeString(txt.String))
	}
}

func svgPoints(pts []geom.Point, dbu float64) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.3f,%.3f", float64(p.X)*dbu, -float64(p.Y)*dbu)
	}
	return strings.Join(parts, " ")
}
