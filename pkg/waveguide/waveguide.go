// Package waveguide draws routed optical waveguides.
//
// A waveguide is described by its Manhattan corner points. [Spine] replaces
// every corner with a circular bend of the waveguide type's radius, shrinking
// the radius when two corners are too close to fit full bends, and [NewCell]
// wraps the result in a "Waveguide" cell with pins at both ends and the
// routing data stored as cell properties.
package waveguide

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
)

// CellName is the base name of generated waveguide cells.
const CellName = "Waveguide"

// Property keys stored on waveguide cells.
const (
	PropType    = "waveguide_type"
	PropWidth   = "width"
	PropRadius  = "radius"
	PropLength  = "length"
	PropCorners = "corners"
)

// arcTolerance is the maximum sagitta of one arc segment, in µm.
const arcTolerance = 0.002

// devRecMargin widens the DevRec path beyond the widest component, in µm.
const devRecMargin = 1.0

// Info summarises a drawn waveguide.
type Info struct {
	Type    string       `json:"type"`
	Width   float64      `json:"width"`  // µm
	Radius  float64      `json:"radius"` // effective bend radius, µm
	Length  float64      `json:"length"` // µm
	Corners []geom.Point `json:"corners"`
}

// Spine rounds the corners of a Manhattan polyline given in µm.
// It returns the sampled centre line, the effective bend radius and the
// centre-line length.
func Spine(corners []r2.Vec, radius float64) ([]r2.Vec, float64, float64, error) {
	pts := Simplify(corners)
	if len(pts) < 2 {
		return nil, 0, 0, errors.New(errors.ErrCodeRouteFailed, "waveguide needs at least two distinct points")
	}
	for i := 1; i < len(pts); i++ {
		d := r2.Sub(pts[i], pts[i-1])
		if math.Abs(d.X) > 1e-9 && math.Abs(d.Y) > 1e-9 {
			return nil, 0, 0, errors.New(errors.ErrCodeRouteFailed, "segment %d is not Manhattan: %v -> %v", i, pts[i-1], pts[i])
		}
	}

	r := radius
	last := len(pts) - 2
	for i := 0; i+1 < len(pts); i++ {
		l := r2.Norm(r2.Sub(pts[i+1], pts[i]))
		switch {
		case last == 0:
			// straight waveguide, no bends
		case i == 0 || i == last:
			r = math.Min(r, l)
		default:
			r = math.Min(r, l/2)
		}
	}

	spine := []r2.Vec{pts[0]}
	length := 0.0
	for i := 1; i < len(pts)-1; i++ {
		u := r2.Unit(r2.Sub(pts[i], pts[i-1]))
		v := r2.Unit(r2.Sub(pts[i+1], pts[i]))
		if r2.Dot(u, v) < -0.5 {
			return nil, 0, 0, errors.New(errors.ErrCodeRouteFailed, "waveguide reverses direction at %v", pts[i])
		}
		t1 := r2.Sub(pts[i], r2.Scale(r, u))
		t2 := r2.Add(pts[i], r2.Scale(r, v))
		length += r2.Norm(r2.Sub(t1, spine[len(spine)-1]))
		if r <= 0 {
			spine = append(spine, pts[i])
			continue
		}
		center := r2.Add(t1, r2.Scale(r, v))
		a0 := math.Atan2(t1.Y-center.Y, t1.X-center.X)
		sweep := math.Pi / 2
		if r2.Cross(u, v) < 0 {
			sweep = -sweep
		}
		arc := geom.Arc(center, r, a0, a0+sweep, arcSegments(r))
		arc[0], arc[len(arc)-1] = t1, t2
		if r2.Norm(r2.Sub(t1, spine[len(spine)-1])) < 1e-9 {
			arc = arc[1:]
		}
		spine = append(spine, arc...)
		length += r * math.Pi / 2
	}
	end := pts[len(pts)-1]
	length += r2.Norm(r2.Sub(end, spine[len(spine)-1]))
	spine = append(spine, end)
	return spine, r, length, nil
}

// Simplify drops repeated and collinear interior points.
func Simplify(pts []r2.Vec) []r2.Vec {
	var out []r2.Vec
	for _, p := range pts {
		if n := len(out); n > 0 && r2.Norm(r2.Sub(p, out[n-1])) < 1e-9 {
			continue
		}
		if n := len(out); n >= 2 {
			a := r2.Sub(out[n-1], out[n-2])
			b := r2.Sub(p, out[n-1])
			if math.Abs(r2.Cross(a, b)) < 1e-9 && r2.Dot(a, b) > 0 {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func arcSegments(r float64) int {
	if r <= arcTolerance {
		return 4
	}
	step := 2 * math.Acos(1-arcTolerance/r)
	return max(8, int(math.Ceil((math.Pi/2)/step)))
}

// Draw renders a waveguide into c without pins. Corners are in dbu.
func Draw(c *layout.Cell, wg tech.Waveguide, corners []geom.Point) (Info, error) {
	ly := c.Layout()
	um := make([]r2.Vec, len(corners))
	for i, p := range corners {
		um[i] = geom.ToMicrons(p, ly.DBU)
	}
	spine, radius, length, err := Spine(um, wg.Radius)
	if err != nil {
		return Info{}, err
	}
	spineDBU := geom.ToPoints(spine, ly.DBU)

	widest := 0.0
	for _, part := range wg.Parts() {
		li, err := ly.Layer(part.Layer)
		if err != nil {
			return Info{}, err
		}
		pts := spineDBU
		if part.Offset != 0 {
			off := geom.PathPolygon(spine, []float64{2 * math.Abs(part.Offset)})
			pts = geom.ToPoints(off[:len(spine)], ly.DBU)
			if part.Offset < 0 {
				pts = geom.ToPoints(reverse(off[len(spine):]), ly.DBU)
			}
		}
		c.InsertPath(li, geom.Path{Points: pts, Width: ly.Microns(part.Width)})
		widest = math.Max(widest, part.Width+2*math.Abs(part.Offset))
	}
	devrec := ly.Tech.MustLayer(tech.LayerDevRec)
	c.InsertPath(devrec, geom.Path{Points: spineDBU, Width: ly.Microns(widest + 2*devRecMargin)})

	return Info{
		Type:    wg.Name,
		Width:   wg.Width,
		Radius:  radius,
		Length:  length,
		Corners: SimplifyPoints(corners),
	}, nil
}

// NewCell creates a waveguide cell with pins opt1 at the first corner and
// opt2 at the last. The cell is not placed anywhere.
func NewCell(ly *layout.Layout, wg tech.Waveguide, corners []geom.Point) (*layout.Cell, Info, error) {
	pts := SimplifyPoints(corners)
	if len(pts) < 2 {
		return nil, Info{}, errors.New(errors.ErrCodeRouteFailed, "waveguide needs at least two distinct points")
	}
	c := ly.CreateCell(CellName)
	info, err := Draw(c, wg, pts)
	if err != nil {
		ly.DeleteCell(c)
		return nil, Info{}, err
	}

	width := ly.Microns(wg.Width)
	startDir, _ := geom.AngleOf(pts[0].Sub(pts[1]))
	endDir, _ := geom.AngleOf(pts[len(pts)-1].Sub(pts[len(pts)-2]))
	c.AddPin(layout.Pin{Name: "opt1", Pos: pts[0], Dir: startDir, Width: width})
	c.AddPin(layout.Pin{Name: "opt2", Pos: pts[len(pts)-1], Dir: endDir, Width: width})

	c.SetProp(PropType, info.Type)
	c.SetProp(PropWidth, formatFloat(info.Width))
	c.SetProp(PropRadius, formatFloat(info.Radius))
	c.SetProp(PropLength, formatFloat(info.Length))
	c.SetProp(PropCorners, FormatCorners(info.Corners))
	return c, info, nil
}

// InfoOf reads the routing data back from a waveguide cell's properties.
func InfoOf(c *layout.Cell) (Info, bool) {
	typ, ok := c.Props[PropType]
	if !ok {
		return Info{}, false
	}
	info := Info{Type: typ}
	info.Width, _ = strconv.ParseFloat(c.Props[PropWidth], 64)
	info.Radius, _ = strconv.ParseFloat(c.Props[PropRadius], 64)
	info.Length, _ = strconv.ParseFloat(c.Props[PropLength], 64)
	info.Corners, _ = ParseCorners(c.Props[PropCorners])
	return info, true
}

// IsWaveguide reports whether a cell was produced by NewCell.
func IsWaveguide(c *layout.Cell) bool {
	_, ok := c.Props[PropType]
	return ok
}

// SimplifyPoints drops repeated and collinear interior dbu points.
func SimplifyPoints(pts []geom.Point) []geom.Point {
	var out []geom.Point
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		if n := len(out); n >= 2 {
			a := out[n-1].Sub(out[n-2])
			b := p.Sub(out[n-1])
			if a.X*b.Y-a.Y*b.X == 0 && a.Dot(b) > 0 {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// FormatCorners encodes corners as "x,y;x,y" in dbu.
func FormatCorners(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = p.String()
	}
	return strings.Join(parts, ";")
}

// ParseCorners decodes the FormatCorners encoding.
func ParseCorners(s string) ([]geom.Point, error) {
	if s == "" {
		return nil, nil
	}
	var out []geom.Point
	for _, part := range strings.Split(s, ";") {
		var p geom.Point
		if _, err := fmt.Sscanf(part, "%d,%d", &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("parse corner %q: %w", part, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func reverse(vs []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out
}
