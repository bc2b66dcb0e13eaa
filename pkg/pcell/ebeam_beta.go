package pcell

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

// EBeamBeta holds parametrized cells that are still being characterised.
var EBeamBeta = &Library{
	Name:        "EBeam_Beta",
	Description: "Experimental parametrized cells",
	Cells: []*Generator{
		{
			Name:        "taper_bezier",
			Description: "Waveguide taper with a Bezier width profile",
			Params: []Param{
				{Name: "wg_width1", Type: TypeDouble, Default: 0.5, Description: "Width at opt1 (µm)"},
				{Name: "wg_width2", Type: TypeDouble, Default: 3.0, Description: "Width at opt2 (µm)"},
				{Name: "wg_length", Type: TypeDouble, Default: 10.0, Description: "Taper length (µm)"},
				{Name: "silayer", Type: TypeLayer, Default: tech.LayerInfo{Layer: 1, Datatype: 0}, Description: "Waveguide layer"},
				{Name: "bezier", Type: TypeDouble, Default: 0.2, Description: "Bezier control point position (0..0.5)"},
			},
			Produce: taperBezier,
		},
		{
			Name:        "spiral_paperclip",
			Description: "Folded delay line with both ports on the west edge",
			Params: []Param{
				{Name: "waveguide_type", Type: TypeString, Default: "Strip TE 1550 nm, w=500 nm", Description: "Waveguide type"},
				{Name: "length", Type: TypeDouble, Default: 200.0, Description: "Target waveguide length (µm)"},
				{Name: "loops", Type: TypeInt, Default: 2, Description: "Number of loops"},
				{Name: "flatten", Type: TypeBool, Default: false, Description: "Draw the waveguide directly into the cell"},
			},
			Produce: spiralPaperclip,
		},
	},
}

const taperSamples = 64

// taperBezier draws a taper from (0,0) to (wg_length,0) whose half-width
// follows a cubic Bezier between the two end widths.
func taperBezier(c *layout.Cell, v Values) error {
	d := newDrawing(c)
	w1, w2, l := v.Float("wg_width1"), v.Float("wg_width2"), v.Float("wg_length")
	b := v.Float("bezier")
	if w1 <= 0 || w2 <= 0 || l <= 0 {
		return fmt.Errorf("widths and length must be positive, got w1=%g w2=%g length=%g", w1, w2, l)
	}
	if b < 0 || b > 0.5 {
		return fmt.Errorf("bezier must be in [0, 0.5], got %g", b)
	}

	top := geom.Bezier(
		r2.Vec{X: 0, Y: w1 / 2},
		r2.Vec{X: b * l, Y: w1 / 2},
		r2.Vec{X: (1 - b) * l, Y: w2 / 2},
		r2.Vec{X: l, Y: w2 / 2},
		taperSamples,
	)
	outline := append([]r2.Vec(nil), top...)
	for i := len(top) - 1; i >= 0; i-- {
		outline = append(outline, r2.Vec{X: top[i].X, Y: -top[i].Y})
	}
	d.polygon(v.Layer("silayer"), outline)

	d.pin("opt1", 0, 0, 180, w1)
	d.pin("opt2", l, 0, 0, w2)
	half := math.Max(w1, w2)/2 + 1
	c.SetDevRec(d.box(0, -half, l, half))
	return nil
}

// spiralPaperclip folds a waveguide of the requested length into a
// serpentine. optA starts the first row at the origin and optB ends the last
// row directly below it; both face west.
func spiralPaperclip(c *layout.Cell, v Values) error {
	ly := c.Layout()
	wg, err := ly.Tech.Waveguide(v.Str("waveguide_type"))
	if err != nil {
		return err
	}
	rows, rowLength, err := paperclipRows(v.Float("length"), v.Int("loops"), wg.Radius)
	if err != nil {
		return err
	}

	d := newDrawing(c)
	pitch := 2 * wg.Radius
	var corners []geom.Point
	for i := 0; i < rows; i++ {
		y := -pitch * float64(i)
		if i%2 == 0 {
			corners = append(corners, d.pt(0, y), d.pt(rowLength, y))
		} else {
			corners = append(corners, d.pt(rowLength, y), d.pt(0, y))
		}
	}

	if v.Bool("flatten") {
		if _, err := waveguide.Draw(c, wg, corners); err != nil {
			return err
		}
	} else {
		sub, _, err := waveguide.NewCell(ly, wg, corners)
		if err != nil {
			return err
		}
		c.Insert(sub, geom.Trans{})
		c.SetDevRec(sub.DevRec())
	}

	last := corners[len(corners)-1]
	d.pin("optA", 0, 0, 180, wg.Width)
	c.AddPin(layout.Pin{Name: "optB", Pos: last, Dir: 180, Width: d.um(wg.Width)})
	return nil
}

// paperclipRows picks the number of rows and their length so that the
// rounded serpentine has the target length. Rows are 2r apart; each of the
// 2(rows-1) bends shortens the Manhattan path by (2-π/2)r.
func paperclipRows(length float64, loops int, r float64) (int, float64, error) {
	if length <= 0 {
		return 0, 0, fmt.Errorf("length must be positive, got %g", length)
	}
	for n := 2 * max(loops, 1); n >= 2; n -= 2 {
		w := (length - float64(n-1)*r*(math.Pi-2)) / float64(n)
		minRow := 2 * r
		if n == 2 {
			minRow = r
		}
		if w >= minRow {
			return n, w, nil
		}
	}
	return 0, 0, fmt.Errorf("length %g µm is too short for bend radius %g µm", length, r)
}
