package pcell

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
)

// EBeamSiN is the silicon-nitride component library.
var EBeamSiN = &Library{
	Name:        "EBeam-SiN",
	Description: "Silicon nitride components for 1310 nm",
	Cells: []*Generator{
		{
			Name:        "ebeam_GC_SiN_TE_1310_8deg",
			Description: "Focusing grating coupler, TE 1310 nm, 8 degree fibre angle",
			Produce:     gratingCoupler,
		},
		{
			Name:        "ebeam_YBranch_te1310",
			Description: "1x2 Y-branch splitter, TE 1310 nm",
			Produce:     yBranch,
		},
	},
}

// Grating coupler geometry, µm.
const (
	gcTaperLength = 16.0
	gcHalfAngle   = 20.0 // degrees
	gcPeriod      = 0.95
	gcFillFactor  = 0.5
	gcTeeth       = 26
	gcEllipticity = 0.98 // minor/major axis ratio of the teeth
	gcPortWidth   = 0.75
	gcArcPoints   = 32
)

// gratingCoupler draws a focusing grating whose port opt1 sits at the
// origin pointing east. The grating fans out towards -x.
func gratingCoupler(c *layout.Cell, _ Values) error {
	d := newDrawing(c)
	li, err := d.ly.Layer("SiN")
	if err != nil {
		return err
	}
	a0 := (180 - gcHalfAngle) * math.Pi / 180
	a1 := (180 + gcHalfAngle) * math.Pi / 180

	taper := []r2.Vec{{X: 0, Y: gcPortWidth / 2}}
	taper = append(taper, ellipseArc(gcTaperLength, a0, a1)...)
	taper = append(taper, r2.Vec{X: 0, Y: -gcPortWidth / 2})
	d.polygon(li, taper)

	for k := 0; k < gcTeeth; k++ {
		inner := gcTaperLength + float64(k)*gcPeriod + (1-gcFillFactor)*gcPeriod
		outer := inner + gcFillFactor*gcPeriod
		tooth := ellipseArc(outer, a0, a1)
		tooth = append(tooth, ellipseArc(inner, a1, a0)...)
		d.polygon(li, tooth)
	}

	reach := gcTaperLength + gcTeeth*gcPeriod
	half := gcEllipticity*reach*math.Sin(gcHalfAngle*math.Pi/180) + 1
	d.pin("opt1", 0, 0, 0, gcPortWidth)
	c.AddPin(layout.Pin{
		Name: "fib1",
		Pos:  d.pt(-(gcTaperLength + gcTeeth*gcPeriod/2), 0),
		Kind: layout.PinFiber,
	})
	c.SetDevRec(d.box(-(reach + 1), -half, 0, half))
	return nil
}

func ellipseArc(r, a0, a1 float64) []r2.Vec {
	out := make([]r2.Vec, gcArcPoints+1)
	for i := range out {
		a := a0 + (a1-a0)*float64(i)/gcArcPoints
		out[i] = r2.Vec{X: r * math.Cos(a), Y: gcEllipticity * r * math.Sin(a)}
	}
	return out
}

// Y-branch geometry, µm.
const (
	ybLength     = 20.0
	ybWidth      = 0.8
	ybArmOffset  = 2.5
	ybBodyStart  = -6.0
	ybSplitAt    = -2.0
	ybArmGap     = 0.5
	ybArmSamples = 48
)

// yBranch draws a 1x2 splitter: opt1 faces west at (-10,0), opt2 and opt3
// face east at (10,±2.5).
func yBranch(c *layout.Cell, _ Values) error {
	d := newDrawing(c)
	li, err := d.ly.Layer("SiN")
	if err != nil {
		return err
	}
	x0, x1 := -ybLength/2, ybLength/2

	c.InsertBox(li, d.box(x0, -ybWidth/2, ybBodyStart, ybWidth/2))
	bodyHalf := ybArmGap + ybWidth/2
	d.polygon(li, []r2.Vec{
		{X: ybBodyStart, Y: -ybWidth / 2},
		{X: ybSplitAt, Y: -bodyHalf},
		{X: ybSplitAt, Y: bodyHalf},
		{X: ybBodyStart, Y: ybWidth / 2},
	})
	for _, sign := range []float64{1, -1} {
		d.polygon(li, sBend(ybSplitAt, sign*ybArmGap, x1, sign*ybArmOffset, ybWidth))
	}

	d.pin("opt1", x0, 0, 180, ybWidth)
	d.pin("opt2", x1, ybArmOffset, 0, ybWidth)
	d.pin("opt3", x1, -ybArmOffset, 0, ybWidth)
	c.SetDevRec(d.box(x0, -(ybArmOffset + 1.5), x1, ybArmOffset+1.5))
	return nil
}

// sBend returns the outline of a raised-cosine S-bend of constant width.
func sBend(x0, y0, x1, y1, width float64) []r2.Vec {
	spine := make([]r2.Vec, ybArmSamples+1)
	for i := range spine {
		t := float64(i) / ybArmSamples
		spine[i] = r2.Vec{
			X: x0 + (x1-x0)*t,
			Y: y0 + (y1-y0)*(1-math.Cos(math.Pi*t))/2,
		}
	}
	return geom.PathPolygon(spine, []float64{width})
}
