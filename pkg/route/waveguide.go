package route

import (
	"math"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

// Options configures a waveguide route.
type Options struct {
	// WaveguideType names a waveguide preset of the layout's technology.
	// Empty selects the technology's first preset.
	WaveguideType string

	// TurtleA and TurtleB are walked away from pin A and pin B before the
	// two ends are joined.
	TurtleA []float64
	TurtleB []float64
}

// ConnectPinsWithWaveguide routes a waveguide from pin pinA of instA to pin
// pinB of instB and inserts it into parent. It returns the waveguide
// instance and the waveguide's centre-line length in µm.
func ConnectPinsWithWaveguide(parent *layout.Cell, instA *layout.Instance, pinA string, instB *layout.Instance, pinB string, opts Options) (*layout.Instance, float64, error) {
	ly := parent.Layout()
	for _, inst := range []*layout.Instance{instA, instB} {
		if inst.Parent() != parent {
			return nil, 0, errors.New(errors.ErrCodeInvalidInput, "instance of %s is not placed in %s", inst.Cell.Name, parent.Name)
		}
	}
	typ := opts.WaveguideType
	if typ == "" {
		names := ly.Tech.WaveguideNames()
		if len(names) == 0 {
			return nil, 0, errors.New(errors.ErrCodeWaveguideNotFound, "technology %s defines no waveguide types", ly.Tech.Name)
		}
		typ = names[0]
	}
	wg, err := ly.Tech.Waveguide(typ)
	if err != nil {
		return nil, 0, err
	}
	pa, err := instA.Pin(pinA)
	if err != nil {
		return nil, 0, err
	}
	pb, err := instB.Pin(pinB)
	if err != nil {
		return nil, 0, err
	}

	corners, err := Corners(ly, pa, pb, opts.TurtleA, opts.TurtleB, ly.Microns(2*wg.Radius))
	if err != nil {
		return nil, 0, err
	}
	cell, info, err := waveguide.NewCell(ly, wg, corners)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeRouteFailed, err, "%s.%s -> %s.%s", instA.Cell.Name, pinA, instB.Cell.Name, pinB)
	}
	return parent.Insert(cell, geom.Trans{}), info.Length, nil
}

// Corners computes the Manhattan corner points of a route from pin a to
// pin b. lead is the minimum straight run, in dbu, used when the route has
// to turn back on itself.
func Corners(ly *layout.Layout, a, b layout.Pin, turtleA, turtleB []float64, lead int64) ([]geom.Point, error) {
	ptsA, headA, err := walk(ly, a, turtleA)
	if err != nil {
		return nil, err
	}
	ptsB, headB, err := walk(ly, b, turtleB)
	if err != nil {
		return nil, err
	}
	mid, err := join(ptsA[len(ptsA)-1], geom.Direction(headA), ptsB[len(ptsB)-1], geom.Direction(headB).Neg(), lead)
	if err != nil {
		return nil, err
	}
	out := append(ptsA, mid...)
	for i := len(ptsB) - 1; i >= 0; i-- {
		out = append(out, ptsB[i])
	}
	return waveguide.SimplifyPoints(out), nil
}

// walk follows a turtle from a pin and returns the visited points and the
// final heading.
func walk(ly *layout.Layout, p layout.Pin, turtle []float64) ([]geom.Point, int, error) {
	pts := []geom.Point{p.Pos}
	pos, heading := p.Pos, p.Dir
	for i := 0; i < len(turtle); i += 2 {
		d := turtle[i]
		if d < 0 {
			return nil, 0, errors.New(errors.ErrCodeInvalidParameter, "turtle distance %g must not be negative", d)
		}
		pos = pos.Add(geom.Direction(heading).Scale(ly.Microns(d)))
		pts = append(pts, pos)
		if i+1 == len(turtle) {
			break
		}
		turn := turtle[i+1]
		if turn != math.Trunc(turn) || int(turn)%90 != 0 {
			return nil, 0, errors.New(errors.ErrCodeInvalidParameter, "turtle turn %g is not a multiple of 90 degrees", turn)
		}
		heading = geom.NormAngle(heading + int(turn))
	}
	return pts, heading, nil
}

// join returns the interior corners of a Manhattan path that leaves s
// heading ds and arrives at e heading de.
func join(s, ds, e, de geom.Point, lead int64) ([]geom.Point, error) {
	perp := geom.Pt(-ds.Y, ds.X)
	rel := e.Sub(s)
	a := rel.Dot(ds)
	b := rel.Dot(perp)
	at := func(along, across int64) geom.Point {
		return s.Add(ds.Scale(along)).Add(perp.Scale(across))
	}

	switch {
	case de == ds:
		if b == 0 && a > 0 {
			return nil, nil
		}
		if a > 0 {
			return []geom.Point{at(a/2, 0), at(a/2, b)}, nil
		}
		m := b / 2
		if m == 0 {
			m = 2 * lead
		}
		return []geom.Point{at(lead, 0), at(lead, m), at(a-lead, m), at(a-lead, b)}, nil

	case de == ds.Neg():
		if b == 0 {
			return nil, errors.New(errors.ErrCodeRouteFailed, "cannot route back onto the same axis from %v to %v", s, e)
		}
		t := max(a, 0) + lead
		return []geom.Point{at(t, 0), at(t, b)}, nil

	default:
		c := rel.Dot(de)
		across := func(along, d int64) geom.Point { return s.Add(ds.Scale(along)).Add(de.Scale(d)) }
		switch {
		case a > 0 && c > 0:
			return []geom.Point{at(a, 0)}, nil
		case c > 0:
			return []geom.Point{at(lead, 0), across(lead, c/2), across(a, c/2)}, nil
		default:
			f := lead
			if a > 0 {
				f = a + lead
			}
			return []geom.Point{at(f, 0), across(f, c-lead), across(a, c-lead)}, nil
		}
	}
}
