package layout

import (
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/tech"
)

// PinKind distinguishes waveguide ports from fibre coupling points.
type PinKind int

const (
	PinOptical PinKind = iota // waveguide port
	PinFiber                  // fibre coupling position of a grating coupler
)

// String returns "optical" or "fiber".
func (k PinKind) String() string {
	if k == PinFiber {
		return "fiber"
	}
	return "optical"
}

// pinHalfLength is half the length of the PinRec marker path, in dbu.
const pinHalfLength = 10

// fiberMarker is half the edge of the PinRec box marking a fibre pin, in dbu.
const fiberMarker = 1500

// Pin is a named connection point. Dir is the outward direction in degrees.
type Pin struct {
	Name  string     `json:"name"`
	Pos   geom.Point `json:"pos"`
	Dir   int        `json:"dir"`
	Width int64      `json:"width"`
	Kind  PinKind    `json:"kind"`
}

// Transformed maps the pin through t.
func (p Pin) Transformed(t geom.Trans) Pin {
	p.Pos = t.Apply(p.Pos)
	p.Dir = t.ApplyAngle(p.Dir)
	return p
}

// Facing reports whether two pins sit at the same point and point at each
// other, i.e. they are connected.
func (p Pin) Facing(q Pin) bool {
	return p.Pos == q.Pos && geom.NormAngle(p.Dir-q.Dir) == 180
}

// AddPin declares a pin on the cell and draws its PinRec marker.
func (c *Cell) AddPin(p Pin) {
	p.Dir = geom.NormAngle(p.Dir)
	c.Pins = append(c.Pins, p)

	li := c.layout.Tech.MustLayer(tech.LayerPinRec)
	if p.Kind == PinFiber {
		c.InsertBox(li, geom.NewBox(p.Pos.X-fiberMarker, p.Pos.Y-fiberMarker, p.Pos.X+fiberMarker, p.Pos.Y+fiberMarker))
	} else {
		d := geom.Direction(p.Dir).Scale(pinHalfLength)
		c.InsertPath(li, geom.Path{Points: []geom.Point{p.Pos.Sub(d), p.Pos.Add(d)}, Width: p.Width})
	}
	c.InsertText(li, geom.Text{String: p.Name, Trans: geom.Translate(p.Pos.X, p.Pos.Y)})
}

// SetDevRec draws the device outline used for overlap checks.
func (c *Cell) SetDevRec(b geom.Box) {
	c.InsertBox(c.layout.Tech.MustLayer(tech.LayerDevRec), b)
}

// RecoverPins rebuilds c.Pins from the PinRec markers drawn by AddPin.
// It returns the number of pins found. Existing pins are replaced.
func RecoverPins(c *Cell) int {
	li := c.layout.Tech.MustLayer(tech.LayerPinRec)
	s, ok := c.shapes[li]
	if !ok {
		return 0
	}
	names := make(map[geom.Point]string, len(s.Texts))
	for _, t := range s.Texts {
		names[t.Position()] = t.String
	}

	var pins []Pin
	for _, path := range s.Paths {
		if len(path.Points) != 2 {
			continue
		}
		a, b := path.Points[0], path.Points[1]
		dir, ok := geom.AngleOf(b.Sub(a))
		if !ok {
			continue
		}
		pos := geom.Pt((a.X+b.X)/2, (a.Y+b.Y)/2)
		name, ok := names[pos]
		if !ok {
			continue
		}
		pins = append(pins, Pin{Name: name, Pos: pos, Dir: dir, Width: path.Width})
	}
	for _, b := range s.Boxes {
		pos := b.Center()
		if name, ok := names[pos]; ok {
			pins = append(pins, Pin{Name: name, Pos: pos, Kind: PinFiber})
		}
	}
	c.Pins = pins
	return len(pins)
}

// Floorplan draws the design area rectangle from the origin to (w, h).
func Floorplan(c *Cell, w, h int64) error {
	li, err := c.layout.Layer(tech.LayerFloorPlan)
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "floor plan must have positive size, got %dx%d", w, h)
	}
	c.InsertBox(li, geom.NewBox(0, 0, w, h))
	return nil
}

// FloorplanBox returns the floor-plan rectangle of a cell, or an empty box.
func FloorplanBox(c *Cell) geom.Box {
	li := c.layout.Tech.MustLayer(tech.LayerFloorPlan)
	if s, ok := c.shapes[li]; ok {
		return s.BBox()
	}
	return geom.EmptyBox()
}
