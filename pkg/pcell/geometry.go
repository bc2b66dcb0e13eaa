package pcell

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
)

// drawing wraps a cell with micrometre helpers for generators.
type drawing struct {
	c  *layout.Cell
	ly *layout.Layout
}

func newDrawing(c *layout.Cell) drawing { return drawing{c: c, ly: c.Layout()} }

func (d drawing) um(v float64) int64 { return d.ly.Microns(v) }

func (d drawing) pt(x, y float64) geom.Point { return geom.Pt(d.um(x), d.um(y)) }

func (d drawing) box(x1, y1, x2, y2 float64) geom.Box {
	return geom.NewBox(d.um(x1), d.um(y1), d.um(x2), d.um(y2))
}

func (d drawing) polygon(li tech.LayerInfo, vs []r2.Vec) {
	d.c.InsertPolygon(li, geom.Polygon{Points: geom.ToPoints(vs, d.ly.DBU)})
}

func (d drawing) pin(name string, x, y float64, dir int, width float64) {
	d.c.AddPin(layout.Pin{Name: name, Pos: d.pt(x, y), Dir: dir, Width: d.um(width)})
}
