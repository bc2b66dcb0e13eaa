package layout

import (
	"maps"
	"slices"
	"sort"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/tech"
)

// Shapes holds the geometry a cell draws on one layer.
type Shapes struct {
	Boxes    []geom.Box
	Polygons []geom.Polygon
	Paths    []geom.Path
	Texts    []geom.Text
}

// Len returns the number of shapes.
func (s *Shapes) Len() int {
	return len(s.Boxes) + len(s.Polygons) + len(s.Paths) + len(s.Texts)
}

// BBox returns the bounding box of all shapes. Texts contribute their anchor.
func (s *Shapes) BBox() geom.Box {
	b := geom.EmptyBox()
	for _, x := range s.Boxes {
		b = b.Union(x)
	}
	for _, x := range s.Polygons {
		b = b.Union(x.BBox())
	}
	for _, x := range s.Paths {
		b = b.Union(x.BBox())
	}
	for _, x := range s.Texts {
		b = b.AddPoint(x.Position())
	}
	return b
}

// PCellRef records the parametrized cell a variant was generated from.
type PCellRef struct {
	Library string         `json:"library"`
	Name    string         `json:"name"`
	Params  map[string]any `json:"params,omitempty"`
}

// Cell is a named container of shapes, child instances and pins.
type Cell struct {
	Name string

	// Library is the library the cell was loaded from, empty for cells
	// created by the design itself.
	Library string

	// PCell is set for variants of parametrized cells.
	PCell *PCellRef

	// Props holds string properties, e.g. waveguide routing data.
	Props map[string]string

	Instances []*Instance
	Pins      []Pin

	layout *Layout
	shapes map[tech.LayerInfo]*Shapes
}

// Layout returns the layout owning the cell.
func (c *Cell) Layout() *Layout { return c.layout }

// Shapes returns the shape container for a layer, creating it on demand.
func (c *Cell) Shapes(li tech.LayerInfo) *Shapes {
	s, ok := c.shapes[li]
	if !ok {
		s = &Shapes{}
		c.shapes[li] = s
	}
	return s
}

// HasShapes reports whether the cell draws anything on li.
func (c *Cell) HasShapes(li tech.LayerInfo) bool {
	s, ok := c.shapes[li]
	return ok && s.Len() > 0
}

// Layers returns the layers the cell draws on, sorted by layer and datatype.
func (c *Cell) Layers() []tech.LayerInfo {
	var out []tech.LayerInfo
	for li, s := range c.shapes {
		if s.Len() > 0 {
			out = append(out, li)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Layer != out[j].Layer {
			return out[i].Layer < out[j].Layer
		}
		return out[i].Datatype < out[j].Datatype
	})
	return out
}

// InsertBox draws a box.
func (c *Cell) InsertBox(li tech.LayerInfo, b geom.Box) {
	s := c.Shapes(li)
	s.Boxes = append(s.Boxes, b)
}

// InsertPolygon draws a polygon.
func (c *Cell) InsertPolygon(li tech.LayerInfo, p geom.Polygon) {
	s := c.Shapes(li)
	s.Polygons = append(s.Polygons, p)
}

// InsertPath draws a path.
func (c *Cell) InsertPath(li tech.LayerInfo, p geom.Path) {
	s := c.Shapes(li)
	s.Paths = append(s.Paths, p)
}

// InsertText places a text annotation.
func (c *Cell) InsertText(li tech.LayerInfo, t geom.Text) {
	s := c.Shapes(li)
	s.Texts = append(s.Texts, t)
}

// Insert places an instance of child with transformation t.
func (c *Cell) Insert(child *Cell, t geom.Trans) *Instance {
	inst := &Instance{Cell: child, Trans: t, parent: c}
	c.Instances = append(c.Instances, inst)
	return inst
}

// RemoveInstance deletes an instance from the cell.
func (c *Cell) RemoveInstance(inst *Instance) {
	c.Instances = slices.DeleteFunc(c.Instances, func(x *Instance) bool { return x == inst })
}

// SetProp sets a string property.
func (c *Cell) SetProp(key, value string) {
	if c.Props == nil {
		c.Props = make(map[string]string)
	}
	c.Props[key] = value
}

// PropKeys returns the property keys in sorted order.
func (c *Cell) PropKeys() []string {
	return slices.Sorted(maps.Keys(c.Props))
}

// LocalBBox returns the bounding box of the cell's own shapes.
func (c *Cell) LocalBBox() geom.Box {
	b := geom.EmptyBox()
	for _, s := range c.shapes {
		b = b.Union(s.BBox())
	}
	return b
}

// BBox returns the bounding box including all child instances.
func (c *Cell) BBox() geom.Box {
	b := c.LocalBBox()
	for _, inst := range c.Instances {
		b = b.Union(inst.BBox())
	}
	return b
}

// LayerBBox returns the hierarchical bounding box of shapes on one layer.
func (c *Cell) LayerBBox(li tech.LayerInfo) geom.Box {
	b := geom.EmptyBox()
	c.Walk(func(x *Cell, t geom.Trans) {
		if s, ok := x.shapes[li]; ok {
			b = b.Union(t.ApplyBox(s.BBox()))
		}
	})
	return b
}

// DevRec returns the device outline drawn on the DevRec layer, in local
// coordinates, or the full bounding box if the cell has none.
func (c *Cell) DevRec() geom.Box {
	li := c.layout.Tech.MustLayer(tech.LayerDevRec)
	if s, ok := c.shapes[li]; ok && s.Len() > 0 {
		return s.BBox()
	}
	return c.BBox()
}

// Walk calls fn for c and every cell below it with the accumulated
// transformation from that cell into c's coordinates.
func (c *Cell) Walk(fn func(cell *Cell, t geom.Trans)) {
	c.walk(geom.Trans{}, fn)
}

func (c *Cell) walk(t geom.Trans, fn func(*Cell, geom.Trans)) {
	fn(c, t)
	for _, inst := range c.Instances {
		inst.Cell.walk(t.Compose(inst.Trans), fn)
	}
}

// ChildCells returns the distinct cells instantiated directly by c.
func (c *Cell) ChildCells() []*Cell {
	seen := make(map[*Cell]bool)
	var out []*Cell
	for _, inst := range c.Instances {
		if !seen[inst.Cell] {
			seen[inst.Cell] = true
			out = append(out, inst.Cell)
		}
	}
	return out
}

// Texts returns every text on a layer, hierarchically, in c's coordinates.
func (c *Cell) Texts(li tech.LayerInfo) []geom.Text {
	var out []geom.Text
	c.Walk(func(x *Cell, t geom.Trans) {
		s, ok := x.shapes[li]
		if !ok {
			return
		}
		for _, txt := range s.Texts {
			out = append(out, txt.Transformed(t))
		}
	})
	return out
}

// Flatten copies the geometry of all child instances into c and removes the
// instances. Pins of the children are dropped; c keeps its own pins.
func (c *Cell) Flatten() {
	for _, inst := range c.Instances {
		inst.Cell.Walk(func(x *Cell, t geom.Trans) {
			full := inst.Trans.Compose(t)
			for li, s := range x.shapes {
				dst := c.Shapes(li)
				for _, b := range s.Boxes {
					dst.Polygons = append(dst.Polygons, geom.BoxPolygon(b).Transformed(full))
				}
				for _, p := range s.Polygons {
					dst.Polygons = append(dst.Polygons, p.Transformed(full))
				}
				for _, p := range s.Paths {
					dst.Paths = append(dst.Paths, p.Transformed(full))
				}
				for _, txt := range s.Texts {
					dst.Texts = append(dst.Texts, txt.Transformed(full))
				}
			}
		})
	}
	c.Instances = nil
}

// Pin returns a pin of the cell itself in local coordinates.
func (c *Cell) Pin(name string) (Pin, error) {
	for _, p := range c.Pins {
		if p.Name == name {
			return p, nil
		}
	}
	return Pin{}, errors.New(errors.ErrCodePinNotFound, "cell %s has no pin %q", c.Name, name)
}
