package layout

import (
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
)

// Instance is a placed reference to a cell.
type Instance struct {
	Cell  *Cell
	Trans geom.Trans

	parent *Cell
}

// Parent returns the cell containing the instance.
func (i *Instance) Parent() *Cell { return i.parent }

// BBox returns the instance's bounding box in parent coordinates.
func (i *Instance) BBox() geom.Box { return i.Trans.ApplyBox(i.Cell.BBox()) }

// DevRec returns the device outline in parent coordinates.
func (i *Instance) DevRec() geom.Box { return i.Trans.ApplyBox(i.Cell.DevRec()) }

// Transform applies t on top of the current placement.
func (i *Instance) Transform(t geom.Trans) { i.Trans = t.Compose(i.Trans) }

// Pin returns the named pin in parent coordinates.
func (i *Instance) Pin(name string) (Pin, error) {
	p, err := i.Cell.Pin(name)
	if err != nil {
		return Pin{}, errors.Wrap(errors.ErrCodePinNotFound, err, "instance of %s", i.Cell.Name)
	}
	return p.Transformed(i.Trans), nil
}

// Pins returns all pins in parent coordinates.
func (i *Instance) Pins() []Pin {
	out := make([]Pin, len(i.Cell.Pins))
	for k, p := range i.Cell.Pins {
		out[k] = p.Transformed(i.Trans)
	}
	return out
}
