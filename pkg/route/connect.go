package route

import (
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
)

// ConnectCell inserts cellB into parent so that its pin pinB sits on pin
// pinA of instA and faces it. The new instance is rotated as needed but
// never mirrored.
func ConnectCell(parent *layout.Cell, instA *layout.Instance, pinA string, cellB *layout.Cell, pinB string) (*layout.Instance, error) {
	if instA.Parent() != parent {
		return nil, errors.New(errors.ErrCodeInvalidInput, "instance of %s is not placed in %s", instA.Cell.Name, parent.Name)
	}
	pa, err := instA.Pin(pinA)
	if err != nil {
		return nil, err
	}
	pb, err := cellB.Pin(pinB)
	if err != nil {
		return nil, err
	}
	return parent.Insert(cellB, snap(pa, pb)), nil
}

// snap returns the transformation that puts local pin pb onto pa, facing it.
func snap(pa, pb layout.Pin) geom.Trans {
	t := geom.Trans{Rot: geom.NormAngle(pa.Dir+180-pb.Dir) / 90}
	t.Disp = pa.Pos.Sub(t.Apply(pb.Pos))
	return t
}
