// Package layout is the in-memory layout database: cells holding shapes per
// layer, placed instances of other cells, and named optical pins.
//
// # Structure
//
// A [Layout] owns every [Cell] by unique name. A cell draws shapes on layers
// identified by [tech.LayerInfo] and places child cells through [Instance]
// values, each carrying a [geom.Trans]. Cells without a parent are top cells.
//
//	ly := layout.New(tech.Default())
//	top := ly.CreateCell("EBeam_Designer_MZI")
//	layout.Floorplan(top, 605000, 410000)
//	inst := top.Insert(gc, geom.NewTrans(geom.R0, 60000, 16000))
//	pin, err := inst.Pin("opt1")
//
// # Pins
//
// Pins are declared on the cell that owns them with [Cell.AddPin]. Besides the
// in-memory record, a pin is drawn on the PinRec layer as a two-point path
// across the port plus a text with the pin name, so that [RecoverPins] can
// rebuild it after the layout has been written to and read from a file.
//
// [tech.LayerInfo]: github.com/matzehuels/picforge/pkg/tech#LayerInfo
// [geom.Trans]: github.com/matzehuels/picforge/pkg/geom#Trans
package layout
