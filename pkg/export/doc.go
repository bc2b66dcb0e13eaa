// Package export writes finished layouts to disk.
//
// # Export Types
//
// A layout is exported in one of two ways:
//
//   - [TypeStatic]: parametrized cell variants are converted into plain cells
//     and cells not reachable from the top cell are dropped. This is the
//     hand-off format for fabrication.
//   - [TypePCell]: PCell context (library, cell name and parameters) is kept
//     so that the file can be re-opened with live parametrized cells.
//
// # Output Files
//
// [Export] writes <Dir>/<RelativePath>/<Name>.gds and, on request, a PNG
// screenshot and a JSON netlist next to it:
//
//	res, err := export.Export(top, export.Options{
//	    Dir:          "out",
//	    RelativePath: "..",
//	    Name:         "EBeam_Alice_MZI",
//	    Type:         export.TypeStatic,
//	    Screenshot:   true,
//	})
//
// # Netlist JSON
//
// [WriteJSON] describes the instances of a cell, their pins, the pin-to-pin
// connections and the routed waveguides:
//
//	{
//	  "top": "EBeam_Alice_MZI",
//	  "instances": [{"id": "i0", "cell": "ebeam_GC_SiN_TE_1310_8deg", ...}],
//	  "connections": [{"from": "i0", "from_pin": "opt1", "to": "i2", "to_pin": "opt1"}]
//	}
//
// [ReadJSON] decodes the same format.
package export
