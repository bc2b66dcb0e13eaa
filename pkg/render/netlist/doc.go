// Package netlist renders the optical connectivity of a cell as a
// node-link diagram.
//
// Every instance of the cell becomes a node and every pair of facing pins an
// edge labelled with the two pin names. The DOT source can be rendered with
// the embedded Graphviz library:
//
//	dot := netlist.ToDOT(top, netlist.Options{Detailed: true})
//	svg, err := netlist.RenderSVG(dot)
package netlist
