// Package render draws layout previews.
//
// # Overview
//
// [RenderSVG] draws a cell and everything below it as an SVG image, one
// group per layer coloured from the technology, with the view box fitted to
// the cell's bounding box ("zoom to fit"). [RenderPNG] and [RenderPDF]
// convert that SVG with the external rsvg-convert tool:
//
//	svg := render.RenderSVG(top, render.WithWidth(1600))
//	png, err := render.RenderPNG(top, render.WithScale(2))
//
// # Connectivity Diagrams
//
// The [netlist] subpackage renders the instance connectivity of a cell as a
// Graphviz diagram.
//
// [netlist]: github.com/matzehuels/picforge/pkg/render/netlist
package render
