// Package pkg provides the libraries behind picforge, a layout generator for
// photonic Mach-Zehnder interferometer test structures.
//
// # Overview
//
// picforge builds an MZI for the EBeam silicon nitride process: two grating
// couplers on the fibre-array pitch, two Y-branches and two waveguide arms of
// different length, labelled for automated measurement. The pkg directory is
// organized into four main areas:
//
//  1. Geometry - [geom], [layout], [tech]
//  2. Components - [pcell], [waveguide], [route]
//  3. Design - [design], [verify]
//  4. Output - [gds], [export], [render], [klive], [pipeline]
//
// # Architecture
//
// The typical data flow:
//
//	design.Config (defaults, --config design.toml)
//	         ↓
//	    [design] package (place library cells, route waveguides)
//	         ↓
//	    [export] package (static cells, GDS stream via [gds])
//	         ↓
//	    [verify] package (connectivity and submission rules, .lyrdb)
//	         ↓
//	    [klive] package (open GDS and report in KLayout)
//
// # Quick Start
//
//	d, err := design.Build(design.DefaultConfig("Alice"), design.Options{
//	    Engine: buildinfo.EngineVersion,
//	    Tech:   tech.Default(),
//	})
//	if err != nil {
//	    return err
//	}
//	files, err := export.Export(d.Top, export.Options{Dir: "scripts", RelativePath: ".."})
//	rep := verify.Check(d.Top, verify.Options{})
//	fmt.Printf("Number of errors: %d\n", rep.ErrorCount())
//
// [pipeline] runs the same steps with caching and is what the CLI and the
// HTTP API use.
//
// # Main Packages
//
// [geom] - Integer database-unit points, boxes, paths and the eight simple
// orientations.
//
// [layout] - Cells, instances, shapes, pins and connectivity. Pins are
// recovered from PinRec shapes when a layout is read back.
//
// [tech] - Layers and waveguide types of a technology, with the EBeam
// technology embedded.
//
// [pcell] - Library cells (grating coupler, Y-branch, Bezier taper, paperclip
// spiral) and parameter handling.
//
// [route] - Snapping cells to pins and routing waveguides between pins.
//
// [cache] - File, Redis and null caches for exported streams.
//
// [observability] - Hooks for metrics and tracing.
//
// # Testing
//
//	go test ./pkg/...
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/geom
// [layout]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/layout
// [tech]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/tech
// [pcell]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/pcell
// [waveguide]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/waveguide
// [route]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/route
// [design]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/design
// [verify]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/verify
// [gds]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/gds
// [export]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/export
// [render]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/render
// [klive]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/klive
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/picforge/pkg/observability
package pkg
