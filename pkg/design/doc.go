// Package design builds the Mach-Zehnder interferometer test structure.
//
// [Build] assembles the layout in the order a designer would script it:
// check the layout engine version, create the top cell and floor plan,
// instantiate the grating couplers, tapers and Y-branches from the EBeam
// libraries, chain them pin to pin, and route the two interferometer arms.
// An optional third interferometer adds a paperclip delay line.
//
//	cfg := design.DefaultConfig("Alice")
//	d, err := design.Build(cfg, design.Options{})
//	// d.Top is EBeam_Alice_MZI
//
// Every dimension of the structure lives in [Config], which can be
// overridden from a TOML file with [LoadConfig].
package design
