// Package gds reads and writes GDSII stream files.
//
// Only the subset needed for photonic layouts is supported: boundaries,
// paths, texts and structure references without arrays. Rectangular
// boundaries are read back as boxes.
//
// Library-cell context (library name, PCell name and parameters, and cell
// properties) has no place in plain GDSII. [Write] stores it as properties on
// references inside a structure named [ContextCell], and [Read] restores it
// and removes that structure again. Pins are rebuilt from their PinRec
// markers on read.
package gds
