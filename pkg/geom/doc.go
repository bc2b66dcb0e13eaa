// Package geom provides integer database-unit geometry for photonic layouts.
//
// All layout coordinates are stored as int64 database units (dbu). With the
// EBeam technology one dbu is 1 nm, so a 127 µm fibre pitch is 127000 dbu.
//
// # Transformations
//
// [Trans] implements the eight orthogonal transformations of a layout editor:
// rotations R0, R90, R180 and R270 and the mirrored variants M0, M45, M90 and
// M135, followed by a displacement. A mirrored transformation flips at the
// x-axis first and then rotates.
//
//	t := geom.NewTrans(geom.R90, 60000, 16000)
//	p := t.Apply(geom.Point{X: 1000})  // (60000, 17000)
//
// # Curves
//
// PCell generators work in micrometres with gonum [r2.Vec] values and convert
// to dbu at the end with [ToPoints]. [PathPolygon] turns a spine with a
// (possibly varying) width into a closed outline.
//
// [r2.Vec]: https://pkg.go.dev/gonum.org/v1/gonum/spatial/r2#Vec
package geom
