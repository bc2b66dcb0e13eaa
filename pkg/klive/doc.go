// Package klive hands finished layouts to a running KLayout instance.
//
// The KLayout live-view server listens on a local TCP port (8082 by
// default) and accepts one JSON object per line naming the file to open,
// the technology, and optionally a report database to show next to it:
//
//	c := klive.New("")
//	reply, err := c.Show(ctx, klive.Request{GDS: "mzi.gds", Lyrdb: "mzi.lyrdb", Technology: "EBeam"})
//
// A viewer that is not running yields an error with code
// VIEWER_UNAVAILABLE; callers treat it as a warning.
package klive
