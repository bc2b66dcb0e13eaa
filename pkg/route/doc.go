// Package route places cells by their pins and connects pins with routed
// waveguides.
//
// [ConnectCell] snaps a new instance onto an existing pin, so chains of
// components can be assembled without computing coordinates by hand.
// [ConnectPinsWithWaveguide] draws a Manhattan waveguide between two
// instance pins:
//
//	inst, length, err := route.ConnectPinsWithWaveguide(top, y1, "opt2", y2, "opt3", route.Options{
//	    WaveguideType: "SiN Strip TE 1310 nm, w=800 nm",
//	    TurtleB:       []float64{60, -90},
//	})
//
// Turtles are [distance µm, turn degrees] pairs walked away from a pin
// before the automatic part of the route takes over; +90 turns left and -90
// turns right. The two turtle tips are joined with as few corners as
// possible, and all corners are rounded by the waveguide package.
package route
