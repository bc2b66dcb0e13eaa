// Package verify checks a finished layout for the mistakes that make a
// photonic test structure unusable: unconnected or mismatched pins,
// overlapping components, bends tighter than the waveguide allows,
// geometry outside the floor plan, and malformed or misplaced opt_in labels
// and fibre-array couplers.
//
// [Check] never fails; it returns a [Report] whose items can be written as a
// KLayout report database (lyrdb) with [Report.WriteLyrdb]:
//
//	rep := verify.Check(top, verify.Options{})
//	fmt.Printf("Number of errors: %d\n", rep.ErrorCount())
//	err := rep.WriteLyrdb("EBeam_Alice_MZI.lyrdb")
package verify
