package verify

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

// DefaultPitch is the fibre-array pitch in µm.
const DefaultPitch = 127.0

// radiusTolerance absorbs the rounding of stored radii, in µm.
const radiusTolerance = 1e-3

// labelMarker is half the edge of the marker box drawn around a label, in dbu.
const labelMarker = 500

// optInPattern matches opt_in_<TE|TM>_<wavelength nm>_device_<name>.
var optInPattern = regexp.MustCompile(`^opt_in_(TE|TM)_(\d{3,4})_device_([A-Za-z0-9][A-Za-z0-9_\-]*)$`)

// Options configures Check.
type Options struct {
	// Pitch is the fibre-array pitch in µm. Defaults to DefaultPitch.
	Pitch float64

	// Generator is recorded in the report. Defaults to "picforge verify".
	Generator string
}

// Check verifies the direct instances of top and returns the report.
func Check(top *layout.Cell, opts Options) *Report {
	if opts.Pitch <= 0 {
		opts.Pitch = DefaultPitch
	}
	if opts.Generator == "" {
		opts.Generator = "picforge verify"
	}
	ly := top.Layout()
	r := &Report{
		Top:        top.Name,
		DBU:        ly.DBU,
		Generator:  opts.Generator,
		Categories: AllCategories,
	}

	conns := top.Connections()
	checkPins(r, top, conns)
	checkOverlap(r, top)
	checkBends(r, top)
	checkFloorplan(r, top)
	gcs := checkLabels(r, top)
	checkCouplers(r, top, conns, gcs, ly.Microns(opts.Pitch))
	return r
}

// OptIn parses an opt_in label into polarization, wavelength and device.
func OptIn(label string) (pol, wavelength, device string, ok bool) {
	m := optInPattern.FindStringSubmatch(label)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// IsCoupler reports whether a cell is a grating coupler, i.e. has a fibre pin.
func IsCoupler(c *layout.Cell) bool {
	for _, p := range c.Pins {
		if p.Kind == layout.PinFiber {
			return true
		}
	}
	return false
}

func pinBox(p layout.Pin) geom.Box {
	h := max(p.Width/2, 1)
	return geom.NewBox(p.Pos.X-h, p.Pos.Y-h, p.Pos.X+h, p.Pos.Y+h)
}

func checkPins(r *Report, top *layout.Cell, conns []layout.Connection) {
	for _, u := range top.Unconnected() {
		r.add(CatDisconnected, u.A.Cell.Name, pinBox(u.PinA),
			"pin %s of %s at %s is not connected", u.PinA.Name, u.A.Cell.Name, u.PinA.Pos)
	}
	for _, c := range conns {
		if c.PinA.Width != c.PinB.Width {
			r.add(CatWidthMismatch, c.A.Cell.Name, pinBox(c.PinA),
				"%s.%s (%d) meets %s.%s (%d)",
				c.A.Cell.Name, c.PinA.Name, c.PinA.Width, c.B.Cell.Name, c.PinB.Name, c.PinB.Width)
		}
	}
}

// checkOverlap compares component outlines pairwise. Waveguides are skipped:
// their DevRec is a path whose bounding box says nothing about overlap.
func checkOverlap(r *Report, top *layout.Cell) {
	var comps []*layout.Instance
	for _, inst := range top.Instances {
		if !waveguide.IsWaveguide(inst.Cell) && !inst.Cell.DevRec().IsEmpty() {
			comps = append(comps, inst)
		}
	}
	for i := range comps {
		for j := i + 1; j < len(comps); j++ {
			a, b := comps[i].DevRec(), comps[j].DevRec()
			if a.Overlaps(b) {
				r.add(CatOverlap, comps[i].Cell.Name, a.Intersection(b),
					"%s overlaps %s", comps[i].Cell.Name, comps[j].Cell.Name)
			}
		}
	}
}

func checkBends(r *Report, top *layout.Cell) {
	t := top.Layout().Tech
	for _, inst := range top.Instances {
		info, ok := waveguide.InfoOf(inst.Cell)
		if !ok || len(info.Corners) < 3 {
			continue
		}
		wg, err := t.Waveguide(info.Type)
		if err != nil {
			continue
		}
		if info.Radius < wg.Radius-radiusTolerance {
			r.add(CatBendRadius, inst.Cell.Name, inst.BBox(),
				"bend radius %.3f µm is below the minimum %.3f µm of %q", info.Radius, wg.Radius, wg.Name)
		}
	}
}

func checkFloorplan(r *Report, top *layout.Cell) {
	fp := layout.FloorplanBox(top)
	if fp.IsEmpty() {
		return
	}
	for _, inst := range top.Instances {
		if b := inst.BBox(); !fp.ContainsBox(b) {
			r.add(CatFloorplan, inst.Cell.Name, b, "%s extends beyond the floor plan %s", inst.Cell.Name, fp)
		}
	}
}

// checkLabels validates the opt_in labels and returns the couplers that
// carry one.
func checkLabels(r *Report, top *layout.Cell) []*layout.Instance {
	li := top.Layout().Tech.MustLayer(tech.LayerText)
	seen := make(map[string]bool)
	var labelled []*layout.Instance
	for _, txt := range top.Texts(li) {
		pos := txt.Position()
		marker := geom.NewBox(pos.X-labelMarker, pos.Y-labelMarker, pos.X+labelMarker, pos.Y+labelMarker)
		if !strings.HasPrefix(txt.String, "opt_in") {
			continue
		}
		if _, _, _, ok := OptIn(txt.String); !ok {
			r.add(CatOptInFormat, top.Name, marker, "malformed label %q", txt.String)
		}
		if seen[txt.String] {
			r.add(CatOptInDuplicate, top.Name, marker, "label %q appears more than once", txt.String)
		}
		seen[txt.String] = true

		gc := couplerAt(top, pos)
		if gc == nil {
			r.add(CatOptInPlacement, top.Name, marker, "label %q at %s is not on a grating coupler", txt.String, pos)
			continue
		}
		labelled = append(labelled, gc)
	}
	return labelled
}

// couplerAt returns the coupler whose origin is at p, or else whose outline
// contains p.
func couplerAt(top *layout.Cell, p geom.Point) *layout.Instance {
	var inside *layout.Instance
	for _, inst := range top.Instances {
		if !IsCoupler(inst.Cell) {
			continue
		}
		if inst.Trans.Disp == p {
			return inst
		}
		if inside == nil && inst.DevRec().Contains(p) {
			inside = inst
		}
	}
	return inside
}

// checkCouplers finds the couplers optically connected to each labelled
// coupler and checks that they share one column, one orientation and the
// fibre-array pitch.
func checkCouplers(r *Report, top *layout.Cell, conns []layout.Connection, labelled []*layout.Instance, pitch int64) {
	adj := make(map[*layout.Instance][]*layout.Instance)
	for _, c := range conns {
		adj[c.A] = append(adj[c.A], c.B)
		adj[c.B] = append(adj[c.B], c.A)
	}
	done := make(map[*layout.Instance]bool)
	for _, start := range labelled {
		if done[start] {
			continue
		}
		var gcs []*layout.Instance
		visited := map[*layout.Instance]bool{start: true}
		queue := []*layout.Instance{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if IsCoupler(cur.Cell) {
				gcs = append(gcs, cur)
				done[cur] = true
			}
			for _, n := range adj[cur] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		checkCircuit(r, gcs, pitch)
	}
}

func checkCircuit(r *Report, gcs []*layout.Instance, pitch int64) {
	if len(gcs) < 2 {
		return
	}
	sort.Slice(gcs, func(i, j int) bool {
		pi, pj := gcs[i].Trans.Disp, gcs[j].Trans.Disp
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})
	ref := gcs[0]
	for i := 1; i < len(gcs); i++ {
		gc := gcs[i]
		if gc.Trans.Orientation() != ref.Trans.Orientation() {
			r.add(CatGCOrientation, gc.Cell.Name, gc.BBox(),
				"coupler at %s is %s, expected %s", gc.Trans.Disp, gc.Trans.Orientation(), ref.Trans.Orientation())
		}
		prev, cur := gcs[i-1].Trans.Disp, gc.Trans.Disp
		dy := cur.Y - prev.Y
		if cur.X != ref.Trans.Disp.X || dy != pitch {
			r.add(CatGCPitch, gc.Cell.Name, geom.BoxOf(prev, cur),
				"coupler at %s is %.3f µm from %s, expected %.3f µm in the same column",
				cur, math.Hypot(float64(cur.X-prev.X), float64(dy))*r.DBU, prev, float64(pitch)*r.DBU)
		}
	}
}
