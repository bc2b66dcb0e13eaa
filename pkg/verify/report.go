package verify

import (
	"fmt"
	"sort"

	"github.com/matzehuels/picforge/pkg/geom"
)

// Category identifies a kind of verification error.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Categories in report order.
var (
	CatDisconnected   = Category{"disconnected_pin", "Optical pin is not connected"}
	CatWidthMismatch  = Category{"pin_width_mismatch", "Connected pins have different widths"}
	CatOverlap        = Category{"component_overlap", "Component outlines (DevRec) overlap"}
	CatBendRadius     = Category{"bend_radius", "Waveguide bend radius below the type minimum"}
	CatFloorplan      = Category{"outside_floorplan", "Component outside the floor plan"}
	CatOptInFormat    = Category{"opt_in_format", "opt_in label does not follow opt_in_<pol>_<wavelength>_device_<name>"}
	CatOptInPlacement = Category{"opt_in_placement", "opt_in label is not on a grating coupler"}
	CatOptInDuplicate = Category{"opt_in_duplicate", "opt_in label used more than once"}
	CatGCPitch        = Category{"gc_pitch", "Grating couplers of a circuit are not on the fibre-array pitch"}
	CatGCOrientation  = Category{"gc_orientation", "Grating couplers of a circuit differ in orientation"}
)

// AllCategories lists every category Check can report.
var AllCategories = []Category{
	CatDisconnected, CatWidthMismatch, CatOverlap, CatBendRadius, CatFloorplan,
	CatOptInFormat, CatOptInPlacement, CatOptInDuplicate, CatGCPitch, CatGCOrientation,
}

// Item is one error marker.
type Item struct {
	Category string   `json:"category"`
	Cell     string   `json:"cell"`
	Message  string   `json:"message"`
	Box      geom.Box `json:"box"` // marker area in top-cell dbu
}

// Report collects the items of one verification run.
type Report struct {
	Top        string     `json:"top"`
	DBU        float64    `json:"dbu"`
	Generator  string     `json:"generator"`
	Categories []Category `json:"categories"`
	Items      []Item     `json:"items"`
}

// ErrorCount returns the number of error markers.
func (r *Report) ErrorCount() int { return len(r.Items) }

// Counts returns the number of items per category name.
func (r *Report) Counts() map[string]int {
	out := make(map[string]int)
	for _, it := range r.Items {
		out[it.Category]++
	}
	return out
}

// CategoryNames returns the names of categories that have items, sorted.
func (r *Report) CategoryNames() []string {
	counts := r.Counts()
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Description returns the description of a category name.
func (r *Report) Description(name string) string {
	for _, c := range r.Categories {
		if c.Name == name {
			return c.Description
		}
	}
	return name
}

func (r *Report) add(cat Category, cell string, box geom.Box, format string, args ...any) {
	r.Items = append(r.Items, Item{
		Category: cat.Name,
		Cell:     cell,
		Message:  fmt.Sprintf(format, args...),
		Box:      box,
	})
}
