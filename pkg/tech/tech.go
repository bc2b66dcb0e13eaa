// Package tech describes process technologies: layer maps and waveguide
// type presets.
//
// A technology is read from a TOML file. The EBeam technology used by the
// built-in designs is embedded in the binary and returned by [Default].
//
//	t, err := tech.Load("mytech.toml")
//	wg, err := t.Waveguide("SiN Strip TE 1310 nm, w=800 nm")
package tech

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/picforge/pkg/errors"
)

//go:embed ebeam.toml
var ebeamTOML []byte

// Standard layer names every technology must define.
const (
	LayerPinRec    = "PinRec"
	LayerDevRec    = "DevRec"
	LayerFloorPlan = "FloorPlan"
	LayerText      = "Text"
)

var requiredLayers = []string{LayerPinRec, LayerDevRec, LayerFloorPlan, LayerText}

// LayerInfo identifies a GDS layer/datatype pair.
type LayerInfo struct {
	Layer    int `toml:"layer" json:"layer"`
	Datatype int `toml:"datatype" json:"datatype"`
}

// String formats the pair as "layer/datatype".
func (l LayerInfo) String() string { return fmt.Sprintf("%d/%d", l.Layer, l.Datatype) }

// Layer is a named layer with a display colour.
type Layer struct {
	Name  string `toml:"name" json:"name"`
	LayerInfo
	Color string `toml:"color" json:"color,omitempty"`
}

// Component is one layer of a compound waveguide.
type Component struct {
	Layer  string  `toml:"layer" json:"layer"`
	Width  float64 `toml:"width" json:"width"`
	Offset float64 `toml:"offset" json:"offset,omitempty"`
}

// Waveguide is a named waveguide-type preset.
type Waveguide struct {
	Name       string      `toml:"name" json:"name"`
	Layer      string      `toml:"layer" json:"layer,omitempty"`
	Width      float64     `toml:"width" json:"width"`   // µm, the optical core width
	Radius     float64     `toml:"radius" json:"radius"` // µm, minimum bend radius
	Bezier     float64     `toml:"bezier" json:"bezier"`
	Components []Component `toml:"components" json:"components,omitempty"`
}

// Compound reports whether the waveguide draws more than one layer.
func (w Waveguide) Compound() bool { return len(w.Components) > 0 }

// Parts returns the drawn components. Simple waveguides yield one component
// on their own layer.
func (w Waveguide) Parts() []Component {
	if w.Compound() {
		return w.Components
	}
	return []Component{{Layer: w.Layer, Width: w.Width}}
}

// Technology is a parsed technology file.
type Technology struct {
	Name       string      `toml:"name" json:"name"`
	DBU        float64     `toml:"dbu" json:"dbu"`
	MinEngine  string      `toml:"min_engine" json:"min_engine,omitempty"`
	Layers     []Layer     `toml:"layers" json:"layers"`
	Waveguides []Waveguide `toml:"waveguides" json:"waveguides"`

	layers     map[string]Layer
	waveguides map[string]Waveguide
}

// Default returns the embedded EBeam technology.
func Default() *Technology {
	t, err := Parse(ebeamTOML)
	if err != nil {
		panic(fmt.Sprintf("tech: embedded EBeam technology is invalid: %v", err))
	}
	return t
}

// Load reads a technology from a TOML file.
func Load(path string) (*Technology, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "technology file %s", path)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a technology from TOML data.
func Parse(data []byte) (*Technology, error) {
	var t Technology
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse technology")
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Technology) index() error {
	if t.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "technology has no name")
	}
	if t.DBU <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "technology %s: dbu must be positive", t.Name)
	}
	t.layers = make(map[string]Layer, len(t.Layers))
	for _, l := range t.Layers {
		if _, dup := t.layers[l.Name]; dup {
			return errors.New(errors.ErrCodeInvalidInput, "technology %s: duplicate layer %q", t.Name, l.Name)
		}
		t.layers[l.Name] = l
	}
	for _, name := range requiredLayers {
		if _, ok := t.layers[name]; !ok {
			return errors.New(errors.ErrCodeInvalidInput, "technology %s: missing required layer %q", t.Name, name)
		}
	}
	t.waveguides = make(map[string]Waveguide, len(t.Waveguides))
	for _, w := range t.Waveguides {
		if w.Width <= 0 || w.Radius <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "waveguide %q: width and radius must be positive", w.Name)
		}
		for _, c := range w.Parts() {
			if _, ok := t.layers[c.Layer]; !ok {
				return errors.New(errors.ErrCodeLayerNotFound, "waveguide %q: unknown layer %q", w.Name, c.Layer)
			}
		}
		t.waveguides[w.Name] = w
	}
	return nil
}

// Layer looks up a layer by name.
func (t *Technology) Layer(name string) (Layer, error) {
	l, ok := t.layers[name]
	if !ok {
		return Layer{}, errors.New(errors.ErrCodeLayerNotFound, "technology %s has no layer %q", t.Name, name)
	}
	return l, nil
}

// MustLayer returns the layer info for a name and panics if it is missing.
// Only use it for the required layers, which Parse guarantees.
func (t *Technology) MustLayer(name string) LayerInfo {
	l, err := t.Layer(name)
	if err != nil {
		panic(err)
	}
	return l.LayerInfo
}

// LayerName returns the name registered for a layer/datatype pair, or its
// numeric form.
func (t *Technology) LayerName(li LayerInfo) string {
	for _, l := range t.Layers {
		if l.LayerInfo == li {
			return l.Name
		}
	}
	return li.String()
}

// Color returns the display colour of a layer, or a neutral grey.
func (t *Technology) Color(li LayerInfo) string {
	for _, l := range t.Layers {
		if l.LayerInfo == li && l.Color != "" {
			return l.Color
		}
	}
	return "#808080"
}

// Waveguide looks up a waveguide type by its preset name.
func (t *Technology) Waveguide(name string) (Waveguide, error) {
	w, ok := t.waveguides[name]
	if !ok {
		return Waveguide{}, errors.New(errors.ErrCodeWaveguideNotFound, "technology %s has no waveguide type %q", t.Name, name)
	}
	return w, nil
}

// WaveguideNames returns the preset names in sorted order.
func (t *Technology) WaveguideNames() []string {
	names := make([]string, 0, len(t.waveguides))
	for n := range t.waveguides {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
