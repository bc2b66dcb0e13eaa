package design

import (
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/picforge/pkg/errors"
)

// TopCellTemplate formats the top-cell name from the designer name.
const TopCellTemplate = "EBeam_%s_MZI"

// Library cell names.
const (
	LibrarySiN   = "EBeam-SiN"
	LibraryBeta  = "EBeam_Beta"
	CellGC       = "ebeam_GC_SiN_TE_1310_8deg"
	CellYBranch  = "ebeam_YBranch_te1310"
	CellTaper    = "taper_bezier"
	CellSpiral   = "spiral_paperclip"
	DefaultWG    = "SiN Strip TE 1310 nm, w=800 nm"
	DefaultDelay = "SiN routing TE 1550 nm (compound waveguide)"
)

// Taper configures the taper_bezier between coupler and Y-branch.
type Taper struct {
	Width1 float64 `toml:"wg_width1" json:"wg_width1"`
	Width2 float64 `toml:"wg_width2" json:"wg_width2"`
	Length float64 `toml:"wg_length" json:"wg_length"`
	Layer  string  `toml:"silayer" json:"silayer"`
}

// Delay configures the optional delay-line interferometer.
type Delay struct {
	Enabled       bool       `toml:"enabled" json:"enabled"`
	Y             float64    `toml:"y" json:"y"`           // first coupler, µm
	Length        float64    `toml:"length" json:"length"` // µm
	WaveguideType string     `toml:"waveguide_type" json:"waveguide_type"`
	Shift         float64    `toml:"shift" json:"shift"`   // Y-branch offset from the couplers, µm
	Spiral        [2]float64 `toml:"spiral" json:"spiral"` // spiral optA position, µm
	ShortArm      []float64  `toml:"short_arm" json:"short_arm"`
}

// Config holds every parameter of the structure. Lengths are in µm.
type Config struct {
	Designer      string     `toml:"designer" json:"designer"`
	Technology    string     `toml:"technology" json:"technology"`
	Floorplan     [2]float64 `toml:"floorplan" json:"floorplan"`
	Origin        [2]float64 `toml:"origin" json:"origin"` // first grating coupler
	Pitch         float64    `toml:"pitch" json:"pitch"`
	LabelSize     float64    `toml:"label_size" json:"label_size"`
	WaveguideType string     `toml:"waveguide_type" json:"waveguide_type"`
	ShortArm      []float64  `toml:"short_arm" json:"short_arm"` // turtle at the second Y-branch
	LongArm       []float64  `toml:"long_arm" json:"long_arm"`
	Taper         Taper      `toml:"taper" json:"taper"`
	Delay         Delay      `toml:"delay" json:"delay"`
}

// DefaultConfig returns the reference interferometer for designer.
func DefaultConfig(designer string) Config {
	return Config{
		Designer:      designer,
		Technology:    "EBeam",
		Floorplan:     [2]float64{605, 410},
		Origin:        [2]float64{60, 16},
		Pitch:         127,
		LabelSize:     5,
		WaveguideType: DefaultWG,
		ShortArm:      []float64{60, -90},
		LongArm:       []float64{60 + 50, -90},
		Taper: Taper{
			Width1: 0.75,
			Width2: 0.8,
			Length: 1,
			Layer:  "4/0",
		},
		Delay: Delay{
			Y:             205,
			Length:        200,
			WaveguideType: DefaultDelay,
			Shift:         20,
			Spiral:        [2]float64{200, 270},
			ShortArm:      []float64{30, -90},
		},
	}
}

// LoadConfig reads a TOML file over base. Keys missing from the file keep
// the values of base.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, errors.Wrap(errors.ErrCodeFileNotFound, err, "design config %s", path)
		}
		return base, err
	}
	return ParseConfig(data, base)
}

// ParseConfig decodes TOML over base.
func ParseConfig(data []byte, base Config) (Config, error) {
	cfg := base.Clone()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return base, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse design config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, errors.New(errors.ErrCodeInvalidFormat, "unknown design config key %q", undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Clone returns a copy of c that shares no slices with it.
func (c Config) Clone() Config {
	c.ShortArm = slices.Clone(c.ShortArm)
	c.LongArm = slices.Clone(c.LongArm)
	c.Delay.ShortArm = slices.Clone(c.Delay.ShortArm)
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := errors.ValidateDesignerName(c.Designer); err != nil {
		return err
	}
	if c.Floorplan[0] <= 0 || c.Floorplan[1] <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "floor plan must have positive size, got %gx%g", c.Floorplan[0], c.Floorplan[1])
	}
	if c.Pitch <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "coupler pitch must be positive, got %g", c.Pitch)
	}
	if c.LabelSize <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "label size must be positive, got %g", c.LabelSize)
	}
	return nil
}

// TopCellName returns EBeam_<designer>_MZI.
func (c Config) TopCellName() string { return fmt.Sprintf(TopCellTemplate, c.Designer) }

// Label returns the opt_in label of the main interferometer.
func (c Config) Label() string {
	return fmt.Sprintf("opt_in_TE_1310_device_%s_MZI1", c.Designer)
}

// DelayLabel returns the opt_in label of the delay-line interferometer.
func (c Config) DelayLabel() string {
	return fmt.Sprintf("opt_in_TE_1550_device_%s_MZI3", c.Designer)
}
