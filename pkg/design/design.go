package design

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"

	"github.com/matzehuels/picforge/pkg/buildinfo"
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/route"
	"github.com/matzehuels/picforge/pkg/tech"
)

// MinEngineVersion is the oldest layout engine the design supports.
const MinEngineVersion = "0.5.4"

// Options configures Build.
type Options struct {
	// Engine overrides the layout engine version. Defaults to
	// buildinfo.EngineVersion.
	Engine string

	// Tech defaults to the embedded EBeam technology.
	Tech *tech.Technology

	Logger *log.Logger
}

// Design is a built structure.
type Design struct {
	Config  Config
	Layout  *layout.Layout
	Top     *layout.Cell
	GCs     []*layout.Instance // grating couplers, bottom to top
	Labels  []string
	Arms    []float64 // routed waveguide lengths, µm, in routing order
	ViewBox geom.Box  // zoom-to-fit area in dbu
}

// CheckEngine fails when version is older than MinEngineVersion.
func CheckEngine(version string) error {
	v := canonical(version)
	if !semver.IsValid(v) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid layout engine version %q", version)
	}
	if semver.Compare(v, canonical(MinEngineVersion)) < 0 {
		return errors.New(errors.ErrCodeVersionUnsupported, "This example requires layout engine version %s or greater.", MinEngineVersion)
	}
	return nil
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Build assembles the interferometer described by cfg.
func Build(cfg Config, opts Options) (*Design, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	engine := opts.Engine
	if engine == "" {
		engine = buildinfo.EngineVersion
	}
	if err := CheckEngine(engine); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := opts.Tech
	if t == nil {
		t = tech.Default()
	}
	if t.MinEngine != "" && semver.Compare(canonical(engine), canonical(t.MinEngine)) < 0 {
		return nil, errors.New(errors.ErrCodeVersionUnsupported, "technology %s requires layout engine version %s or greater", t.Name, t.MinEngine)
	}
	if cfg.Technology != "" && cfg.Technology != t.Name {
		return nil, errors.New(errors.ErrCodeInvalidInput, "design needs technology %s, got %s", cfg.Technology, t.Name)
	}

	ly := layout.New(t)
	top := ly.CreateCell(cfg.TopCellName())
	if err := layout.Floorplan(top, ly.Microns(cfg.Floorplan[0]), ly.Microns(cfg.Floorplan[1])); err != nil {
		return nil, err
	}
	logger.Debug("created layout", "technology", t.Name, "top", top.Name)

	b := &builder{cfg: cfg, ly: ly, top: top, d: &Design{Config: cfg, Layout: ly, Top: top}}
	if err := b.loadCells(); err != nil {
		return nil, err
	}
	if err := b.mzi(); err != nil {
		return nil, err
	}
	if cfg.Delay.Enabled {
		if err := b.delayLine(); err != nil {
			return nil, err
		}
	}

	b.d.ViewBox = top.BBox()
	logger.Info("built design", "top", top.Name, "cells", len(ly.Cells()), "instances", len(top.Instances))
	return b.d, nil
}

type builder struct {
	cfg Config
	ly  *layout.Layout
	top *layout.Cell
	d   *Design

	gc, yb, taper *layout.Cell
}

func (b *builder) loadCells() error {
	var err error
	if b.gc, err = pcell.Create(b.ly, CellGC, LibrarySiN, nil); err != nil {
		return err
	}
	if b.yb, err = pcell.Create(b.ly, CellYBranch, LibrarySiN, nil); err != nil {
		return err
	}
	b.taper, err = pcell.Create(b.ly, CellTaper, LibraryBeta, map[string]any{
		"wg_width1": b.cfg.Taper.Width1,
		"wg_width2": b.cfg.Taper.Width2,
		"wg_length": b.cfg.Taper.Length,
		"silayer":   b.cfg.Taper.Layer,
	})
	return err
}

// couplers places two couplers one pitch apart at (x, y) and labels the
// upper one.
func (b *builder) couplers(x, y float64, label string) (*layout.Instance, *layout.Instance) {
	dx, dy := b.ly.Microns(x), b.ly.Microns(y)
	gc1 := b.top.Insert(b.gc, geom.Translate(dx, dy))
	t := geom.Translate(dx, dy+b.ly.Microns(b.cfg.Pitch))
	gc2 := b.top.Insert(b.gc, t)

	li := b.ly.Tech.MustLayer(tech.LayerText)
	b.top.InsertText(li, geom.Text{String: label, Trans: t, Size: b.ly.Microns(b.cfg.LabelSize)})
	b.d.GCs = append(b.d.GCs, gc1, gc2)
	b.d.Labels = append(b.d.Labels, label)
	return gc1, gc2
}

// arm chains coupler.opt1 -> taper.opt1, taper.opt2 -> Y.opt1.
func (b *builder) arm(gc *layout.Instance) (*layout.Instance, error) {
	tp, err := route.ConnectCell(b.top, gc, "opt1", b.taper, "opt1")
	if err != nil {
		return nil, err
	}
	return route.ConnectCell(b.top, tp, "opt2", b.yb, "opt1")
}

func (b *builder) route(a *layout.Instance, pa string, z *layout.Instance, pz string, typ string, turtleB []float64) error {
	_, length, err := route.ConnectPinsWithWaveguide(b.top, a, pa, z, pz, route.Options{
		WaveguideType: typ,
		TurtleB:       turtleB,
	})
	if err != nil {
		return err
	}
	b.d.Arms = append(b.d.Arms, length)
	return nil
}

func (b *builder) mzi() error {
	gc1, gc2 := b.couplers(b.cfg.Origin[0], b.cfg.Origin[1], b.cfg.Label())
	y1, err := b.arm(gc1)
	if err != nil {
		return err
	}
	y2, err := b.arm(gc2)
	if err != nil {
		return err
	}
	if err := b.route(y1, "opt2", y2, "opt3", b.cfg.WaveguideType, b.cfg.ShortArm); err != nil {
		return err
	}
	return b.route(y1, "opt3", y2, "opt2", b.cfg.WaveguideType, b.cfg.LongArm)
}

// delayLine adds a third interferometer whose long arm runs through a
// paperclip spiral. The Y-branches sit Shift µm right of the tapers and are
// fed by straight waveguides.
func (b *builder) delayLine() error {
	cfg := b.cfg.Delay
	spiral, err := pcell.Create(b.ly, CellSpiral, LibraryBeta, map[string]any{
		"waveguide_type": cfg.WaveguideType,
		"length":         cfg.Length,
		"flatten":        true,
	})
	if err != nil {
		return err
	}

	gc1, gc2 := b.couplers(b.cfg.Origin[0], cfg.Y, b.cfg.DelayLabel())
	shift := geom.Translate(b.ly.Microns(cfg.Shift), 0)
	var ys []*layout.Instance
	for _, gc := range []*layout.Instance{gc1, gc2} {
		tp, err := route.ConnectCell(b.top, gc, "opt1", b.taper, "opt1")
		if err != nil {
			return err
		}
		y, err := route.ConnectCell(b.top, tp, "opt2", b.yb, "opt1")
		if err != nil {
			return err
		}
		y.Transform(shift)
		if err := b.route(tp, "opt2", y, "opt1", b.cfg.WaveguideType, nil); err != nil {
			return err
		}
		ys = append(ys, y)
	}

	sp, err := route.ConnectCell(b.top, ys[1], "opt2", spiral, "optA")
	if err != nil {
		return err
	}
	a, err := sp.Pin("optA")
	if err != nil {
		return err
	}
	to := geom.Pt(b.ly.Microns(cfg.Spiral[0]), b.ly.Microns(cfg.Spiral[1]))
	sp.Transform(geom.Translate(to.X-a.Pos.X, to.Y-a.Pos.Y))

	if err := b.route(ys[0], "opt2", ys[1], "opt3", b.cfg.WaveguideType, cfg.ShortArm); err != nil {
		return err
	}
	if err := b.route(ys[1], "opt2", sp, "optA", b.cfg.WaveguideType, nil); err != nil {
		return err
	}
	return b.route(ys[0], "opt3", sp, "optB", b.cfg.WaveguideType, nil)
}
