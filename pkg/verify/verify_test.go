package verify

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/route"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

const (
	wgType = "SiN Strip TE 1310 nm, w=800 nm"
	label  = "opt_in_TE_1310_device_Alice_MZI1"
)

type mzi struct {
	top  *layout.Cell
	gcs  []*layout.Instance
	ys   []*layout.Instance
	long *layout.Instance
}

// buildMZI assembles a complete, clean interferometer.
func buildMZI(t *testing.T) *mzi {
	t.Helper()
	ly := layout.New(tech.Default())
	top := ly.CreateCell("EBeam_Alice_MZI")
	if err := layout.Floorplan(top, 605000, 410000); err != nil {
		t.Fatal(err)
	}
	gc, err := pcell.Create(ly, "ebeam_GC_SiN_TE_1310_8deg", "EBeam-SiN", nil)
	if err != nil {
		t.Fatal(err)
	}
	yb, err := pcell.Create(ly, "ebeam_YBranch_te1310", "EBeam-SiN", nil)
	if err != nil {
		t.Fatal(err)
	}
	taper, err := pcell.Create(ly, "taper_bezier", "EBeam_Beta", map[string]any{
		"wg_width1": 0.75, "wg_width2": 0.8, "wg_length": 1.0, "silayer": "4/0",
	})
	if err != nil {
		t.Fatal(err)
	}

	m := &mzi{top: top}
	for _, y := range []int64{16000, 143000} {
		g := top.Insert(gc, geom.Translate(60000, y))
		tp, err := route.ConnectCell(top, g, "opt1", taper, "opt1")
		if err != nil {
			t.Fatal(err)
		}
		yi, err := route.ConnectCell(top, tp, "opt2", yb, "opt1")
		if err != nil {
			t.Fatal(err)
		}
		m.gcs = append(m.gcs, g)
		m.ys = append(m.ys, yi)
	}
	if _, _, err := route.ConnectPinsWithWaveguide(top, m.ys[0], "opt2", m.ys[1], "opt3", route.Options{
		WaveguideType: wgType, TurtleB: []float64{60, -90},
	}); err != nil {
		t.Fatal(err)
	}
	m.long, _, err = route.ConnectPinsWithWaveguide(top, m.ys[0], "opt3", m.ys[1], "opt2", route.Options{
		WaveguideType: wgType, TurtleB: []float64{110, -90},
	})
	if err != nil {
		t.Fatal(err)
	}
	addLabel(top, label, geom.Pt(60000, 143000))
	return m
}

func addLabel(c *layout.Cell, s string, p geom.Point) {
	li := c.Layout().Tech.MustLayer(tech.LayerText)
	c.InsertText(li, geom.Text{String: s, Trans: geom.Translate(p.X, p.Y), Size: 5000})
}

func TestCheck_Clean(t *testing.T) {
	m := buildMZI(t)
	rep := Check(m.top, Options{})
	if rep.ErrorCount() != 0 {
		for _, it := range rep.Items {
			t.Logf("%s: %s", it.Category, it.Message)
		}
		t.Fatalf("ErrorCount = %d, want 0", rep.ErrorCount())
	}
	if rep.Top != "EBeam_Alice_MZI" || rep.Generator != "picforge verify" {
		t.Errorf("report header = %q %q", rep.Top, rep.Generator)
	}
}

func TestCheck_Disconnected(t *testing.T) {
	m := buildMZI(t)
	m.top.RemoveInstance(m.long)
	rep := Check(m.top, Options{})
	if got := rep.Counts()[CatDisconnected.Name]; got != 2 {
		t.Errorf("disconnected = %d, want 2", got)
	}
	if rep.ErrorCount() != 2 {
		t.Errorf("ErrorCount = %d, want 2", rep.ErrorCount())
	}
}

func TestCheck_Labels(t *testing.T) {
	tests := []struct {
		name  string
		label string
		pos   geom.Point
		want  []Category
	}{
		{"malformed", "opt_in_TE_device_MZI1", geom.Pt(60000, 16000), []Category{CatOptInFormat}},
		{"off coupler", "opt_in_TE_1310_device_Alice_MZI2", geom.Pt(300000, 300000), []Category{CatOptInPlacement}},
		{"duplicate", label, geom.Pt(60000, 16000), []Category{CatOptInDuplicate}},
		{"not opt_in", "hello", geom.Pt(300000, 300000), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buildMZI(t)
			addLabel(m.top, tt.label, tt.pos)
			rep := Check(m.top, Options{})
			if rep.ErrorCount() != len(tt.want) {
				t.Fatalf("ErrorCount = %d, want %d: %+v", rep.ErrorCount(), len(tt.want), rep.Items)
			}
			for i, c := range tt.want {
				if rep.Items[i].Category != c.Name {
					t.Errorf("item %d category = %s, want %s", i, rep.Items[i].Category, c.Name)
				}
			}
		})
	}
}

func TestOptIn(t *testing.T) {
	pol, wl, dev, ok := OptIn(label)
	if !ok || pol != "TE" || wl != "1310" || dev != "Alice_MZI1" {
		t.Errorf("OptIn = %q %q %q %v", pol, wl, dev, ok)
	}
	for _, bad := range []string{"opt_in_TX_1310_device_a", "opt_in_TE_1310_dev_a", "opt_in_TE_1310_device_"} {
		if _, _, _, ok := OptIn(bad); ok {
			t.Errorf("OptIn(%q) accepted", bad)
		}
	}
}

func TestCheck_Overlap(t *testing.T) {
	m := buildMZI(t)
	m.top.Insert(m.ys[0].Cell, m.ys[0].Trans.Compose(geom.Translate(0, 2000)))
	rep := Check(m.top, Options{})
	if rep.Counts()[CatOverlap.Name] != 1 {
		t.Errorf("overlaps = %d, want 1: %+v", rep.Counts()[CatOverlap.Name], rep.Items)
	}
}

func TestCheck_FloorplanAndBend(t *testing.T) {
	ly := layout.New(tech.Default())
	top := ly.CreateCell("top")
	if err := layout.Floorplan(top, 15000, 15000); err != nil {
		t.Fatal(err)
	}
	wg, err := ly.Tech.Waveguide(wgType)
	if err != nil {
		t.Fatal(err)
	}
	// The 10 µm jog leaves room for 5 µm bends only.
	c, info, err := waveguide.NewCell(ly, wg, []geom.Point{
		geom.Pt(0, 0), geom.Pt(10000, 0), geom.Pt(10000, 10000), geom.Pt(20000, 10000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if info.Radius >= 25 {
		t.Fatalf("radius = %v, want reduced", info.Radius)
	}
	top.Insert(c, geom.Trans{})

	rep := Check(top, Options{})
	counts := rep.Counts()
	if counts[CatBendRadius.Name] != 1 {
		t.Errorf("bend radius errors = %d, want 1", counts[CatBendRadius.Name])
	}
	if counts[CatFloorplan.Name] != 1 {
		t.Errorf("floorplan errors = %d, want 1", counts[CatFloorplan.Name])
	}
	if counts[CatDisconnected.Name] != 2 {
		t.Errorf("disconnected = %d, want 2", counts[CatDisconnected.Name])
	}
	want := []string{CatBendRadius.Name, CatDisconnected.Name, CatFloorplan.Name}
	if got := strings.Join(rep.CategoryNames(), ","); got != strings.Join(want, ",") {
		t.Errorf("CategoryNames = %s", got)
	}
}

func TestCheck_WidthMismatch(t *testing.T) {
	ly := layout.New(tech.Default())
	top := ly.CreateCell("top")
	a := ly.CreateCell("a")
	a.AddPin(layout.Pin{Name: "opt1", Pos: geom.Pt(0, 0), Dir: 0, Width: 500})
	b := ly.CreateCell("b")
	b.AddPin(layout.Pin{Name: "opt1", Pos: geom.Pt(0, 0), Dir: 180, Width: 800})
	top.Insert(a, geom.Trans{})
	top.Insert(b, geom.Trans{})

	rep := Check(top, Options{})
	if rep.ErrorCount() != 1 || rep.Items[0].Category != CatWidthMismatch.Name {
		t.Errorf("items = %+v", rep.Items)
	}
}

func TestCheckCircuit(t *testing.T) {
	ly := layout.New(tech.Default())
	top := ly.CreateCell("top")
	gc, err := pcell.Create(ly, "ebeam_GC_SiN_TE_1310_8deg", "EBeam-SiN", nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		trans []geom.Trans
		want  map[string]int
	}{
		{"pitch", []geom.Trans{geom.Translate(0, 0), geom.Translate(0, 127000), geom.Translate(0, 254000)}, map[string]int{}},
		{"gap", []geom.Trans{geom.Translate(0, 0), geom.Translate(0, 100000)}, map[string]int{CatGCPitch.Name: 1}},
		{"column", []geom.Trans{geom.Translate(0, 0), geom.Translate(5000, 127000)}, map[string]int{CatGCPitch.Name: 1}},
		{"orientation", []geom.Trans{geom.Translate(0, 0), geom.NewTrans(geom.R180, 0, 127000)}, map[string]int{CatGCOrientation.Name: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gcs []*layout.Instance
			for _, tr := range tt.trans {
				gcs = append(gcs, top.Insert(gc, tr))
			}
			r := &Report{DBU: ly.DBU}
			checkCircuit(r, gcs, 127000)
			got := r.Counts()
			if len(got) != len(tt.want) {
				t.Fatalf("counts = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}

func TestLyrdbRoundTrip(t *testing.T) {
	m := buildMZI(t)
	m.top.RemoveInstance(m.long)
	addLabel(m.top, "opt_in_bad 'quoted'", geom.Pt(60000, 16000))
	rep := Check(m.top, Options{})

	var buf bytes.Buffer
	if err := rep.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<report-database>", "<top-cell>EBeam_Alice_MZI</top-cell>", "<category>disconnected_pin</category>", "text: &#39;"} {
		if !strings.Contains(out, want) {
			t.Errorf("lyrdb missing %q", want)
		}
	}

	path := filepath.Join(t.TempDir(), "out", "mzi.lyrdb")
	if err := rep.WriteLyrdb(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadLyrdb(path, rep.DBU)
	if err != nil {
		t.Fatal(err)
	}
	if got.Top != rep.Top || got.ErrorCount() != rep.ErrorCount() || len(got.Categories) != len(AllCategories) {
		t.Fatalf("read back %+v", got)
	}
	for i := range rep.Items {
		if got.Items[i] != rep.Items[i] {
			t.Errorf("item %d = %+v, want %+v", i, got.Items[i], rep.Items[i])
		}
	}
}

func TestReadLyrdbErrors(t *testing.T) {
	if _, err := ReadLyrdb(filepath.Join(t.TempDir(), "missing.lyrdb"), 0.001); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v", err)
	}
	if _, err := Read(strings.NewReader("<report-database><items>"), 0.001); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("truncated err = %v", err)
	}
}
