package pcell

import (
	"math"
	"testing"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

func newLayout() *layout.Layout { return layout.New(tech.Default()) }

func TestLookup(t *testing.T) {
	tests := []struct {
		library, name string
		wantErr       bool
	}{
		{"EBeam-SiN", "ebeam_GC_SiN_TE_1310_8deg", false},
		{"EBeam-SiN", "ebeam_YBranch_te1310", false},
		{"EBeam_Beta", "taper_bezier", false},
		{"EBeam_Beta", "spiral_paperclip", false},
		{"EBeam-SiN", "taper_bezier", true},
		{"EBeam", "ebeam_y_1550", true},
	}
	for _, tt := range tests {
		t.Run(tt.library+"/"+tt.name, func(t *testing.T) {
			g, err := Lookup(tt.library, tt.name)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeCellNotFound) {
					t.Errorf("err = %v, want CELL_NOT_FOUND", err)
				}
				return
			}
			if err != nil || g.Name != tt.name {
				t.Errorf("Lookup = %v, %v", g, err)
			}
		})
	}
}

func TestGratingCoupler(t *testing.T) {
	ly := newLayout()
	c, err := Create(ly, "ebeam_GC_SiN_TE_1310_8deg", "EBeam-SiN", nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.PCell != nil || c.Library != "EBeam-SiN" {
		t.Errorf("fixed cell has PCell=%v Library=%q", c.PCell, c.Library)
	}
	opt1, err := c.Pin("opt1")
	if err != nil {
		t.Fatal(err)
	}
	if opt1.Pos != geom.Pt(0, 0) || opt1.Dir != 0 || opt1.Width != 750 {
		t.Errorf("opt1 = %+v", opt1)
	}
	fib, err := c.Pin("fib1")
	if err != nil {
		t.Fatal(err)
	}
	if fib.Kind != layout.PinFiber || fib.Pos.X >= 0 {
		t.Errorf("fib1 = %+v", fib)
	}
	dr := c.DevRec()
	if dr.Right != 0 || !dr.Contains(fib.Pos) {
		t.Errorf("DevRec = %v", dr)
	}

	again, err := Create(ly, "ebeam_GC_SiN_TE_1310_8deg", "EBeam-SiN", nil)
	if err != nil || again != c {
		t.Errorf("second Create returned a new cell %v", again)
	}
}

func TestYBranch(t *testing.T) {
	ly := newLayout()
	c, err := Create(ly, "ebeam_YBranch_te1310", "EBeam-SiN", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]layout.Pin{
		"opt1": {Name: "opt1", Pos: geom.Pt(-10000, 0), Dir: 180, Width: 800},
		"opt2": {Name: "opt2", Pos: geom.Pt(10000, 2500), Dir: 0, Width: 800},
		"opt3": {Name: "opt3", Pos: geom.Pt(10000, -2500), Dir: 0, Width: 800},
	}
	for name, w := range want {
		got, err := c.Pin(name)
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("%s = %+v, want %+v", name, got, w)
		}
	}
	if got := c.DevRec(); got != geom.NewBox(-10000, -4000, 10000, 4000) {
		t.Errorf("DevRec = %v", got)
	}
}

func TestTaperVariants(t *testing.T) {
	ly := newLayout()
	params := map[string]any{
		"wg_width1": 0.75,
		"wg_width2": 0.8,
		"wg_length": 1,
		"silayer":   tech.LayerInfo{Layer: 4, Datatype: 0},
	}
	a, err := Create(ly, "taper_bezier", "EBeam_Beta", params)
	if err != nil {
		t.Fatal(err)
	}
	if a.PCell == nil || a.PCell.Name != "taper_bezier" || a.PCell.Params["wg_length"] != 1.0 {
		t.Fatalf("PCell = %+v", a.PCell)
	}
	opt1, _ := a.Pin("opt1")
	opt2, _ := a.Pin("opt2")
	if opt1.Pos != geom.Pt(0, 0) || opt1.Dir != 180 || opt1.Width != 750 {
		t.Errorf("opt1 = %+v", opt1)
	}
	if opt2.Pos != geom.Pt(1000, 0) || opt2.Dir != 0 || opt2.Width != 800 {
		t.Errorf("opt2 = %+v", opt2)
	}
	if !a.HasShapes(tech.LayerInfo{Layer: 4}) {
		t.Error("taper not drawn on 4/0")
	}

	for _, layer := range []any{"4/0", "SiN"} {
		same := map[string]any{"wg_width1": 0.75, "wg_width2": 0.8, "wg_length": 1.0, "silayer": layer}
		b, err := Create(ly, "taper_bezier", "EBeam_Beta", same)
		if err != nil {
			t.Fatal(err)
		}
		if b != a {
			t.Errorf("silayer=%v created a new variant %s", layer, b.Name)
		}
	}

	params["wg_length"] = 2.0
	c, err := Create(ly, "taper_bezier", "EBeam_Beta", params)
	if err != nil {
		t.Fatal(err)
	}
	if c == a || c.Name != "taper_bezier$1" {
		t.Errorf("new variant = %s", c.Name)
	}
}

func TestCreateInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"unknown parameter", map[string]any{"width": 1.0}},
		{"wrong type", map[string]any{"wg_width1": true}},
		{"unparsable string", map[string]any{"wg_width1": "wide"}},
		{"bad layer", map[string]any{"silayer": "NoSuchLayer"}},
		{"negative length", map[string]any{"wg_length": -1.0}},
		{"bezier out of range", map[string]any{"bezier": 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ly := newLayout()
			_, err := Create(ly, "taper_bezier", "EBeam_Beta", tt.params)
			if !errors.Is(err, errors.ErrCodeInvalidParameter) {
				t.Errorf("err = %v, want INVALID_PARAMETER", err)
			}
			if n := len(ly.Cells()); n != 0 {
				t.Errorf("failed Create left %d cells behind", n)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	g, err := Lookup("EBeam_Beta", "taper_bezier")
	if err != nil {
		t.Fatal(err)
	}
	vals, err := g.Normalize(tech.Default(), map[string]any{"wg_width1": 0.75, "silayer": "4/0"})
	if err != nil {
		t.Fatal(err)
	}
	s := EncodeParams(vals)
	want := "bezier=0.2;silayer=4/0;wg_length=10;wg_width1=0.75;wg_width2=3"
	if s != want {
		t.Errorf("Encode = %q, want %q", s, want)
	}
	back, err := g.Decode(tech.Default(), s)
	if err != nil {
		t.Fatal(err)
	}
	if EncodeParams(back) != s {
		t.Errorf("round trip = %q", EncodeParams(back))
	}
	if _, err := g.Decode(tech.Default(), "wg_width1"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("malformed Decode err = %v", err)
	}
}

func TestPaperclipRows(t *testing.T) {
	tests := []struct {
		name     string
		length   float64
		loops    int
		radius   float64
		wantRows int
		wantErr  bool
	}{
		{"falls back to one loop", 200, 2, 60, 2, false},
		{"two loops fit", 1000, 2, 25, 4, false},
		{"zero loops means one", 300, 0, 25, 2, false},
		{"too short", 10, 1, 25, 0, true},
		{"non-positive length", 0, 1, 25, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, w, err := paperclipRows(tt.length, tt.loops, tt.radius)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %d rows", rows)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if rows != tt.wantRows {
				t.Errorf("rows = %d, want %d", rows, tt.wantRows)
			}
			got := float64(rows)*w + float64(rows-1)*tt.radius*(math.Pi-2)
			if math.Abs(got-tt.length) > 1e-9 {
				t.Errorf("rounded length = %v, want %v", got, tt.length)
			}
		})
	}
}

func TestSpiralPaperclip(t *testing.T) {
	const wgType = "SiN routing TE 1550 nm (compound waveguide)"
	for _, flatten := range []bool{true, false} {
		ly := newLayout()
		c, err := Create(ly, "spiral_paperclip", "EBeam_Beta", map[string]any{
			"waveguide_type": wgType,
			"length":         200.0,
			"flatten":        flatten,
		})
		if err != nil {
			t.Fatal(err)
		}
		optA, _ := c.Pin("optA")
		optB, _ := c.Pin("optB")
		if optA.Pos != geom.Pt(0, 0) || optA.Dir != 180 {
			t.Errorf("flatten=%v optA = %+v", flatten, optA)
		}
		if optB.Pos != geom.Pt(0, -120000) || optB.Dir != 180 {
			t.Errorf("flatten=%v optB = %+v", flatten, optB)
		}
		if flatten != (len(c.Instances) == 0) {
			t.Errorf("flatten=%v instances = %d", flatten, len(c.Instances))
		}
		if !flatten {
			info, ok := waveguide.InfoOf(c.Instances[0].Cell)
			if !ok {
				t.Fatal("sub-cell is not a waveguide")
			}
			if math.Abs(info.Length-200) > 0.01 {
				t.Errorf("length = %v", info.Length)
			}
		}
	}

	ly := newLayout()
	_, err := Create(ly, "spiral_paperclip", "EBeam_Beta", map[string]any{"waveguide_type": "nope"})
	if !errors.Is(err, errors.ErrCodeWaveguideNotFound) {
		t.Errorf("unknown type err = %v", err)
	}
}
