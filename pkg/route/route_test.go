package route

import (
	"math"
	"testing"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

const wgType = "SiN Strip TE 1310 nm, w=800 nm"

// mziArms places two coupler/taper/Y-branch chains 127 µm apart.
func mziArms(t *testing.T) (*layout.Cell, *layout.Instance, *layout.Instance) {
	t.Helper()
	ly := layout.New(tech.Default())
	top := ly.CreateCell("top")
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

	var ys []*layout.Instance
	for _, y := range []int64{16000, 16000 + 127000} {
		g := top.Insert(gc, geom.Translate(60000, y))
		tp, err := ConnectCell(top, g, "opt1", taper, "opt1")
		if err != nil {
			t.Fatal(err)
		}
		yi, err := ConnectCell(top, tp, "opt2", yb, "opt1")
		if err != nil {
			t.Fatal(err)
		}
		ys = append(ys, yi)
	}
	return top, ys[0], ys[1]
}

func TestConnectCellChain(t *testing.T) {
	_, y1, y2 := mziArms(t)
	if y1.Trans != geom.Translate(71000, 16000) {
		t.Errorf("Y1 trans = %v", y1.Trans)
	}
	if y2.Trans != geom.Translate(71000, 143000) {
		t.Errorf("Y2 trans = %v", y2.Trans)
	}
}

func TestConnectCellRotates(t *testing.T) {
	ly := layout.New(tech.Default())
	top := ly.CreateCell("top")
	a := ly.CreateCell("a")
	a.AddPin(layout.Pin{Name: "out", Pos: geom.Pt(0, 500), Dir: 90, Width: 500})
	b := ly.CreateCell("b")
	b.AddPin(layout.Pin{Name: "in", Pos: geom.Pt(-1000, 0), Dir: 180, Width: 500})

	ia := top.Insert(a, geom.Translate(100, 100))
	ib, err := ConnectCell(top, ia, "out", b, "in")
	if err != nil {
		t.Fatal(err)
	}
	pa, _ := ia.Pin("out")
	pb, _ := ib.Pin("in")
	if !pa.Facing(pb) {
		t.Errorf("pins not facing: %+v %+v", pa, pb)
	}
	if ib.Trans.Mirror || ib.Trans.Rot != 1 {
		t.Errorf("trans = %v", ib.Trans)
	}

	if _, err := ConnectCell(top, ia, "nope", b, "in"); !errors.Is(err, errors.ErrCodePinNotFound) {
		t.Errorf("unknown pin err = %v", err)
	}
	other := ly.CreateCell("other")
	if _, err := ConnectCell(other, ia, "out", b, "in"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("wrong parent err = %v", err)
	}
}

func TestConnectPinsWithWaveguideArms(t *testing.T) {
	top, y1, y2 := mziArms(t)
	tests := []struct {
		pinA, pinB string
		turtleB    []float64
		want       []geom.Point
	}{
		{"opt2", "opt3", []float64{60, -90}, []geom.Point{
			geom.Pt(81000, 18500), geom.Pt(141000, 18500), geom.Pt(141000, 140500), geom.Pt(81000, 140500),
		}},
		{"opt3", "opt2", []float64{110, -90}, []geom.Point{
			geom.Pt(81000, 13500), geom.Pt(191000, 13500), geom.Pt(191000, 145500), geom.Pt(81000, 145500),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.pinA+"-"+tt.pinB, func(t *testing.T) {
			inst, length, err := ConnectPinsWithWaveguide(top, y1, tt.pinA, y2, tt.pinB, Options{
				WaveguideType: wgType,
				TurtleB:       tt.turtleB,
			})
			if err != nil {
				t.Fatal(err)
			}
			info, ok := waveguide.InfoOf(inst.Cell)
			if !ok {
				t.Fatal("no waveguide info")
			}
			if len(info.Corners) != len(tt.want) {
				t.Fatalf("corners = %v, want %v", info.Corners, tt.want)
			}
			for i := range tt.want {
				if info.Corners[i] != tt.want[i] {
					t.Errorf("corners = %v, want %v", info.Corners, tt.want)
					break
				}
			}
			manhattan := 0.0
			for i := 1; i < len(tt.want); i++ {
				manhattan += tt.want[i].Distance(tt.want[i-1]) / 1000
			}
			want := manhattan - 2*(2*25-25*math.Pi/2)
			if math.Abs(length-want) > 1e-6 {
				t.Errorf("length = %v, want %v", length, want)
			}
			if info.Radius != 25 {
				t.Errorf("radius = %v", info.Radius)
			}

			pa, _ := y1.Pin(tt.pinA)
			w1, _ := inst.Pin("opt1")
			if !pa.Facing(w1) || pa.Width != w1.Width {
				t.Errorf("waveguide start %+v does not mate with %+v", w1, pa)
			}
			pb, _ := y2.Pin(tt.pinB)
			w2, _ := inst.Pin("opt2")
			if !pb.Facing(w2) {
				t.Errorf("waveguide end %+v does not mate with %+v", w2, pb)
			}
		})
	}
}

func TestConnectPinsWithWaveguideErrors(t *testing.T) {
	top, y1, y2 := mziArms(t)
	tests := []struct {
		name string
		pinA string
		opts Options
		code errors.Code
	}{
		{"unknown type", "opt2", Options{WaveguideType: "nope"}, errors.ErrCodeWaveguideNotFound},
		{"unknown pin", "opt9", Options{WaveguideType: wgType}, errors.ErrCodePinNotFound},
		{"diagonal turn", "opt2", Options{WaveguideType: wgType, TurtleA: []float64{10, 45}}, errors.ErrCodeInvalidParameter},
		{"negative distance", "opt2", Options{WaveguideType: wgType, TurtleA: []float64{-10}}, errors.ErrCodeInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ConnectPinsWithWaveguide(top, y1, tt.pinA, y2, "opt3", tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	east, west := geom.Direction(0), geom.Direction(180)
	north, south := geom.Direction(90), geom.Direction(270)
	const lead = 50000
	tests := []struct {
		name       string
		s, ds      geom.Point
		e, de      geom.Point
		maxCorners int
	}{
		{"straight", geom.Pt(0, 0), east, geom.Pt(100000, 0), east, 0},
		{"z-bend", geom.Pt(0, 0), east, geom.Pt(100000, 30000), east, 2},
		{"same direction behind", geom.Pt(0, 0), east, geom.Pt(-100000, 30000), east, 4},
		{"same direction behind on axis", geom.Pt(0, 0), east, geom.Pt(-100000, 0), east, 4},
		{"u-turn", geom.Pt(0, 0), east, geom.Pt(0, 127000), west, 2},
		{"u-turn ahead", geom.Pt(0, 0), east, geom.Pt(80000, -20000), west, 2},
		{"single corner", geom.Pt(0, 0), east, geom.Pt(60000, 122000), north, 1},
		{"perpendicular behind", geom.Pt(0, 0), east, geom.Pt(-60000, 122000), north, 3},
		{"perpendicular wrong side", geom.Pt(0, 0), east, geom.Pt(60000, 122000), south, 3},
		{"perpendicular behind wrong side", geom.Pt(0, 0), east, geom.Pt(-60000, 122000), south, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mid, err := join(tt.s, tt.ds, tt.e, tt.de, lead)
			if err != nil {
				t.Fatal(err)
			}
			if len(mid) > tt.maxCorners {
				t.Errorf("%d corners, want at most %d", len(mid), tt.maxCorners)
			}
			pts := append(append([]geom.Point{tt.s}, mid...), tt.e)
			for i := 1; i < len(pts); i++ {
				d := pts[i].Sub(pts[i-1])
				if _, ok := geom.AngleOf(d); !ok {
					t.Fatalf("segment %d is not Manhattan: %v", i, pts)
				}
			}
			first, _ := geom.AngleOf(pts[1].Sub(pts[0]))
			last, _ := geom.AngleOf(pts[len(pts)-1].Sub(pts[len(pts)-2]))
			if geom.Direction(first) != tt.ds || geom.Direction(last) != tt.de {
				t.Errorf("path %v leaves at %d and arrives at %d", pts, first, last)
			}
		})
	}

	if _, err := join(geom.Pt(0, 0), east, geom.Pt(100000, 0), west, lead); !errors.Is(err, errors.ErrCodeRouteFailed) {
		t.Errorf("on-axis reversal err = %v", err)
	}
}
