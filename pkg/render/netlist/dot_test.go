package netlist

import (
	"strings"
	"testing"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/route"
	"github.com/matzehuels/picforge/pkg/tech"
)

func chain(t *testing.T) *layout.Cell {
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
	g := top.Insert(gc, geom.Translate(0, 0))
	if _, err := route.ConnectCell(top, g, "opt1", yb, "opt1"); err != nil {
		t.Fatal(err)
	}
	return top
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(chain(t), Options{})

	if !strings.Contains(dot, "graph G") {
		t.Error("ToDOT() output missing graph declaration")
	}
	if !strings.Contains(dot, `"i0" [label="ebeam_GC_SiN_TE_1310_8deg"]`) {
		t.Error("ToDOT() output missing coupler node")
	}
	if !strings.Contains(dot, `"i0" -- "i1" [label="opt1 : opt1"]`) {
		t.Errorf("ToDOT() output missing edge:\n%s", dot)
	}
	if got := strings.Count(dot, "color=red]"); got != 2 {
		t.Errorf("ToDOT() open pins = %d, want 2", got)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(chain(t), Options{Detailed: true})

	if !strings.Contains(dot, `r0 10000,0`) {
		t.Errorf("ToDOT() detailed output missing placement:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20">`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
}
