package tech

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/picforge/pkg/errors"
)

func TestDefault(t *testing.T) {
	tc := Default()
	if tc.Name != "EBeam" {
		t.Errorf("Name = %q, want EBeam", tc.Name)
	}
	if tc.DBU != 0.001 {
		t.Errorf("DBU = %v, want 0.001", tc.DBU)
	}
	if got := tc.MustLayer(LayerText); got != (LayerInfo{10, 0}) {
		t.Errorf("Text layer = %v", got)
	}
	if got := tc.MustLayer("SiN"); got != (LayerInfo{4, 0}) {
		t.Errorf("SiN layer = %v", got)
	}
	if got := tc.LayerName(LayerInfo{68, 0}); got != LayerDevRec {
		t.Errorf("LayerName(68/0) = %q", got)
	}
	if got := tc.LayerName(LayerInfo{200, 3}); got != "200/3" {
		t.Errorf("LayerName(unknown) = %q", got)
	}
}

func TestWaveguide(t *testing.T) {
	tc := Default()

	wg, err := tc.Waveguide("SiN Strip TE 1310 nm, w=800 nm")
	if err != nil {
		t.Fatalf("Waveguide: %v", err)
	}
	if wg.Width != 0.8 || wg.Compound() {
		t.Errorf("unexpected waveguide %+v", wg)
	}
	if parts := wg.Parts(); len(parts) != 1 || parts[0].Layer != "SiN" {
		t.Errorf("Parts = %+v", parts)
	}

	compound, err := tc.Waveguide("SiN routing TE 1550 nm (compound waveguide)")
	if err != nil {
		t.Fatalf("Waveguide compound: %v", err)
	}
	if !compound.Compound() || len(compound.Parts()) != 2 {
		t.Errorf("compound parts = %+v", compound.Parts())
	}

	_, err = tc.Waveguide("nope")
	if !errors.Is(err, errors.ErrCodeWaveguideNotFound) {
		t.Errorf("unknown waveguide error = %v", err)
	}
	if len(tc.WaveguideNames()) != len(tc.Waveguides) {
		t.Error("WaveguideNames length mismatch")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"bad toml", "name = ", errors.ErrCodeInvalidFormat},
		{"no name", "dbu = 0.001", errors.ErrCodeInvalidInput},
		{"missing layer", "name = \"X\"\ndbu = 0.001", errors.ErrCodeInvalidInput},
		{"unknown waveguide layer", minimalTech + `
[[waveguides]]
name = "w"
layer = "Nope"
width = 0.5
radius = 5.0
`, errors.ErrCodeLayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tech.toml")
	if err := os.WriteFile(path, []byte(minimalTech), 0644); err != nil {
		t.Fatal(err)
	}
	tc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tc.Name != "Mini" {
		t.Errorf("Name = %q", tc.Name)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

const minimalTech = `
name = "Mini"
dbu = 0.001

[[layers]]
name = "PinRec"
layer = 1
datatype = 10

[[layers]]
name = "DevRec"
layer = 68
datatype = 0

[[layers]]
name = "FloorPlan"
layer = 99
datatype = 0

[[layers]]
name = "Text"
layer = 10
datatype = 0
`
