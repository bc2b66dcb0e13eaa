package design

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/verify"
)

func TestBuild_Default(t *testing.T) {
	d, err := Build(DefaultConfig("Alice"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	tops := d.Layout.TopCells()
	if len(tops) != 1 || tops[0].Name != "EBeam_Alice_MZI" || tops[0] != d.Top {
		t.Fatalf("top cells = %v", tops)
	}

	var gcs []geom.Point
	for _, inst := range d.Top.Instances {
		if inst.Cell.Name == CellGC {
			gcs = append(gcs, inst.Trans.Disp)
		}
	}
	if len(gcs) != 2 {
		t.Fatalf("grating couplers = %d, want 2", len(gcs))
	}
	if gcs[0] != geom.Pt(60000, 16000) || gcs[1].Sub(gcs[0]) != geom.Pt(0, 127000) {
		t.Errorf("coupler positions = %v", gcs)
	}

	re := regexp.MustCompile(`^opt_in_TE_1310_device_Alice_MZI1$`)
	texts := d.Top.Texts(d.Layout.Tech.MustLayer(tech.LayerText))
	matches := 0
	for _, txt := range texts {
		if re.MatchString(txt.String) {
			matches++
			if txt.Position() != gcs[1] || txt.Size != 5000 {
				t.Errorf("label at %v size %d", txt.Position(), txt.Size)
			}
		}
	}
	if matches != 1 {
		t.Errorf("opt_in labels = %d, want 1", matches)
	}

	if len(d.Arms) != 2 || d.Arms[1] <= d.Arms[0] {
		t.Errorf("arm lengths = %v", d.Arms)
	}
	if d.ViewBox != d.Top.BBox() || d.ViewBox.IsEmpty() {
		t.Errorf("view box = %v", d.ViewBox)
	}
	fp := d.ViewBox
	if fp.Left != 0 || fp.Bottom != 0 || fp.Right != 605000 || fp.Top != 410000 {
		t.Errorf("view box %v should be the floor plan", fp)
	}

	if rep := verify.Check(d.Top, verify.Options{}); rep.ErrorCount() != 0 {
		t.Errorf("verification errors = %d: %+v", rep.ErrorCount(), rep.Items)
	}
}

func TestBuild_DelayLine(t *testing.T) {
	cfg := DefaultConfig("Bob")
	cfg.Delay.Enabled = true
	d, err := Build(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(d.GCs) != 4 || len(d.Labels) != 2 || d.Labels[1] != "opt_in_TE_1550_device_Bob_MZI3" {
		t.Fatalf("couplers = %d, labels = %v", len(d.GCs), d.Labels)
	}
	if d.GCs[2].Trans.Disp != geom.Pt(60000, 205000) {
		t.Errorf("delay coupler at %v", d.GCs[2].Trans.Disp)
	}
	if len(d.Arms) != 7 {
		t.Errorf("routed waveguides = %d, want 7", len(d.Arms))
	}
	if len(d.Layout.TopCells()) != 1 {
		t.Errorf("top cells = %d", len(d.Layout.TopCells()))
	}

	rep := verify.Check(d.Top, verify.Options{})
	// The spiral's compound waveguide is wider than the feeding strips.
	if rep.Counts()[verify.CatWidthMismatch.Name] != 2 || rep.ErrorCount() != 2 {
		t.Errorf("verification = %v", rep.Counts())
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
		opts Options
		code errors.Code
	}{
		{"old engine", nil, Options{Engine: "0.5.3"}, errors.ErrCodeVersionUnsupported},
		{"bad engine", nil, Options{Engine: "latest"}, errors.ErrCodeInvalidInput},
		{"no designer", func(c *Config) { c.Designer = "" }, Options{}, errors.ErrCodeInvalidInput},
		{"bad waveguide", func(c *Config) { c.WaveguideType = "nope" }, Options{}, errors.ErrCodeWaveguideNotFound},
		{"wrong tech", func(c *Config) { c.Technology = "GSiP" }, Options{}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("Alice")
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			d, err := Build(cfg, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if d != nil {
				t.Error("design returned on error")
			}
		})
	}
}

func TestCheckEngine(t *testing.T) {
	tests := []struct {
		version string
		code    errors.Code
	}{
		{"0.5.4", ""},
		{"v0.6.0", ""},
		{"1.0", ""},
		{"0.5.3", errors.ErrCodeVersionUnsupported},
		{"0.4.99", errors.ErrCodeVersionUnsupported},
		{"abc", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := CheckEngine(tt.version)
			if errors.GetCode(err) != tt.code {
				t.Fatalf("CheckEngine(%q) = %v, want %q", tt.version, err, tt.code)
			}
			if tt.code == errors.ErrCodeVersionUnsupported {
				want := "This example requires layout engine version 0.5.4 or greater."
				if got := errors.UserMessage(err); got != want {
					t.Errorf("message = %q", got)
				}
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	base := DefaultConfig("Alice")
	cfg, err := ParseConfig([]byte(`
designer = "Carol"
long_arm = [120, -90]

[delay]
enabled = true
length = 300
`), base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Designer != "Carol" || cfg.TopCellName() != "EBeam_Carol_MZI" {
		t.Errorf("designer = %q", cfg.Designer)
	}
	if len(cfg.LongArm) != 2 || cfg.LongArm[0] != 120 {
		t.Errorf("long arm = %v", cfg.LongArm)
	}
	if !cfg.Delay.Enabled || cfg.Delay.Length != 300 || cfg.Delay.Y != 205 {
		t.Errorf("delay = %+v", cfg.Delay)
	}
	if cfg.Pitch != 127 || cfg.Taper.Layer != "4/0" {
		t.Error("defaults not kept")
	}

	if _, err := ParseConfig([]byte(`colour = "red"`), base); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown key err = %v", err)
	}
	if _, err := ParseConfig([]byte(`designer = `), base); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("syntax err = %v", err)
	}
	if _, err := ParseConfig([]byte(`designer = "a b"`), base); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad designer err = %v", err)
	}
}

func TestParseConfigKeepsBase(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "short_arm = [10, 90]\nbogus = 1\n"},
		{"valid", "short_arm = [10, 90]\n\n[delay]\nshort_arm = [5, 90]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := DefaultConfig("Alice")
			_, _ = ParseConfig([]byte(tt.data), base)
			if base.ShortArm[0] != 60 || base.ShortArm[1] != -90 {
				t.Errorf("base short arm = %v", base.ShortArm)
			}
			if base.Delay.ShortArm[0] != 30 {
				t.Errorf("base delay short arm = %v", base.Delay.ShortArm)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design.toml")
	if err := os.WriteFile(path, []byte("pitch = 250\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, DefaultConfig("Alice"))
	if err != nil || cfg.Pitch != 250 {
		t.Errorf("LoadConfig = %+v, %v", cfg, err)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml"), DefaultConfig("Alice")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}
