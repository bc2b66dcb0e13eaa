package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/verify"
)

func sampleReport() *verify.Report {
	return &verify.Report{
		Top:        "EBeam_Alice_MZI",
		DBU:        0.001,
		Categories: verify.AllCategories,
		Items: []verify.Item{
			{Category: verify.CatDisconnected.Name, Cell: "Waveguide", Message: "opt1 is not connected", Box: geom.Box{Left: 0, Bottom: 0, Right: 1000, Top: 500}},
			{Category: verify.CatWidthMismatch.Name, Cell: "Waveguide$1", Message: "0.8 µm meets 1 µm"},
			{Category: verify.CatDisconnected.Name, Cell: "Waveguide$2", Message: "opt2 is not connected"},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReportModel(t *testing.T) {
	var m tea.Model = NewReportModel(sampleReport())

	tests := []struct {
		key    string
		filter string
		items  int
		cursor int
	}{
		{"down", "", 3, 1},
		{"j", "", 3, 2},
		{"j", "", 3, 2},
		{"tab", verify.CatDisconnected.Name, 2, 0},
		{"tab", verify.CatWidthMismatch.Name, 1, 0},
		{"tab", "", 3, 0},
	}
	for _, tt := range tests {
		m, _ = m.Update(key(tt.key))
		rm := m.(ReportModel)
		if rm.Filter != tt.filter || len(rm.Items) != tt.items || rm.Cursor != tt.cursor {
			t.Errorf("after %s: filter=%q items=%d cursor=%d, want %q %d %d",
				tt.key, rm.Filter, len(rm.Items), rm.Cursor, tt.filter, tt.items, tt.cursor)
		}
	}

	view := m.View()
	for _, want := range []string{"EBeam_Alice_MZI", "opt1 is not connected", "(0, 0; 1, 0.5) µm"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestCategoryTable(t *testing.T) {
	out := categoryTable(sampleReport())
	for _, want := range []string{"disconnected_pin", "pin_width_mismatch", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
