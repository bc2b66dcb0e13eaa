package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/verify"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tableHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// ReportModel - Interactive error browser
// =============================================================================

// ReportModel is the bubbletea model for browsing verification markers.
// Tab cycles through the categories; the empty filter shows all items.
type ReportModel struct {
	Report   *verify.Report
	Filter   string
	Items    []verify.Item
	Cursor   int
	Height   int
	Offset   int
	filters  []string
	filterAt int
}

// NewReportModel creates a new report browser model.
func NewReportModel(rep *verify.Report) ReportModel {
	m := ReportModel{
		Report:  rep,
		Height:  15,
		filters: append([]string{""}, rep.CategoryNames()...),
	}
	m.Items = rep.Items
	return m
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "tab":
			m.filterAt = (m.filterAt + 1) % len(m.filters)
			m = m.filtered(m.filters[m.filterAt])
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// filtered returns m showing only the items of category name.
func (m ReportModel) filtered(name string) ReportModel {
	m.Filter = name
	m.Cursor, m.Offset = 0, 0
	if name == "" {
		m.Items = m.Report.Items
		return m
	}
	m.Items = nil
	for _, it := range m.Report.Items {
		if it.Category == name {
			m.Items = append(m.Items, it)
		}
	}
	return m
}

func (m ReportModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Verification: " + m.Report.Top))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⇥ category  q quit"))
	b.WriteString("\n\n")

	filter := "all categories"
	if m.Filter != "" {
		filter = m.Filter
	}
	b.WriteString(StyleHighlight.Render(filter))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d items", len(m.Items))))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Items) {
		end = len(m.Items)
	}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := fmt.Sprintf("%s%-20s %s", cursor, it.Category, it.Message)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.Cursor < len(m.Items) {
		it := m.Items[m.Cursor]
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(strings.Repeat("─", 40)))
		b.WriteString("\n")
		b.WriteString(detailLine("Category", m.Report.Description(it.Category)))
		b.WriteString(detailLine("Cell", it.Cell))
		b.WriteString(detailLine("Marker", formatMicrons(it.Box, m.Report.DBU)))
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Items)), len(m.Items))))

	return b.String()
}

// =============================================================================
// Tables
// =============================================================================

// newTable returns a table in the CLI's border style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
}

// categoryTable summarises the error counts of rep per category.
func categoryTable(rep *verify.Report) string {
	counts := rep.Counts()
	t := newTable("Category", "Errors", "Description")
	for _, name := range rep.CategoryNames() {
		t.Row(name, strconv.Itoa(counts[name]), rep.Description(name))
	}
	return t.Render()
}

// =============================================================================
// Helpers
// =============================================================================

func detailLine(key, value string) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(10)
	return keyStyle.Render(key) + " " + StyleValue.Render(value) + "\n"
}

// formatMicrons formats a dbu box as "(l, b; r, t) µm".
func formatMicrons(b geom.Box, dbu float64) string {
	f := func(v int64) string { return strconv.FormatFloat(float64(v)*dbu, 'f', -1, 64) }
	return fmt.Sprintf("(%s, %s; %s, %s) µm", f(b.Left), f(b.Bottom), f(b.Right), f(b.Top))
}
