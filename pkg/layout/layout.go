package layout

import (
	"fmt"
	"sort"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/tech"
)

// Layout is a collection of uniquely named cells sharing one technology.
type Layout struct {
	DBU  float64
	Tech *tech.Technology

	cells  []*Cell
	byName map[string]*Cell
}

// New creates an empty layout for a technology.
func New(t *tech.Technology) *Layout {
	return &Layout{
		DBU:    t.DBU,
		Tech:   t,
		byName: make(map[string]*Cell),
	}
}

// CreateCell adds a new empty cell. If the name is taken, a "$N" suffix is
// appended to make it unique.
func (ly *Layout) CreateCell(name string) *Cell {
	unique := ly.UniqueName(name)
	c := &Cell{Name: unique, layout: ly, shapes: make(map[tech.LayerInfo]*Shapes)}
	ly.cells = append(ly.cells, c)
	ly.byName[unique] = c
	return c
}

// UniqueName returns name, or name with the lowest free "$N" suffix.
func (ly *Layout) UniqueName(name string) string {
	if _, taken := ly.byName[name]; !taken {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s$%d", name, i)
		if _, taken := ly.byName[candidate]; !taken {
			return candidate
		}
	}
}

// Cell looks up a cell by name.
func (ly *Layout) Cell(name string) (*Cell, bool) {
	c, ok := ly.byName[name]
	return c, ok
}

// MustCell looks up a cell by name and returns a CELL_NOT_FOUND error if it
// does not exist.
func (ly *Layout) MustCell(name string) (*Cell, error) {
	c, ok := ly.byName[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeCellNotFound, "no cell named %q", name)
	}
	return c, nil
}

// Cells returns all cells in creation order.
func (ly *Layout) Cells() []*Cell {
	out := make([]*Cell, len(ly.cells))
	copy(out, ly.cells)
	return out
}

// RenameCell changes a cell's name, keeping names unique.
func (ly *Layout) RenameCell(c *Cell, name string) {
	delete(ly.byName, c.Name)
	c.Name = ly.UniqueName(name)
	ly.byName[c.Name] = c
}

// DeleteCell removes a cell and every instance referring to it.
func (ly *Layout) DeleteCell(c *Cell) {
	delete(ly.byName, c.Name)
	for i, x := range ly.cells {
		if x == c {
			ly.cells = append(ly.cells[:i], ly.cells[i+1:]...)
			break
		}
	}
	for _, p := range ly.cells {
		kept := p.Instances[:0]
		for _, inst := range p.Instances {
			if inst.Cell != c {
				kept = append(kept, inst)
			}
		}
		p.Instances = kept
	}
}

// TopCells returns the cells no other cell instantiates, sorted by name.
func (ly *Layout) TopCells() []*Cell {
	referenced := make(map[*Cell]bool)
	for _, c := range ly.cells {
		for _, inst := range c.Instances {
			referenced[inst.Cell] = true
		}
	}
	var tops []*Cell
	for _, c := range ly.cells {
		if !referenced[c] {
			tops = append(tops, c)
		}
	}
	sort.Slice(tops, func(i, j int) bool { return tops[i].Name < tops[j].Name })
	return tops
}

// TopCell returns the single top cell. It fails when there is none or more
// than one.
func (ly *Layout) TopCell() (*Cell, error) {
	tops := ly.TopCells()
	switch len(tops) {
	case 1:
		return tops[0], nil
	case 0:
		return nil, errors.New(errors.ErrCodeCellNotFound, "layout has no top cell")
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "layout has %d top cells", len(tops))
}

// Layer resolves a technology layer name.
func (ly *Layout) Layer(name string) (tech.LayerInfo, error) {
	l, err := ly.Tech.Layer(name)
	if err != nil {
		return tech.LayerInfo{}, err
	}
	return l.LayerInfo, nil
}

// Microns converts micrometres to database units.
func (ly *Layout) Microns(um float64) int64 {
	return int64(um/ly.DBU + 0.5*sign(um))
}

// ToMicrons converts database units to micrometres.
func (ly *Layout) ToMicrons(d int64) float64 { return float64(d) * ly.DBU }

// RemoveOrphans deletes every cell not reachable from keep.
// It returns the number of cells removed.
func (ly *Layout) RemoveOrphans(keep *Cell) int {
	reachable := make(map[*Cell]bool)
	var visit func(c *Cell)
	visit = func(c *Cell) {
		if reachable[c] {
			return
		}
		reachable[c] = true
		for _, inst := range c.Instances {
			visit(inst.Cell)
		}
	}
	visit(keep)

	removed := 0
	for _, c := range ly.Cells() {
		if !reachable[c] {
			ly.DeleteCell(c)
			removed++
		}
	}
	return removed
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
