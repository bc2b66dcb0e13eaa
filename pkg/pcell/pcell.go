// Package pcell provides the cell libraries used by the built-in designs.
//
// A [Library] groups [Generator]s. Fixed generators produce a single static
// cell; parametrized generators (PCells) produce one variant per distinct
// parameter set. Cells are instantiated into a layout with [Create], which
// reuses an existing variant when the same cell and parameters were created
// before.
//
//	gc, err := pcell.Create(ly, "ebeam_GC_SiN_TE_1310_8deg", "EBeam-SiN", nil)
//	taper, err := pcell.Create(ly, "taper_bezier", "EBeam_Beta", map[string]any{
//	    "wg_width1": 0.75, "wg_width2": 0.8, "wg_length": 1.0,
//	})
package pcell

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
)

// ParamType is the declared type of a PCell parameter.
type ParamType int

const (
	TypeDouble ParamType = iota
	TypeInt
	TypeBool
	TypeString
	TypeLayer
)

var typeNames = [...]string{"double", "int", "bool", "string", "layer"}

// String returns the type name used in parameter listings.
func (t ParamType) String() string { return typeNames[t] }

// Param declares one generator parameter.
type Param struct {
	Name        string
	Type        ParamType
	Default     any
	Description string
}

// Values holds normalised parameter values keyed by name. Doubles are
// float64, ints are int and layers are tech.LayerInfo.
type Values map[string]any

func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

func (v Values) Int(name string) int {
	i, _ := v[name].(int)
	return i
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Str(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Layer(name string) tech.LayerInfo {
	l, _ := v[name].(tech.LayerInfo)
	return l
}

// Generator describes a library cell.
type Generator struct {
	Name        string
	Description string

	// Params is nil for fixed cells.
	Params []Param

	// Produce draws the cell contents, pins and DevRec into an empty cell.
	Produce func(c *layout.Cell, v Values) error
}

// Fixed reports whether the generator has no parameters.
func (g *Generator) Fixed() bool { return len(g.Params) == 0 }

// Library is a named group of generators.
type Library struct {
	Name        string
	Description string
	Cells       []*Generator
}

// Cell looks up a generator by name.
func (l *Library) Cell(name string) (*Generator, bool) {
	for _, g := range l.Cells {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

var libraries = []*Library{EBeamSiN, EBeamBeta}

// Libraries returns all registered libraries.
func Libraries() []*Library { return libraries }

// Lookup finds a generator by library and cell name.
func Lookup(library, name string) (*Generator, error) {
	for _, l := range libraries {
		if l.Name != library {
			continue
		}
		if g, ok := l.Cell(name); ok {
			return g, nil
		}
		return nil, errors.New(errors.ErrCodeCellNotFound, "no cell %q in library %q", name, library)
	}
	return nil, errors.New(errors.ErrCodeCellNotFound, "unknown library %q", library)
}

// Create instantiates a library cell in ly. Parameters missing from params
// take their defaults; unknown names and values of the wrong type are
// INVALID_PARAMETER errors. Creating the same cell with equal parameters
// twice returns the first cell.
func Create(ly *layout.Layout, name, library string, params map[string]any) (*layout.Cell, error) {
	g, err := Lookup(library, name)
	if err != nil {
		return nil, err
	}
	vals, err := g.Normalize(ly.Tech, params)
	if err != nil {
		return nil, err
	}
	if c := findVariant(ly, g, library, vals); c != nil {
		return c, nil
	}

	c := ly.CreateCell(name)
	c.Library = library
	if !g.Fixed() {
		c.PCell = &layout.PCellRef{Library: library, Name: name, Params: vals}
	}
	if err := g.Produce(c, vals); err != nil {
		ly.DeleteCell(c)
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, err, "generate %s.%s", library, name)
	}
	return c, nil
}

func findVariant(ly *layout.Layout, g *Generator, library string, vals Values) *layout.Cell {
	key := EncodeParams(vals)
	for _, c := range ly.Cells() {
		if c.Library != library {
			continue
		}
		if g.Fixed() {
			if c.PCell == nil && c.Name == g.Name {
				return c
			}
			continue
		}
		if c.PCell != nil && c.PCell.Name == g.Name && EncodeParams(c.PCell.Params) == key {
			return c
		}
	}
	return nil
}

// Normalize merges params with the declared defaults and coerces every value
// to its declared type.
func (g *Generator) Normalize(t *tech.Technology, params map[string]any) (Values, error) {
	for name := range params {
		if !g.hasParam(name) {
			return nil, errors.New(errors.ErrCodeInvalidParameter, "%s has no parameter %q", g.Name, name)
		}
	}
	vals := make(Values, len(g.Params))
	for _, p := range g.Params {
		raw, ok := params[p.Name]
		if !ok {
			raw = p.Default
		}
		v, err := coerce(t, p.Type, raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, err, "%s parameter %q", g.Name, p.Name)
		}
		vals[p.Name] = v
	}
	return vals, nil
}

func (g *Generator) hasParam(name string) bool {
	for _, p := range g.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func coerce(t *tech.Technology, typ ParamType, raw any) (any, error) {
	switch typ {
	case TypeDouble:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			return strconv.ParseFloat(v, 64)
		}
	case TypeInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == math.Trunc(v) {
				return int(v), nil
			}
		case string:
			return strconv.Atoi(v)
		}
	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	case TypeString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case TypeLayer:
		switch v := raw.(type) {
		case tech.LayerInfo:
			return v, nil
		case tech.Layer:
			return v.LayerInfo, nil
		case string:
			return parseLayer(t, v)
		}
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", raw, raw, typ)
}

func parseLayer(t *tech.Technology, s string) (tech.LayerInfo, error) {
	var li tech.LayerInfo
	if _, err := fmt.Sscanf(s, "%d/%d", &li.Layer, &li.Datatype); err == nil {
		return li, nil
	}
	if t == nil {
		return li, fmt.Errorf("invalid layer %q", s)
	}
	l, err := t.Layer(s)
	if err != nil {
		return li, err
	}
	return l.LayerInfo, nil
}

// EncodeParams encodes parameter values as a canonical "name=value;..."
// string sorted by name. It identifies variants and stores PCell context in
// exported files.
func EncodeParams(vals map[string]any) string {
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + formatValue(vals[name])
	}
	return strings.Join(parts, ";")
}

// SplitParams decodes the EncodeParams encoding into raw string values.
func SplitParams(s string) (map[string]any, error) {
	params := make(map[string]any)
	if s == "" {
		return params, nil
	}
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "malformed parameter %q", part)
		}
		params[name] = value
	}
	return params, nil
}

// Decode parses an EncodeParams string and normalises it against the
// generator's declarations.
func (g *Generator) Decode(t *tech.Technology, s string) (Values, error) {
	params, err := SplitParams(s)
	if err != nil {
		return nil, err
	}
	return g.Normalize(t, params)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case tech.LayerInfo:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
