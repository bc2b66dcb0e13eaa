package gds

import (
	"strings"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/tech"
)

// Context property prefixes.
const (
	ctxLibrary = "LIB="
	ctxPCell   = "PCELL="
	ctxParams  = "PARAMS="
	ctxProp    = "PROP:"
)

func contextCells(ly *layout.Layout) []*layout.Cell {
	var out []*layout.Cell
	for _, c := range ly.Cells() {
		if c.Library != "" || c.PCell != nil || len(c.Props) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func contextProps(c *layout.Cell) []string {
	var out []string
	if c.Library != "" {
		out = append(out, ctxLibrary+c.Library)
	}
	if c.PCell != nil {
		out = append(out, ctxPCell+c.PCell.Name, ctxParams+pcell.EncodeParams(c.PCell.Params))
	}
	for _, k := range c.PropKeys() {
		out = append(out, ctxProp+k+"="+c.Props[k])
	}
	return out
}

// applyContext restores the context recorded for c.
func applyContext(t *tech.Technology, c *layout.Cell, props []string) error {
	var name, params string
	for _, p := range props {
		switch {
		case strings.HasPrefix(p, ctxLibrary):
			c.Library = strings.TrimPrefix(p, ctxLibrary)
		case strings.HasPrefix(p, ctxPCell):
			name = strings.TrimPrefix(p, ctxPCell)
		case strings.HasPrefix(p, ctxParams):
			params = strings.TrimPrefix(p, ctxParams)
		case strings.HasPrefix(p, ctxProp):
			k, v, _ := strings.Cut(strings.TrimPrefix(p, ctxProp), "=")
			c.SetProp(k, v)
		}
	}
	if name == "" {
		return nil
	}

	var vals map[string]any
	if g, err := pcell.Lookup(c.Library, name); err == nil {
		decoded, err := g.Decode(t, params)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "context of %s", c.Name)
		}
		vals = decoded
	} else {
		// unknown generator: keep the raw strings
		raw, err := pcell.SplitParams(params)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "context of %s", c.Name)
		}
		vals = raw
	}
	c.PCell = &layout.PCellRef{Library: c.Library, Name: name, Params: vals}
	return nil
}
