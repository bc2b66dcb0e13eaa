package gds

import (
	"bufio"
	"io"
	"math"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
)

// element collects the records of one stream element.
type element struct {
	kind   uint16
	layer  tech.LayerInfo
	width  int64
	xy     []geom.Point
	sname  string
	text   string
	strans uint16
	mag    float64
	angle  float64
	props  []string
}

func (e *element) trans() (geom.Trans, error) {
	q := e.angle / 90
	if q != math.Trunc(q) {
		return geom.Trans{}, errors.New(errors.ErrCodeInvalidFormat, "non-orthogonal rotation %g", e.angle)
	}
	t := geom.Trans{Rot: geom.NormAngle(int(e.angle)) / 90, Mirror: e.strans&stransReflect != 0}
	if len(e.xy) > 0 {
		t.Disp = e.xy[0]
	}
	return t, nil
}

// Read decodes a GDSII stream into a new layout using technology t for
// layer names. The database unit is taken from the file. A nil t selects
// the embedded EBeam technology.
func Read(r io.Reader, t *tech.Technology) (*layout.Layout, error) {
	if t == nil {
		t = tech.Default()
	}
	rd := &reader{
		ly:      layout.New(t),
		cells:   make(map[string]*layout.Cell),
		context: make(map[string][]string),
	}
	if err := rd.run(bufio.NewReader(r)); err != nil {
		return nil, err
	}
	if ctx, ok := rd.cells[ContextCell]; ok {
		rd.ly.DeleteCell(ctx)
		for name, props := range rd.context {
			c, ok := rd.cells[name]
			if !ok {
				continue
			}
			if err := applyContext(t, c, props); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range rd.ly.Cells() {
		layout.RecoverPins(c)
	}
	return rd.ly, nil
}

type reader struct {
	ly      *layout.Layout
	cells   map[string]*layout.Cell
	context map[string][]string

	cur *layout.Cell
	el  *element
}

func (rd *reader) cell(name string) *layout.Cell {
	if c, ok := rd.cells[name]; ok {
		return c
	}
	c := rd.ly.CreateCell(name)
	rd.cells[name] = c
	return c
}

func (rd *reader) run(r io.Reader) error {
	header := false
	for {
		rec, err := readRecord(r)
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidFormat, "missing ENDLIB record")
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read GDSII")
		}
		if !header {
			if rec.typ != recHeader {
				return errors.New(errors.ErrCodeInvalidFormat, "not a GDSII stream")
			}
			header = true
			continue
		}
		if err := rd.handle(rec); err != nil {
			return err
		}
		if rec.typ == recEndLib {
			return nil
		}
	}
}

func (rd *reader) handle(rec record) error {
	switch rec.typ {
	case recUnits:
		if v := rec.real8s(); len(v) == 2 && v[0] > 0 {
			rd.ly.DBU = v[0]
		}
	case recBgnStr:
		rd.cur = nil
	case recStrName:
		rd.cur = rd.cell(rec.str())
	case recEndStr:
		rd.cur = nil
	case recBoundary, recPath, recText, recSRef:
		if rd.cur == nil {
			return errors.New(errors.ErrCodeInvalidFormat, "element outside structure")
		}
		rd.el = &element{kind: rec.typ}
	case recLayer:
		if rd.el != nil {
			rd.el.layer.Layer = int(firstInt2(rec))
		}
	case recDatatype, recTextType:
		if rd.el != nil {
			rd.el.layer.Datatype = int(firstInt2(rec))
		}
	case recWidth:
		if v := rec.int4s(); rd.el != nil && len(v) > 0 {
			rd.el.width = int64(v[0])
		}
	case recXY:
		if rd.el != nil {
			v := rec.int4s()
			for i := 0; i+1 < len(v); i += 2 {
				rd.el.xy = append(rd.el.xy, geom.Pt(int64(v[i]), int64(v[i+1])))
			}
		}
	case recSName:
		if rd.el != nil {
			rd.el.sname = rec.str()
		}
	case recString:
		if rd.el != nil {
			rd.el.text = rec.str()
		}
	case recSTrans:
		if rd.el != nil {
			rd.el.strans = uint16(firstInt2(rec))
		}
	case recMag:
		if v := rec.real8s(); rd.el != nil && len(v) > 0 {
			rd.el.mag = v[0]
		}
	case recAngle:
		if v := rec.real8s(); rd.el != nil && len(v) > 0 {
			rd.el.angle = v[0]
		}
	case recPropValue:
		if rd.el != nil {
			rd.el.props = append(rd.el.props, rec.str())
		}
	case recEndEl:
		if rd.el == nil {
			return errors.New(errors.ErrCodeInvalidFormat, "ENDEL without element")
		}
		err := rd.commit(rd.el)
		rd.el = nil
		return err
	}
	return nil
}

func firstInt2(rec record) int16 {
	if v := rec.int2s(); len(v) > 0 {
		return v[0]
	}
	return 0
}

func (rd *reader) commit(e *element) error {
	c := rd.cur
	switch e.kind {
	case recBoundary:
		pts := e.xy
		if n := len(pts); n > 1 && pts[0] == pts[n-1] {
			pts = pts[:n-1]
		}
		if len(pts) < 3 {
			return errors.New(errors.ErrCodeInvalidFormat, "boundary with %d points in %s", len(pts), c.Name)
		}
		if b, ok := rectangle(pts); ok {
			c.InsertBox(e.layer, b)
		} else {
			c.InsertPolygon(e.layer, geom.Polygon{Points: pts})
		}
	case recPath:
		c.InsertPath(e.layer, geom.Path{Points: e.xy, Width: e.width})
	case recText:
		t, err := e.trans()
		if err != nil {
			return err
		}
		c.InsertText(e.layer, geom.Text{String: e.text, Trans: t, Size: int64(math.Round(e.mag / rd.ly.DBU))})
	case recSRef:
		if c.Name == ContextCell {
			rd.context[e.sname] = e.props
		}
		t, err := e.trans()
		if err != nil {
			return err
		}
		c.Insert(rd.cell(e.sname), t)
	}
	return nil
}

// rectangle reports whether four points form an axis-aligned rectangle.
func rectangle(pts []geom.Point) (geom.Box, bool) {
	if len(pts) != 4 {
		return geom.Box{}, false
	}
	a, b, c, d := pts[0], pts[1], pts[2], pts[3]
	ok := (a.X == b.X && b.Y == c.Y && c.X == d.X && d.Y == a.Y) ||
		(a.Y == b.Y && b.X == c.X && c.Y == d.Y && d.X == a.X)
	if !ok || a == c {
		return geom.Box{}, false
	}
	return geom.BoxOf(pts...), true
}
