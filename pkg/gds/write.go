package gds

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/tech"
)

// ContextCell is the structure holding library-cell context.
const ContextCell = "$$$CONTEXT_INFO$$$"

// Options configures Write.
type Options struct {
	// LibName is written to the LIBNAME record. Defaults to "LIB".
	LibName string

	// Time stamps BGNLIB and BGNSTR. Defaults to the current time.
	Time time.Time

	// NoContext skips the context structure even if cells carry context.
	NoContext bool
}

// Write encodes every cell of ly as a GDSII stream. Children are written
// before the cells that reference them.
func Write(w io.Writer, ly *layout.Layout, opts Options) error {
	if opts.LibName == "" {
		opts.LibName = "LIB"
	}
	if opts.Time.IsZero() {
		opts.Time = time.Now()
	}
	bw := bufio.NewWriter(w)
	sw := &streamWriter{w: bw}
	stamp := timestamp(opts.Time)

	sw.int2(recHeader, streamVersion)
	sw.int2(recBgnLib, append(stamp, stamp...)...)
	sw.str(recLibName, opts.LibName)
	sw.real8(recUnits, ly.DBU, ly.DBU*1e-6)

	for _, c := range bottomUp(ly) {
		sw.int2(recBgnStr, append(stamp, stamp...)...)
		sw.str(recStrName, c.Name)
		sw.cell(c)
		sw.record(recEndStr, nil)
	}
	if ctx := contextCells(ly); len(ctx) > 0 && !opts.NoContext {
		sw.int2(recBgnStr, append(stamp, stamp...)...)
		sw.str(recStrName, ContextCell)
		for _, c := range ctx {
			sw.record(recSRef, nil)
			sw.str(recSName, c.Name)
			sw.xy(geom.Point{})
			for i, v := range contextProps(c) {
				sw.int2(recPropAttr, int16(i+1))
				sw.str(recPropValue, v)
			}
			sw.record(recEndEl, nil)
		}
		sw.record(recEndStr, nil)
	}
	sw.record(recEndLib, nil)

	if sw.err != nil {
		return errors.Wrap(errors.ErrCodeExport, sw.err, "write GDSII")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write GDSII")
	}
	return nil
}

// bottomUp orders cells so that every cell follows the cells it references.
func bottomUp(ly *layout.Layout) []*layout.Cell {
	var out []*layout.Cell
	done := make(map[*layout.Cell]bool)
	var visit func(c *layout.Cell)
	visit = func(c *layout.Cell) {
		if done[c] {
			return
		}
		done[c] = true
		for _, child := range c.ChildCells() {
			visit(child)
		}
		out = append(out, c)
	}
	for _, c := range ly.Cells() {
		visit(c)
	}
	return out
}

func timestamp(t time.Time) []int16 {
	return []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
}

// streamWriter writes records and keeps the first error.
type streamWriter struct {
	w   io.Writer
	err error
}

func (s *streamWriter) record(typ uint16, data []byte) {
	if s.err != nil {
		return
	}
	if len(data)+4 > maxRecordSize {
		s.err = fmt.Errorf("record %#04x too long (%d bytes)", typ, len(data))
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(len(data)+4))
	binary.BigEndian.PutUint16(hdr[2:], typ)
	if _, s.err = s.w.Write(hdr[:]); s.err == nil {
		_, s.err = s.w.Write(data)
	}
}

func (s *streamWriter) int2(typ uint16, vs ...int16) {
	buf := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(v))
	}
	s.record(typ, buf)
}

func (s *streamWriter) int4(typ uint16, vs ...int32) {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(v))
	}
	s.record(typ, buf)
}

func (s *streamWriter) real8(typ uint16, vs ...float64) {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint64(buf[8*i:], encodeReal(v))
	}
	s.record(typ, buf)
}

func (s *streamWriter) str(typ uint16, v string) {
	buf := []byte(v)
	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	s.record(typ, buf)
}

func (s *streamWriter) xy(pts ...geom.Point) {
	vs := make([]int32, 0, 2*len(pts))
	for _, p := range pts {
		if p.X < math.MinInt32 || p.X > math.MaxInt32 || p.Y < math.MinInt32 || p.Y > math.MaxInt32 {
			if s.err == nil {
				s.err = fmt.Errorf("coordinate %v out of GDSII range", p)
			}
			return
		}
		vs = append(vs, int32(p.X), int32(p.Y))
	}
	s.int4(recXY, vs...)
}

func (s *streamWriter) layer(li tech.LayerInfo, dtype uint16) {
	s.int2(recLayer, int16(li.Layer))
	s.int2(dtype, int16(li.Datatype))
}

func (s *streamWriter) strans(t geom.Trans, mag float64) {
	if !t.Mirror && t.Rot&3 == 0 && mag == 0 {
		return
	}
	var flags int16
	if t.Mirror {
		flags = int16(-0x8000) // reflection bit
	}
	s.int2(recSTrans, flags)
	if mag != 0 {
		s.real8(recMag, mag)
	}
	if t.Rot&3 != 0 {
		s.real8(recAngle, float64(t.Angle()))
	}
}

func (s *streamWriter) cell(c *layout.Cell) {
	dbu := c.Layout().DBU
	for _, li := range c.Layers() {
		shapes := c.Shapes(li)
		for _, b := range shapes.Boxes {
			s.boundary(li, b.Corners())
		}
		for _, p := range shapes.Polygons {
			s.boundary(li, p.Points)
		}
		for _, p := range shapes.Paths {
			if len(p.Points) < 2 {
				continue
			}
			s.record(recPath, nil)
			s.layer(li, recDatatype)
			s.int2(recPathType, 0)
			s.int4(recWidth, int32(p.Width))
			s.xy(p.Points...)
			s.record(recEndEl, nil)
		}
		for _, t := range shapes.Texts {
			s.record(recText, nil)
			s.layer(li, recTextType)
			s.strans(t.Trans, float64(t.Size)*dbu)
			s.xy(t.Trans.Disp)
			s.str(recString, t.String)
			s.record(recEndEl, nil)
		}
	}
	for _, inst := range c.Instances {
		s.record(recSRef, nil)
		s.str(recSName, inst.Cell.Name)
		s.strans(inst.Trans, 0)
		s.xy(inst.Trans.Disp)
		s.record(recEndEl, nil)
	}
}

func (s *streamWriter) boundary(li tech.LayerInfo, pts []geom.Point) {
	if len(pts) < 3 {
		return
	}
	if len(pts)+1 > maxBoundaryPts {
		if s.err == nil {
			s.err = fmt.Errorf("polygon with %d points exceeds the GDSII limit", len(pts))
		}
		return
	}
	s.record(recBoundary, nil)
	s.layer(li, recDatatype)
	s.xy(append(append([]geom.Point(nil), pts...), pts[0])...)
	s.record(recEndEl, nil)
}
