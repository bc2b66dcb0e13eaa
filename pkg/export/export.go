package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/gds"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/render"
)

// Type selects how parametrized cells are written.
type Type string

const (
	TypeStatic Type = "static"
	TypePCell  Type = "pcell"
)

// ParseType validates an export type name.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeStatic, TypePCell:
		return Type(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid export type %q (use static or pcell)", s)
}

// Options configures Export.
type Options struct {
	Dir          string
	RelativePath string // joined to Dir for the GDS file
	Name         string // base file name without extension
	Type         Type

	// Screenshot writes <Name>.png next to the GDS file. Without
	// rsvg-convert the SVG is written instead.
	Screenshot bool

	// Netlist writes <Name>.json next to the GDS file.
	Netlist bool

	// Time stamps the GDS library. Defaults to now.
	Time time.Time

	// Data, when set, is written instead of encoding the layout, e.g. a
	// stream taken from a cache. The layout must already be prepared.
	Data []byte

	Logger *log.Logger
}

// Result lists the written files.
type Result struct {
	GDS        string `json:"gds"`
	Screenshot string `json:"screenshot,omitempty"`
	Netlist    string `json:"netlist,omitempty"`
	Bytes      int64  `json:"bytes"`
	Cells      int    `json:"cells"`
	Removed    int    `json:"removed,omitempty"` // orphan cells dropped by static export
}

// Path returns the GDS path Export writes to.
func (o Options) Path() string {
	return filepath.Join(o.Dir, o.RelativePath, o.Name+".gds")
}

// Prepare applies the export type to the layout of top: static export
// detaches every cell from its PCell and removes unreachable cells. It
// returns the number of removed cells.
func Prepare(top *layout.Cell, typ Type) int {
	if typ != TypeStatic {
		return 0
	}
	ly := top.Layout()
	for _, c := range ly.Cells() {
		c.PCell = nil
	}
	return ly.RemoveOrphans(top)
}

// Encode prepares the layout and returns the GDS stream in memory.
func Encode(top *layout.Cell, typ Type, stamp time.Time) ([]byte, int, error) {
	removed := Prepare(top, typ)
	var buf bytes.Buffer
	if err := gds.Write(&buf, top.Layout(), gds.Options{LibName: top.Name, Time: stamp}); err != nil {
		return nil, removed, err
	}
	return buf.Bytes(), removed, nil
}

// Export writes the layout of top to disk.
func Export(top *layout.Cell, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Name == "" {
		opts.Name = top.Name
	}
	if opts.Type == "" {
		opts.Type = TypeStatic
	}

	data, removed := opts.Data, 0
	if data == nil {
		var err error
		if data, removed, err = Encode(top, opts.Type, opts.Time); err != nil {
			return nil, err
		}
	}
	path := opts.Path()
	if err := WriteFile(path, data); err != nil {
		return nil, err
	}
	logger.Info("exported layout", "path", path, "type", opts.Type, "bytes", len(data))
	if removed > 0 {
		logger.Debug("removed unreferenced cells", "count", removed)
	}

	res := &Result{
		GDS:     path,
		Bytes:   int64(len(data)),
		Cells:   len(top.Layout().Cells()),
		Removed: removed,
	}
	dir := filepath.Dir(path)

	if opts.Screenshot {
		shot, err := Screenshot(top, filepath.Join(dir, opts.Name))
		if err != nil {
			return nil, err
		}
		logger.Info("saved screenshot", "path", shot)
		res.Screenshot = shot
	}
	if opts.Netlist {
		var buf bytes.Buffer
		if err := WriteJSON(top, &buf); err != nil {
			return nil, err
		}
		res.Netlist = filepath.Join(dir, opts.Name+".json")
		if err := WriteFile(res.Netlist, buf.Bytes()); err != nil {
			return nil, err
		}
		logger.Debug("wrote netlist", "path", res.Netlist)
	}
	return res, nil
}

// Screenshot renders top to base+".png", or to base+".svg" when PNG
// conversion is unavailable. It returns the written path.
func Screenshot(top *layout.Cell, base string) (string, error) {
	opts := []render.SVGOption{render.WithWidth(1600)}
	if render.Available() {
		png, err := render.RenderPNG(top, render.WithPNGSVGOptions(opts...))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeExport, err, "render screenshot")
		}
		path := base + ".png"
		return path, WriteFile(path, png)
	}
	path := base + ".svg"
	return path, WriteFile(path, render.RenderSVG(top, opts...))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "create directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write %s", path)
	}
	return nil
}
