package verify

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/geom"
)

// lyrdb mirrors KLayout's report database XML.
type lyrdb struct {
	XMLName      xml.Name        `xml:"report-database"`
	Description  string          `xml:"description"`
	OriginalFile string          `xml:"original-file"`
	Generator    string          `xml:"generator"`
	TopCell      string          `xml:"top-cell"`
	Tags         struct{}        `xml:"tags"`
	Categories   []lyrdbCategory `xml:"categories>category"`
	Cells        []lyrdbCell     `xml:"cells>cell"`
	Items        []lyrdbItem     `xml:"items>item"`
}

type lyrdbCategory struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Categories  struct{} `xml:"categories"`
}

type lyrdbCell struct {
	Name       string   `xml:"name"`
	Variant    string   `xml:"variant"`
	References struct{} `xml:"references"`
}

type lyrdbItem struct {
	Tags         struct{} `xml:"tags"`
	Category     string   `xml:"category"`
	Cell         string   `xml:"cell"`
	Visited      bool     `xml:"visited"`
	Multiplicity int      `xml:"multiplicity"`
	Image        struct{} `xml:"image"`
	Values       []string `xml:"values>value"`
}

// Write encodes the report as a KLayout report database.
func (r *Report) Write(w io.Writer) error {
	db := lyrdb{
		Description: fmt.Sprintf("Verification of %s", r.Top),
		Generator:   r.Generator,
		TopCell:     r.Top,
	}
	for _, c := range r.Categories {
		db.Categories = append(db.Categories, lyrdbCategory{Name: c.Name, Description: c.Description})
	}
	cells := map[string]bool{}
	addCell := func(name string) {
		if !cells[name] {
			cells[name] = true
			db.Cells = append(db.Cells, lyrdbCell{Name: name})
		}
	}
	addCell(r.Top)
	for _, it := range r.Items {
		addCell(it.Cell)
		values := []string{"text: " + quote(it.Message)}
		if !it.Box.IsEmpty() {
			values = append([]string{"box: " + formatBox(it.Box, r.DBU)}, values...)
		}
		db.Items = append(db.Items, lyrdbItem{
			Category:     it.Category,
			Cell:         it.Cell,
			Multiplicity: 1,
			Values:       values,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(db); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteLyrdb writes the report database to path.
func (r *Report) WriteLyrdb(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "create %s", path)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeExport, err, "write %s", path)
	}
	return f.Close()
}

// Read decodes a report database. dbu converts marker boxes back to
// database units.
func Read(rd io.Reader, dbu float64) (*Report, error) {
	var db lyrdb
	if err := xml.NewDecoder(rd).Decode(&db); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode report database")
	}
	r := &Report{Top: db.TopCell, DBU: dbu, Generator: db.Generator}
	for _, c := range db.Categories {
		r.Categories = append(r.Categories, Category{Name: c.Name, Description: c.Description})
	}
	for _, it := range db.Items {
		item := Item{Category: unquote(it.Category), Cell: it.Cell, Box: geom.EmptyBox()}
		for _, v := range it.Values {
			kind, body, ok := strings.Cut(v, ": ")
			if !ok {
				continue
			}
			switch kind {
			case "text":
				item.Message = unquote(body)
			case "box":
				b, err := parseBox(body, dbu)
				if err != nil {
					return nil, err
				}
				item.Box = b
			}
		}
		r.Items = append(r.Items, item)
	}
	return r, nil
}

// ReadLyrdb reads a report database from path.
func ReadLyrdb(path string, dbu float64) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f, dbu)
}

func formatBox(b geom.Box, dbu float64) string {
	f := func(v int64) string { return fmt.Sprintf("%g", float64(v)*dbu) }
	return fmt.Sprintf("(%s,%s;%s,%s)", f(b.Left), f(b.Bottom), f(b.Right), f(b.Top))
}

func parseBox(s string, dbu float64) (geom.Box, error) {
	var l, b, r, t float64
	if _, err := fmt.Sscanf(s, "(%g,%g;%g,%g)", &l, &b, &r, &t); err != nil {
		return geom.Box{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse box %q", s)
	}
	d := func(v float64) int64 { return int64(math.Round(v / dbu)) }
	return geom.NewBox(d(l), d(b), d(r), d(t)), nil
}

func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s
	}
	return strings.NewReplacer(`\\`, `\`, `\'`, `'`).Replace(s[1 : len(s)-1])
}
