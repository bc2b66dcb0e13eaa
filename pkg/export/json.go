package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/picforge/pkg/geom"
	"github.com/matzehuels/picforge/pkg/layout"
	"github.com/matzehuels/picforge/pkg/render/netlist"
	"github.com/matzehuels/picforge/pkg/waveguide"
)

// Netlist is the JSON description of a cell's connectivity.
type Netlist struct {
	Top         string       `json:"top"`
	Technology  string       `json:"technology"`
	Instances   []Instance   `json:"instances"`
	Connections []Connection `json:"connections"`
}

// Instance is one placed cell.
type Instance struct {
	ID        string          `json:"id"`
	Cell      string          `json:"cell"`
	Library   string          `json:"library,omitempty"`
	Trans     geom.Trans      `json:"trans"`
	Pins      []layout.Pin    `json:"pins,omitempty"`
	Waveguide *waveguide.Info `json:"waveguide,omitempty"`
}

// Connection joins two instance pins.
type Connection struct {
	From    string `json:"from"`
	FromPin string `json:"from_pin"`
	To      string `json:"to"`
	ToPin   string `json:"to_pin"`
}

// BuildNetlist collects the instances and connections of c. Instance IDs
// match the node IDs of the netlist diagram.
func BuildNetlist(c *layout.Cell) Netlist {
	n := Netlist{Top: c.Name, Technology: c.Layout().Tech.Name}
	ids := make(map[*layout.Instance]string, len(c.Instances))
	for i, inst := range c.Instances {
		id := netlist.NodeID(i)
		ids[inst] = id
		ji := Instance{
			ID:      id,
			Cell:    inst.Cell.Name,
			Library: inst.Cell.Library,
			Trans:   inst.Trans,
			Pins:    inst.Pins(),
		}
		if info, ok := waveguide.InfoOf(inst.Cell); ok {
			ji.Waveguide = &info
		}
		n.Instances = append(n.Instances, ji)
	}
	for _, conn := range c.Connections() {
		n.Connections = append(n.Connections, Connection{
			From: ids[conn.A], FromPin: conn.PinA.Name,
			To: ids[conn.B], ToPin: conn.PinB.Name,
		})
	}
	return n
}

// WriteJSON encodes the netlist of c as indented JSON.
func WriteJSON(c *layout.Cell, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildNetlist(c)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a netlist written by WriteJSON. Connections must refer
// to known instance IDs.
func ReadJSON(r io.Reader) (*Netlist, error) {
	var n Netlist
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	ids := make(map[string]bool, len(n.Instances))
	for _, inst := range n.Instances {
		if ids[inst.ID] {
			return nil, fmt.Errorf("instance %s: duplicate id", inst.ID)
		}
		ids[inst.ID] = true
	}
	for _, c := range n.Connections {
		if !ids[c.From] || !ids[c.To] {
			return nil, fmt.Errorf("connection %s -> %s: unknown instance", c.From, c.To)
		}
	}
	return &n, nil
}
