package layout

// Connection is a pair of facing pins of two instances in the same cell.
type Connection struct {
	A, B       *Instance
	PinA, PinB Pin
}

// Connections returns the pin-to-pin connections between the direct
// instances of c, in instance order.
func (c *Cell) Connections() []Connection {
	type ref struct {
		inst *Instance
		pin  Pin
	}
	byPos := make(map[[2]int64][]ref)
	var out []Connection
	for _, inst := range c.Instances {
		for _, p := range inst.Pins() {
			if p.Kind != PinOptical {
				continue
			}
			key := [2]int64{p.Pos.X, p.Pos.Y}
			for _, other := range byPos[key] {
				if other.inst != inst && other.pin.Facing(p) {
					out = append(out, Connection{A: other.inst, B: inst, PinA: other.pin, PinB: p})
				}
			}
			byPos[key] = append(byPos[key], ref{inst, p})
		}
	}
	return out
}

// Unconnected returns the optical pins of c's instances that do not face a
// pin of another instance.
func (c *Cell) Unconnected() []Connection {
	connected := make(map[*Instance]map[string]bool)
	mark := func(inst *Instance, name string) {
		if connected[inst] == nil {
			connected[inst] = make(map[string]bool)
		}
		connected[inst][name] = true
	}
	for _, conn := range c.Connections() {
		mark(conn.A, conn.PinA.Name)
		mark(conn.B, conn.PinB.Name)
	}
	var out []Connection
	for _, inst := range c.Instances {
		for _, p := range inst.Pins() {
			if p.Kind == PinOptical && !connected[inst][p.Name] {
				out = append(out, Connection{A: inst, PinA: p})
			}
		}
	}
	return out
}
