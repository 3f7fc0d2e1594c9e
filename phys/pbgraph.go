package phys

// PinKind classifies a graph pin for timing and packing purposes.
type PinKind int

const (
	PinNormal PinKind = iota
	PinSequential
	PinInpad
	PinOutpad
	PinClock
	PinTerminal // cluster boundary pin on the root node
)

// PbGraphNode is one concrete instance of a PbType at a specific position
// in the flattened hierarchy. The parent owns its children; Parent is a
// non-owning back reference. Pin slices are sized exactly at construction
// and never grow, so pointers into them stay valid for the life of the
// tree.
type PbGraphNode struct {
	PbType *PbType

	// PlacementIndex distinguishes the NumPB sibling instances of the same
	// child type.
	PlacementIndex int

	InputPins  [][]PbGraphPin // [input-port][pin]
	OutputPins [][]PbGraphPin // [output-port][pin]
	ClockPins  [][]PbGraphPin // [clock-port][pin]

	// Children is indexed [mode][child-type-in-mode][instance]; the
	// innermost extent equals the child PbType's NumPB.
	Children [][][]*PbGraphNode

	Parent *PbGraphNode // non-owning

	// TotalPins is the pin count of the whole tree; set on the root only.
	TotalPins int
}

// IsRoot reports whether n is the top of its tree.
func (n *PbGraphNode) IsRoot() bool { return n.Parent == nil }

// IsPrimitive reports whether n instantiates a leaf PbType.
func (n *PbGraphNode) IsPrimitive() bool { return n.PbType.IsPrimitive() }

// Depth is the hierarchy depth of this node; the root is 0.
func (n *PbGraphNode) Depth() int { return n.PbType.Depth }

// PortPins returns the pin array backing the given port of this node.
func (n *PbGraphNode) PortPins(port *Port) []PbGraphPin {
	switch port.Dir {
	case PortInput:
		return n.InputPins[port.IndexByDir]
	case PortOutput:
		return n.OutputPins[port.IndexByDir]
	case PortClock:
		return n.ClockPins[port.IndexByDir]
	}
	return nil
}

// inSubtreeOf reports whether n lies within the hierarchy rooted at a
// (inclusive).
func (n *PbGraphNode) inSubtreeOf(a *PbGraphNode) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == a {
			return true
		}
	}
	return false
}

// ancestorAt returns the ancestor of n at the given depth, or nil if depth
// exceeds n's own.
func (n *PbGraphNode) ancestorAt(depth int) *PbGraphNode {
	cur := n
	for cur != nil && cur.Depth() > depth {
		cur = cur.Parent
	}
	if cur != nil && cur.Depth() == depth {
		return cur
	}
	return nil
}

// Walk visits n and every descendant, pre-order.
func (n *PbGraphNode) Walk(visit func(*PbGraphNode)) {
	visit(n)
	for _, mode := range n.Children {
		for _, childType := range mode {
			for _, child := range childType {
				child.Walk(visit)
			}
		}
	}
}

// EachPin visits every pin of this node (not descendants).
func (n *PbGraphNode) EachPin(visit func(*PbGraphPin)) {
	for _, group := range [][][]PbGraphPin{n.InputPins, n.OutputPins, n.ClockPins} {
		for pi := range group {
			for i := range group[pi] {
				visit(&group[pi][i])
			}
		}
	}
}

// PbGraphPin is one pin instance of a graph node.
type PbGraphPin struct {
	Port      *Port
	PinNumber int // within the port

	Node *PbGraphNode // non-owning

	// PinCountInCluster is the pin's unique number inside the flattened
	// tree; numbering is depth-first and stable.
	PinCountInCluster int

	Kind PinKind

	InputEdges  []*PbGraphEdge // edges driving this pin
	OutputEdges []*PbGraphEdge // edges this pin drives

	// PinClass is the cluster-level equivalence class index; meaningful on
	// root (terminal) pins only.
	PinClass int

	// Connectable is the per-depth reachability table of a primitive
	// output pin: Connectable[d] lists the primitive input pins reachable
	// from this pin using only edges fully contained within the depth-d
	// ancestor's subgraph. Nil for all other pins.
	Connectable [][]*PbGraphPin

	// IsForcedConnection marks an output pin wired to exactly one input
	// pin.
	IsForcedConnection bool
}

// isPrimitiveInput reports whether p is a non-clock input pin of a
// primitive; these are the pins collected into reachability tables.
func (p *PbGraphPin) isPrimitiveInput() bool {
	return p.Node.IsPrimitive() && p.Port.Dir == PortInput
}

// PbGraphEdge connects a group of driving pins to a group of driven pins.
// Complete and direct interconnects produce simple 1:1 edges; a mux
// interconnect over a bus produces one fat n-to-m edge per input set.
type PbGraphEdge struct {
	Inputs  []*PbGraphPin
	Outputs []*PbGraphPin

	Interconnect *Interconnect // non-owning; the driving wiring rule

	DelayMax    float64
	DelayMin    float64
	Capacitance float64

	PackPatterns []string
	InferPattern bool
}

// IsBus reports whether the edge bundles more than one pin on either end.
func (e *PbGraphEdge) IsBus() bool {
	return len(e.Inputs) > 1 || len(e.Outputs) > 1
}
