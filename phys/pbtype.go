package phys

import "fmt"

// PortDirection classifies a port as input, output, or clock.
type PortDirection int

const (
	PortInput PortDirection = iota
	PortOutput
	PortClock
)

func (d PortDirection) String() string {
	switch d {
	case PortInput:
		return "input"
	case PortOutput:
		return "output"
	case PortClock:
		return "clock"
	}
	return fmt.Sprintf("PortDirection(%d)", int(d))
}

// PbTypeClass tags primitives with a recognized library class. The class
// drives pin classification (latch and memory primitives have sequential
// pins).
type PbTypeClass int

const (
	ClassUnknown PbTypeClass = iota
	ClassLUT
	ClassLatch
	ClassMemory
)

// Port is a named pin group on a PbType.
type Port struct {
	Name       string
	Dir        PortDirection
	NumPins    int
	Equivalent bool // pins are logically interchangeable for connectivity

	// IsNonClockGlobal marks root-level pins that carry global signals
	// (e.g. reset) and are not routed through the general fabric.
	IsNonClockGlobal bool

	PortClass string // recognized port in a class library, "" otherwise

	Index      int // position in the parent PbType's port list
	IndexByDir int // position among ports of the same direction

	Parent *PbType // non-owning back reference
}

// InterconnectKind selects the wiring rule between two pin expressions.
type InterconnectKind int

const (
	// CompleteInterc connects every input pin to every output pin.
	CompleteInterc InterconnectKind = iota + 1
	// DirectInterc connects input pin i to output pin i.
	DirectInterc
	// MuxInterc makes each input set an alternative driver of the output set.
	MuxInterc
)

func (k InterconnectKind) String() string {
	switch k {
	case CompleteInterc:
		return "complete"
	case DirectInterc:
		return "direct"
	case MuxInterc:
		return "mux"
	}
	return fmt.Sprintf("InterconnectKind(%d)", int(k))
}

// Interconnect is one wiring rule inside a mode. Input and Output hold
// pin-name expressions that are resolved against concrete graph nodes when
// the block type is flattened; Line points back to the architecture file for
// resolution errors.
type Interconnect struct {
	Kind   InterconnectKind
	Name   string
	Input  string
	Output string

	DelayMax    float64
	DelayMin    float64
	Capacitance float64

	// PackPattern names a structural motif (carry chain etc.) stamped onto
	// the edges this interconnect produces. InferAnnotations lets later
	// packing stages derive patterns from adjacent interconnects instead.
	PackPattern      string
	InferAnnotations bool

	Line int // architecture file line, 0 if unknown

	ParentMode *Mode // non-owning back reference
}

// Mode is one operational configuration of a PbType: the child block types
// active in this mode plus the interconnect scoped to it.
type Mode struct {
	Name          string
	Children      []*PbType
	Interconnects []*Interconnect
	Index         int

	Parent *PbType // non-owning back reference
}

// PbType is one node of the block-architecture hierarchy. Exactly one of
// {len(Modes) > 0} or {ModelName != ""} holds: intermediate nodes have
// modes, leaves reference a primitive model.
type PbType struct {
	Name string

	// NumPB is the maximum number of instances of this type under one
	// parent. The flattened graph has exactly NumPB PbGraphNodes per
	// parent instance.
	NumPB int

	ModelName string // primitive model ("input", "output", "latch", "names", ...), "" for non-leaves
	Class     PbTypeClass

	Modes []*Mode
	Ports []*Port

	NumInputPins  int // not including clock pins
	NumOutputPins int
	NumClockPins  int

	MaxInternalDelay float64

	Depth      int   // root is 0
	ParentMode *Mode // non-owning back reference, nil at the root
}

// IsPrimitive reports whether this is a leaf of the hierarchy.
func (p *PbType) IsPrimitive() bool { return len(p.Modes) == 0 }

// Port returns the named port, or nil.
func (p *PbType) Port(name string) *Port {
	for _, pt := range p.Ports {
		if pt.Name == name {
			return pt
		}
	}
	return nil
}

// Finalize walks the hierarchy rooted at p, wiring back references and
// derived fields (depth, pin counts, port indices, mode indices). It must
// run once after construction and before flattening.
func (p *PbType) Finalize() error {
	return p.finalize(nil, 0)
}

func (p *PbType) finalize(parent *Mode, depth int) error {
	p.ParentMode = parent
	p.Depth = depth
	p.NumInputPins, p.NumOutputPins, p.NumClockPins = 0, 0, 0

	byDir := map[PortDirection]int{}
	seen := map[string]bool{}
	for i, port := range p.Ports {
		if port.NumPins <= 0 {
			return configErrf("pb_type %q port %q has %d pins", p.Name, port.Name, port.NumPins)
		}
		if seen[port.Name] {
			return configErrf("pb_type %q has duplicate port %q", p.Name, port.Name)
		}
		seen[port.Name] = true
		port.Parent = p
		port.Index = i
		port.IndexByDir = byDir[port.Dir]
		byDir[port.Dir]++
		switch port.Dir {
		case PortInput:
			p.NumInputPins += port.NumPins
		case PortOutput:
			p.NumOutputPins += port.NumPins
		case PortClock:
			p.NumClockPins += port.NumPins
		}
	}

	if p.IsPrimitive() != (p.ModelName != "") {
		return configErrf("pb_type %q must either have modes or reference a primitive model", p.Name)
	}
	if p.NumPB < 1 {
		return configErrf("pb_type %q has num_pb %d", p.Name, p.NumPB)
	}

	modeNames := map[string]bool{}
	for im, m := range p.Modes {
		if modeNames[m.Name] {
			return configErrf("pb_type %q has duplicate mode %q", p.Name, m.Name)
		}
		modeNames[m.Name] = true
		m.Parent = p
		m.Index = im
		childNames := map[string]bool{}
		for _, child := range m.Children {
			if childNames[child.Name] {
				return configErrf("mode %q of pb_type %q has duplicate child %q", m.Name, p.Name, child.Name)
			}
			childNames[child.Name] = true
			if err := child.finalize(m, depth+1); err != nil {
				return err
			}
		}
		for _, ic := range m.Interconnects {
			ic.ParentMode = m
			if ic.Kind < CompleteInterc || ic.Kind > MuxInterc {
				return configErrLine(ic.Line, "interconnect %q has unknown kind", ic.Name)
			}
		}
	}
	return nil
}

// totalPins returns the pin count of one full instance of p, i.e. p's own
// pins plus, for every mode, the pins of all child instances. Children in
// different modes occupy distinct graph nodes, so all modes contribute.
func (p *PbType) totalPins() int {
	n := p.NumInputPins + p.NumOutputPins + p.NumClockPins
	for _, m := range p.Modes {
		for _, child := range m.Children {
			n += child.NumPB * child.totalPins()
		}
	}
	return n
}
