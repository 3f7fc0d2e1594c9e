package phys

// Side identifies a face of a block in the device grid.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
	numSides
)

// PinLocations records which pins of a block type are exposed on each face
// of each grid cell the block covers. Extents are fixed at construction;
// lookups are bounds-checked so a bad architecture fails loudly instead of
// silently reading a neighbouring cell.
type PinLocations struct {
	Width  int
	Height int

	assignments [][][][]int // [0..Width-1][0..Height-1][side][...]
}

// NewPinLocations allocates an empty pin-location table for a w x h block.
func NewPinLocations(w, h int) *PinLocations {
	pl := &PinLocations{Width: w, Height: h}
	pl.assignments = make([][][][]int, w)
	for x := range pl.assignments {
		pl.assignments[x] = make([][][]int, h)
		for y := range pl.assignments[x] {
			pl.assignments[x][y] = make([][]int, numSides)
		}
	}
	return pl
}

// Assign exposes the given pins on one face of one covered cell.
func (pl *PinLocations) Assign(x, y int, side Side, pins ...int) {
	pl.check(x, y, side)
	pl.assignments[x][y][side] = append(pl.assignments[x][y][side], pins...)
}

// At lists the pins exposed on one face of one covered cell.
func (pl *PinLocations) At(x, y int, side Side) []int {
	pl.check(x, y, side)
	return pl.assignments[x][y][side]
}

func (pl *PinLocations) check(x, y int, side Side) {
	if x < 0 || x >= pl.Width || y < 0 || y >= pl.Height || side < 0 || side >= numSides {
		panic("phys: pin location index out of range")
	}
}

// PinClassType tells whether a pin class drives the routing fabric or is
// driven by it.
type PinClassType int

const (
	ClassDriver PinClassType = iota
	ClassReceiver
)

// PinClass groups logically-equivalent cluster pins: any pin of the class
// may be used interchangeably for external connectivity.
type PinClass struct {
	Type PinClassType
	Pins []int // cluster pin numbers belonging to this class
}

// BlockType describes one placeable physical tile type. It owns a PbType
// hierarchy; the flattened PbGraphNode tree is built on first use and shared
// as a read-only flyweight by every placed instance of the type.
type BlockType struct {
	Name  string
	Index int // position in the architecture's block type list

	// NumPins is the total pin count of one flattened instance (every pin
	// of every PbGraphNode in the tree). It must match the hierarchy
	// exactly; BuildGraph verifies the invariant.
	NumPins int

	Capacity int // instances per grid tile (used for I/O pads)
	Width    int // grid footprint
	Height   int

	PinLocations *PinLocations

	// Fc holds the connectivity fraction of each cluster pin to each
	// routing segment type: Fc[pin][segment].
	Fc [][]float64

	IsGlobalPin []bool // per cluster pin; global pins are not routed

	// Derived by BuildGraph from the root ports' equivalence flags.
	PinClasses   []PinClass
	PinClassOf   []int // cluster pin number → index into PinClasses
	NumDrivers   int
	NumReceivers int

	Root *PbType

	graph *PbGraphNode // flyweight, built once
}

// Graph returns the flattened PbGraphNode tree for this block type,
// building it on first call. The returned tree is shared and must be
// treated as read-only.
func (bt *BlockType) Graph() (*PbGraphNode, error) {
	if bt.graph != nil {
		return bt.graph, nil
	}
	g, err := buildPbGraph(bt)
	if err != nil {
		return nil, err
	}
	bt.graph = g
	return g, nil
}

// MaxPinsPerTile returns the largest pin count across the given block
// types. The width search seeds its initial guess from it when the caller
// provides no hint.
func MaxPinsPerTile(types []*BlockType) int {
	maxPins := 0
	for _, bt := range types {
		if bt.NumPins > maxPins {
			maxPins = bt.NumPins
		}
	}
	return maxPins
}
