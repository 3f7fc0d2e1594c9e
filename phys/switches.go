package phys

import "sort"

// UndefinedFanin keys a constant (fan-in independent) delay in a Switch's
// delay map.
const UndefinedFanin = -1

// Switch is an architecture-level switch definition referenced by index
// from segments and directs.
type Switch struct {
	Name     string
	Buffered bool

	R    float64 // equivalent resistance of the buffer/switch
	Cin  float64
	Cout float64

	// TdelMap maps mux fan-in to intrinsic delay. A single entry at
	// UndefinedFanin means the delay does not vary with fan-in.
	TdelMap map[int]float64

	MuxTransSize float64
	BufSize      float64
}

// Tdel returns the intrinsic delay of the switch at the given fan-in,
// interpolating linearly between the two nearest annotated fan-ins and
// clamping outside the annotated range.
func (s *Switch) Tdel(fanin int) float64 {
	if d, ok := s.TdelMap[UndefinedFanin]; ok {
		return d
	}
	if len(s.TdelMap) == 0 {
		return 0
	}
	if d, ok := s.TdelMap[fanin]; ok {
		return d
	}
	keys := make([]int, 0, len(s.TdelMap))
	for k := range s.TdelMap {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if fanin <= keys[0] {
		return s.TdelMap[keys[0]]
	}
	last := keys[len(keys)-1]
	if fanin >= last {
		return s.TdelMap[last]
	}
	i := sort.SearchInts(keys, fanin)
	lo, hi := keys[i-1], keys[i]
	frac := float64(fanin-lo) / float64(hi-lo)
	return s.TdelMap[lo] + frac*(s.TdelMap[hi]-s.TdelMap[lo])
}

// Segment is a wire segment definition.
type Segment struct {
	Name      string
	Frequency int // ratio of tracks of this segment type
	Length    int // in grid cells
	Longline  bool

	WireSwitch int // switch index driving this segment from other wires
	OpinSwitch int // switch index driving this segment from output pins

	FracCB float64 // fraction of logic blocks along the length it can connect to
	FracSB float64 // fraction of switch blocks along the length it can connect to

	Rmetal float64 // per unit grid cell
	Cmetal float64

	Directionality Directionality

	// Per-position connectivity along the segment: connection-box and
	// switch-box population.
	CB []bool
	SB []bool
}

// Direct is an inter-block chain connection (e.g. carry between vertically
// adjacent tiles).
type Direct struct {
	Name    string
	FromPin string // <block_name>.<pin_name>
	ToPin   string

	XOffset int
	YOffset int
	ZOffset int

	SwitchType int // switch index
	Line       int // architecture file line
}

// SwitchblockLocation restricts where on the device a custom switchblock is
// built.
type SwitchblockLocation int

const (
	SBPerimeter SwitchblockLocation = iota
	SBCorner
	SBFringe // perimeter minus corners
	SBCore
	SBEverywhere
)

// SideConnection identifies one (from, to) side pair of a switchblock.
type SideConnection struct {
	From Side
	To   Side
}

// WireConn lists wire types/groups a switchblock connects: every from-point
// of a from-type connects to every to-point of a to-type.
type WireConn struct {
	FromTypes  []string
	ToTypes    []string
	FromPoints []int
	ToPoints   []int
}

// Switchblock is a named custom switch-block specification with its
// permutation functions per side pair.
type Switchblock struct {
	Name           string
	Location       SwitchblockLocation
	Directionality Directionality

	// Permutations holds the track permutation function names applied to
	// connections from one side to another.
	Permutations map[SideConnection][]string

	WireConns []WireConn
}
