package phys

// Arch aggregates one parsed and validated device architecture: the
// placeable block types, the routing fabric inventories, and the channel
// width distribution. It is the already-validated input the core consumes
// from the architecture loader.
type Arch struct {
	BlockTypes []*BlockType

	ChanWidthDist ChannelWidthDistribution

	Switches     []*Switch
	Segments     []*Segment
	Directs      []*Direct
	Switchblocks []*Switchblock

	Routing RoutingArch

	// Device grid extent in logic tiles.
	GridRows int
	GridCols int
}

// Validate checks the structural invariants of the architecture and
// finalizes every block type hierarchy. It must run once before the
// architecture is used.
func (a *Arch) Validate() error {
	if len(a.BlockTypes) == 0 {
		return configErrf("architecture has no block types")
	}
	if a.GridRows < 1 || a.GridCols < 1 {
		return configErrf("device grid %dx%d is empty", a.GridRows, a.GridCols)
	}
	names := map[string]bool{}
	for i, bt := range a.BlockTypes {
		bt.Index = i
		if names[bt.Name] {
			return configErrf("duplicate block type %q", bt.Name)
		}
		names[bt.Name] = true
		if bt.Capacity < 1 {
			return configErrf("block type %q has capacity %d", bt.Name, bt.Capacity)
		}
		if bt.Width < 1 || bt.Height < 1 {
			return configErrf("block type %q has footprint %dx%d", bt.Name, bt.Width, bt.Height)
		}
		if bt.Root == nil {
			return configErrf("block type %q has no pb_type hierarchy", bt.Name)
		}
		if err := bt.Root.Finalize(); err != nil {
			return err
		}
	}
	for _, sw := range a.Switchblocks {
		if sw.Name == "" {
			return configErrf("switchblock without a name")
		}
	}
	for i, seg := range a.Segments {
		if seg.Length < 1 {
			return configErrf("segment %q has length %d", seg.Name, seg.Length)
		}
		if seg.WireSwitch < 0 || seg.WireSwitch >= len(a.Switches) ||
			seg.OpinSwitch < 0 || seg.OpinSwitch >= len(a.Switches) {
			return configErrf("segment %d (%q) references an unknown switch", i, seg.Name)
		}
	}
	return nil
}

// BuildGraphs flattens every block type, caching the trees on the types.
func (a *Arch) BuildGraphs() error {
	for _, bt := range a.BlockTypes {
		if _, err := bt.Graph(); err != nil {
			return err
		}
	}
	return nil
}

// MaxPinsPerTile returns the largest pin count over all block types.
func (a *Arch) MaxPinsPerTile() int {
	return MaxPinsPerTile(a.BlockTypes)
}
