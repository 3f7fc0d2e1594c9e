package archfile

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/archroute/archroute/phys"
)

// Load reads and converts a YAML architecture description. The returned
// architecture is validated and every block type is already flattened.
func Load(path string) (*phys.Arch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading architecture file: %w", err)
	}
	arch, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("architecture file %s: %w", path, err)
	}
	return arch, nil
}

// Parse converts an in-memory YAML architecture description.
func Parse(data []byte) (*phys.Arch, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", phys.ErrConfig, err)
	}
	return spec.Convert()
}

// Convert builds the phys.Arch from the decoded spec, validates it and
// flattens every block type.
func (s *Spec) Convert() (*phys.Arch, error) {
	dir, err := parseDirectionality(s.Routing.Directionality)
	if err != nil {
		return nil, err
	}

	arch := &phys.Arch{
		Routing: phys.RoutingArch{
			Directionality:    dir,
			Fs:                s.Routing.Fs,
			GlobalRouteSwitch: s.Routing.GlobalRouteSwitch,
			DelaylessSwitch:   s.Routing.DelaylessSwitch,
			WireToIpinSwitch:  s.Routing.WireToIpinSwitch,
		},
		GridRows: s.Grid.Rows,
		GridCols: s.Grid.Cols,
	}

	if arch.ChanWidthDist, err = s.Channels.convert(); err != nil {
		return nil, err
	}

	for _, sw := range s.Switches {
		arch.Switches = append(arch.Switches, sw.convert())
	}
	for _, seg := range s.Segments {
		converted, err := seg.convert()
		if err != nil {
			return nil, err
		}
		arch.Segments = append(arch.Segments, converted)
	}
	for _, d := range s.Directs {
		arch.Directs = append(arch.Directs, &phys.Direct{
			Name:       d.Name,
			FromPin:    d.FromPin,
			ToPin:      d.ToPin,
			XOffset:    d.XOffset,
			YOffset:    d.YOffset,
			ZOffset:    d.ZOffset,
			SwitchType: d.Switch,
			Line:       d.line,
		})
	}
	for _, sb := range s.Switchblocks {
		converted, err := sb.convert()
		if err != nil {
			return nil, err
		}
		arch.Switchblocks = append(arch.Switchblocks, converted)
	}

	for _, bts := range s.BlockTypes {
		bt, err := bts.convert()
		if err != nil {
			return nil, err
		}
		arch.BlockTypes = append(arch.BlockTypes, bt)
	}

	if err := arch.Validate(); err != nil {
		return nil, err
	}
	if err := arch.BuildGraphs(); err != nil {
		return nil, err
	}

	// Fc and global-pin tables are per flattened cluster pin, so they can
	// only be sized once the hierarchy is flattened.
	for i, bts := range s.BlockTypes {
		fillPinTables(arch.BlockTypes[i], bts.FcIn, bts.FcOut, len(arch.Segments))
	}

	logrus.Debugf("loaded architecture: %d block types, %d segments, %d switches, grid %dx%d",
		len(arch.BlockTypes), len(arch.Segments), len(arch.Switches), arch.GridRows, arch.GridCols)
	return arch, nil
}

func (c ChannelsSpec) convert() (phys.ChannelWidthDistribution, error) {
	var dist phys.ChannelWidthDistribution
	var err error
	dist.IOWidth = c.IOWidth
	if dist.X, err = c.X.convert(); err != nil {
		return dist, err
	}
	if dist.Y, err = c.Y.convert(); err != nil {
		return dist, err
	}
	return dist, nil
}

func (d DensitySpec) convert() (phys.ChannelDensity, error) {
	kind, err := phys.ParseDensityKind(d.Kind)
	if err != nil {
		return phys.ChannelDensity{}, err
	}
	return phys.ChannelDensity{
		Kind:  kind,
		Peak:  d.Peak,
		Width: d.Width,
		Xpeak: d.Xpeak,
		Dc:    d.Dc,
	}, nil
}

func (sw SwitchSpec) convert() *phys.Switch {
	tdel := sw.TdelByFanin
	if tdel == nil {
		tdel = map[int]float64{phys.UndefinedFanin: sw.Tdel}
	}
	return &phys.Switch{
		Name:         sw.Name,
		Buffered:     sw.Buffered,
		R:            sw.R,
		Cin:          sw.Cin,
		Cout:         sw.Cout,
		TdelMap:      tdel,
		MuxTransSize: sw.MuxTransSize,
		BufSize:      sw.BufSize,
	}
}

func (seg SegmentSpec) convert() (*phys.Segment, error) {
	dir := phys.Bidirectional
	if seg.Directionality != "" {
		var err error
		if dir, err = parseDirectionality(seg.Directionality); err != nil {
			return nil, err
		}
	}
	return &phys.Segment{
		Name:           seg.Name,
		Frequency:      seg.Frequency,
		Length:         seg.Length,
		Longline:       seg.Longline,
		WireSwitch:     seg.WireSwitch,
		OpinSwitch:     seg.OpinSwitch,
		FracCB:         seg.FracCB,
		FracSB:         seg.FracSB,
		Rmetal:         seg.Rmetal,
		Cmetal:         seg.Cmetal,
		Directionality: dir,
	}, nil
}

func (sb SwitchblockSpec) convert() (*phys.Switchblock, error) {
	loc, err := parseSBLocation(sb.Location)
	if err != nil {
		return nil, err
	}
	dir, err := parseDirectionality(sb.Directionality)
	if err != nil {
		return nil, err
	}
	out := &phys.Switchblock{
		Name:           sb.Name,
		Location:       loc,
		Directionality: dir,
		Permutations:   map[phys.SideConnection][]string{},
	}
	for _, p := range sb.Permutations {
		from, err := parseSide(p.From)
		if err != nil {
			return nil, err
		}
		to, err := parseSide(p.To)
		if err != nil {
			return nil, err
		}
		out.Permutations[phys.SideConnection{From: from, To: to}] = p.Funcs
	}
	for _, wc := range sb.WireConns {
		out.WireConns = append(out.WireConns, phys.WireConn{
			FromTypes:  wc.FromTypes,
			ToTypes:    wc.ToTypes,
			FromPoints: wc.FromPoints,
			ToPoints:   wc.ToPoints,
		})
	}
	return out, nil
}

func (bts BlockTypeSpec) convert() (*phys.BlockType, error) {
	bt := &phys.BlockType{
		Name:     bts.Name,
		Capacity: defaultInt(bts.Capacity, 1),
		Width:    defaultInt(bts.Width, 1),
		Height:   defaultInt(bts.Height, 1),
	}
	root, err := bts.PbType.convert()
	if err != nil {
		return nil, err
	}
	bt.Root = root

	bt.PinLocations = phys.NewPinLocations(bt.Width, bt.Height)
	for _, pl := range bts.PinLocations {
		side, err := parseSide(pl.Side)
		if err != nil {
			return nil, err
		}
		bt.PinLocations.Assign(pl.X, pl.Y, side, pl.Pins...)
	}
	return bt, nil
}

func (pts PbTypeSpec) convert() (*phys.PbType, error) {
	pt := &phys.PbType{
		Name:      pts.Name,
		NumPB:     defaultInt(pts.NumPB, 1),
		ModelName: pts.Model,
	}
	switch pts.Class {
	case "":
		pt.Class = phys.ClassUnknown
	case "lut":
		pt.Class = phys.ClassLUT
	case "latch":
		pt.Class = phys.ClassLatch
	case "memory":
		pt.Class = phys.ClassMemory
	default:
		return nil, fmt.Errorf("%w: pb_type %q has unknown class %q", phys.ErrConfig, pts.Name, pts.Class)
	}

	for _, ps := range pts.Ports {
		dir, err := parsePortDir(ps.Dir)
		if err != nil {
			return nil, fmt.Errorf("pb_type %q port %q: %w", pts.Name, ps.Name, err)
		}
		pt.Ports = append(pt.Ports, &phys.Port{
			Name:             ps.Name,
			Dir:              dir,
			NumPins:          ps.NumPins,
			Equivalent:       ps.Equivalent,
			IsNonClockGlobal: ps.NonClockGlobal,
			PortClass:        ps.Class,
		})
	}

	for _, ms := range pts.Modes {
		mode := &phys.Mode{Name: ms.Name}
		for _, child := range ms.Children {
			converted, err := child.convert()
			if err != nil {
				return nil, err
			}
			mode.Children = append(mode.Children, converted)
		}
		for _, ics := range ms.Interconnect {
			kind, err := parseInterconnectKind(ics.Kind, ics.line)
			if err != nil {
				return nil, err
			}
			mode.Interconnects = append(mode.Interconnects, &phys.Interconnect{
				Kind:             kind,
				Name:             ics.Name,
				Input:            ics.Input,
				Output:           ics.Output,
				DelayMax:         ics.DelayMax,
				DelayMin:         ics.DelayMin,
				Capacitance:      ics.Capacitance,
				PackPattern:      ics.PackPattern,
				InferAnnotations: ics.InferAnnotations,
				Line:             ics.line,
			})
		}
		pt.Modes = append(pt.Modes, mode)
	}
	return pt, nil
}

// fillPinTables sizes the per-pin Fc and global-pin tables from the
// flattened tree: receiver pins take fc_in, driver pins fc_out, and root
// clock/global pins are excluded from general routing.
func fillPinTables(bt *phys.BlockType, fcIn, fcOut float64, numSegments int) {
	graph, err := bt.Graph()
	if err != nil {
		// Convert already flattened this type; a failure here is a bug.
		panic(err)
	}
	bt.Fc = make([][]float64, bt.NumPins)
	bt.IsGlobalPin = make([]bool, bt.NumPins)
	graph.Walk(func(n *phys.PbGraphNode) {
		n.EachPin(func(p *phys.PbGraphPin) {
			fc := fcIn
			if p.Port.Dir == phys.PortOutput {
				fc = fcOut
			}
			row := make([]float64, numSegments)
			for i := range row {
				row[i] = fc
			}
			bt.Fc[p.PinCountInCluster] = row
			if n.IsRoot() && (p.Port.Dir == phys.PortClock || p.Port.IsNonClockGlobal) {
				bt.IsGlobalPin[p.PinCountInCluster] = true
			}
		})
	})
}

func parseDirectionality(s string) (phys.Directionality, error) {
	switch s {
	case "unidirectional":
		return phys.Unidirectional, nil
	case "bidirectional":
		return phys.Bidirectional, nil
	}
	return 0, fmt.Errorf("%w: unknown directionality %q", phys.ErrConfig, s)
}

func parsePortDir(s string) (phys.PortDirection, error) {
	switch s {
	case "input":
		return phys.PortInput, nil
	case "output":
		return phys.PortOutput, nil
	case "clock":
		return phys.PortClock, nil
	}
	return 0, fmt.Errorf("%w: unknown port direction %q", phys.ErrConfig, s)
}

func parseSide(s string) (phys.Side, error) {
	switch s {
	case "top":
		return phys.SideTop, nil
	case "right":
		return phys.SideRight, nil
	case "bottom":
		return phys.SideBottom, nil
	case "left":
		return phys.SideLeft, nil
	}
	return 0, fmt.Errorf("%w: unknown side %q", phys.ErrConfig, s)
}

func parseSBLocation(s string) (phys.SwitchblockLocation, error) {
	switch s {
	case "perimeter":
		return phys.SBPerimeter, nil
	case "corner":
		return phys.SBCorner, nil
	case "fringe":
		return phys.SBFringe, nil
	case "core":
		return phys.SBCore, nil
	case "everywhere", "":
		return phys.SBEverywhere, nil
	}
	return 0, fmt.Errorf("%w: unknown switchblock location %q", phys.ErrConfig, s)
}

func parseInterconnectKind(s string, line int) (phys.InterconnectKind, error) {
	switch s {
	case "complete":
		return phys.CompleteInterc, nil
	case "direct":
		return phys.DirectInterc, nil
	case "mux":
		return phys.MuxInterc, nil
	}
	return 0, fmt.Errorf("%w: line %d: unknown interconnect kind %q", phys.ErrConfig, line, s)
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
