// Package archfile loads YAML device architecture descriptions into the
// phys data model. The loader validates the hierarchy, flattens every block
// type once, and returns an architecture ready for the width search.
package archfile

import (
	"gopkg.in/yaml.v3"
)

// Spec is the top-level architecture description. Loaded from YAML via
// Load(path) or Parse(data).
type Spec struct {
	Grid         GridSpec          `yaml:"grid"`
	Routing      RoutingSpec       `yaml:"routing"`
	Channels     ChannelsSpec      `yaml:"channels"`
	Switches     []SwitchSpec      `yaml:"switches"`
	Segments     []SegmentSpec     `yaml:"segments"`
	Directs      []DirectSpec      `yaml:"directs,omitempty"`
	Switchblocks []SwitchblockSpec `yaml:"switchblocks,omitempty"`
	BlockTypes   []BlockTypeSpec   `yaml:"block_types"`
}

// GridSpec is the device grid extent in logic tiles.
type GridSpec struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// RoutingSpec carries the detailed-routing architecture parameters.
type RoutingSpec struct {
	Directionality    string `yaml:"directionality"` // "unidirectional" or "bidirectional"
	Fs                int    `yaml:"fs"`
	GlobalRouteSwitch int    `yaml:"global_route_switch,omitempty"`
	DelaylessSwitch   int    `yaml:"delayless_switch,omitempty"`
	WireToIpinSwitch  int    `yaml:"wire_to_ipin_switch,omitempty"`
}

// ChannelsSpec is the declared channel width distribution.
type ChannelsSpec struct {
	IOWidth float64     `yaml:"io_width"`
	X       DensitySpec `yaml:"x"`
	Y       DensitySpec `yaml:"y"`
}

// DensitySpec is one density curve (uniform, gaussian, pulse, delta).
type DensitySpec struct {
	Kind  string  `yaml:"kind"`
	Peak  float64 `yaml:"peak"`
	Width float64 `yaml:"width,omitempty"`
	Xpeak float64 `yaml:"xpeak,omitempty"`
	Dc    float64 `yaml:"dc,omitempty"`
}

// SwitchSpec is one architecture switch. Tdel gives a constant delay;
// TdelByFanin gives a fan-in keyed delay map (the two are exclusive).
type SwitchSpec struct {
	Name         string          `yaml:"name"`
	Buffered     bool            `yaml:"buffered"`
	R            float64         `yaml:"r,omitempty"`
	Cin          float64         `yaml:"cin,omitempty"`
	Cout         float64         `yaml:"cout,omitempty"`
	Tdel         float64         `yaml:"tdel,omitempty"`
	TdelByFanin  map[int]float64 `yaml:"tdel_by_fanin,omitempty"`
	MuxTransSize float64         `yaml:"mux_trans_size,omitempty"`
	BufSize      float64         `yaml:"buf_size,omitempty"`
}

// SegmentSpec is one wire segment type.
type SegmentSpec struct {
	Name           string  `yaml:"name"`
	Frequency      int     `yaml:"frequency"`
	Length         int     `yaml:"length"`
	Longline       bool    `yaml:"longline,omitempty"`
	WireSwitch     int     `yaml:"wire_switch"`
	OpinSwitch     int     `yaml:"opin_switch"`
	FracCB         float64 `yaml:"frac_cb,omitempty"`
	FracSB         float64 `yaml:"frac_sb,omitempty"`
	Rmetal         float64 `yaml:"rmetal,omitempty"`
	Cmetal         float64 `yaml:"cmetal,omitempty"`
	Directionality string  `yaml:"directionality,omitempty"`
	CB             []bool  `yaml:"cb,omitempty"`
	SB             []bool  `yaml:"sb,omitempty"`
}

// DirectSpec is one inter-block chain connection. The source line is kept
// for error reporting on placement macros.
type DirectSpec struct {
	Name    string `yaml:"name"`
	FromPin string `yaml:"from_pin"`
	ToPin   string `yaml:"to_pin"`
	XOffset int    `yaml:"x_offset,omitempty"`
	YOffset int    `yaml:"y_offset,omitempty"`
	ZOffset int    `yaml:"z_offset,omitempty"`
	Switch  int    `yaml:"switch"`

	line int
}

// UnmarshalYAML records the node's line alongside the decoded fields.
func (d *DirectSpec) UnmarshalYAML(value *yaml.Node) error {
	type raw DirectSpec
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}
	*d = DirectSpec(r)
	d.line = value.Line
	return nil
}

// SwitchblockSpec is one custom switch-block specification.
type SwitchblockSpec struct {
	Name           string            `yaml:"name"`
	Location       string            `yaml:"location"` // perimeter, corner, fringe, core, everywhere
	Directionality string            `yaml:"directionality"`
	Permutations   []PermutationSpec `yaml:"permutations,omitempty"`
	WireConns      []WireConnSpec    `yaml:"wireconns,omitempty"`
}

// PermutationSpec names the permutation functions for one side pair.
type PermutationSpec struct {
	From  string   `yaml:"from"`
	To    string   `yaml:"to"`
	Funcs []string `yaml:"funcs"`
}

// WireConnSpec is one wire-group connection rule.
type WireConnSpec struct {
	FromTypes  []string `yaml:"from_types"`
	ToTypes    []string `yaml:"to_types"`
	FromPoints []int    `yaml:"from_points"`
	ToPoints   []int    `yaml:"to_points"`
}

// BlockTypeSpec is one placeable tile type. FcIn/FcOut are the default
// connectivity fractions applied to every receiver/driver pin for every
// segment type.
type BlockTypeSpec struct {
	Name         string       `yaml:"name"`
	Capacity     int          `yaml:"capacity,omitempty"`
	Width        int          `yaml:"width,omitempty"`
	Height       int          `yaml:"height,omitempty"`
	FcIn         float64      `yaml:"fc_in"`
	FcOut        float64      `yaml:"fc_out"`
	PinLocations []PinLocSpec `yaml:"pin_locations,omitempty"`
	PbType       PbTypeSpec   `yaml:"pb_type"`
}

// PinLocSpec exposes pins on one face of one covered grid cell.
type PinLocSpec struct {
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Side string `yaml:"side"` // top, right, bottom, left
	Pins []int  `yaml:"pins"`
}

// PbTypeSpec is one hierarchy node. Leaves set Model; intermediate nodes
// set Modes. NumPB defaults to 1.
type PbTypeSpec struct {
	Name  string     `yaml:"name"`
	NumPB int        `yaml:"num_pb,omitempty"`
	Model string     `yaml:"model,omitempty"`
	Class string     `yaml:"class,omitempty"` // lut, latch, memory
	Ports []PortSpec `yaml:"ports"`
	Modes []ModeSpec `yaml:"modes,omitempty"`
}

// PortSpec is one named pin group.
type PortSpec struct {
	Name           string `yaml:"name"`
	Dir            string `yaml:"dir"` // input, output, clock
	NumPins        int    `yaml:"num_pins"`
	Equivalent     bool   `yaml:"equivalent,omitempty"`
	NonClockGlobal bool   `yaml:"non_clock_global,omitempty"`
	Class          string `yaml:"class,omitempty"`
}

// ModeSpec is one operational configuration of a pb_type.
type ModeSpec struct {
	Name         string             `yaml:"name"`
	Children     []PbTypeSpec       `yaml:"children"`
	Interconnect []InterconnectSpec `yaml:"interconnect,omitempty"`
}

// InterconnectSpec is one wiring rule. The YAML line number is captured so
// resolution errors during flattening point back at the description.
type InterconnectSpec struct {
	Name             string  `yaml:"name"`
	Kind             string  `yaml:"kind"` // complete, direct, mux
	Input            string  `yaml:"input"`
	Output           string  `yaml:"output"`
	DelayMax         float64 `yaml:"delay_max,omitempty"`
	DelayMin         float64 `yaml:"delay_min,omitempty"`
	Capacitance      float64 `yaml:"capacitance,omitempty"`
	PackPattern      string  `yaml:"pack_pattern,omitempty"`
	InferAnnotations bool    `yaml:"infer_annotations,omitempty"`

	line int
}

// UnmarshalYAML records the node's line alongside the decoded fields.
func (s *InterconnectSpec) UnmarshalYAML(value *yaml.Node) error {
	type raw InterconnectSpec
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}
	*s = InterconnectSpec(r)
	s.line = value.Line
	return nil
}
