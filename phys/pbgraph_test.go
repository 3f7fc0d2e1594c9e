package phys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClusterType builds a small two-level cluster: a clb with four
// equivalent inputs, two equivalent outputs and a clock, containing two
// LUT+FF style primitives wired by a crossbar, a direct output bus and a
// feedback path.
func testClusterType(t *testing.T) *BlockType {
	t.Helper()

	ble := &PbType{
		Name:      "ble",
		NumPB:     2,
		ModelName: "names",
		Class:     ClassLUT,
		Ports: []*Port{
			{Name: "in", Dir: PortInput, NumPins: 2},
			{Name: "out", Dir: PortOutput, NumPins: 1},
			{Name: "clk", Dir: PortClock, NumPins: 1},
		},
	}
	clb := &PbType{
		Name:  "clb",
		NumPB: 1,
		Ports: []*Port{
			{Name: "I", Dir: PortInput, NumPins: 4, Equivalent: true},
			{Name: "O", Dir: PortOutput, NumPins: 2, Equivalent: true},
			{Name: "clk", Dir: PortClock, NumPins: 1},
		},
		Modes: []*Mode{{
			Name:     "default",
			Children: []*PbType{ble},
			Interconnects: []*Interconnect{
				{Kind: CompleteInterc, Name: "xbar", Input: "clb.I", Output: "ble[1:0].in", Line: 10},
				{Kind: DirectInterc, Name: "outs", Input: "ble[1:0].out", Output: "clb.O", Line: 11},
				{Kind: CompleteInterc, Name: "clks", Input: "clb.clk", Output: "ble[1:0].clk", Line: 12},
				{Kind: CompleteInterc, Name: "fb", Input: "ble[1:0].out", Output: "ble[1:0].in", Line: 13},
			},
		}},
	}
	bt := &BlockType{Name: "clb", Capacity: 1, Width: 1, Height: 1, Root: clb}
	require.NoError(t, clb.Finalize())
	return bt
}

func TestBuildPbGraph_FlattensInstancesAndPins(t *testing.T) {
	bt := testClusterType(t)
	root, err := bt.Graph()
	require.NoError(t, err)

	// clb contributes 7 pins, each of the two ble instances 4.
	assert.Equal(t, 15, root.TotalPins)
	assert.Equal(t, 15, bt.NumPins)

	require.Len(t, root.Children, 1)    // one mode
	require.Len(t, root.Children[0], 1) // one child type
	instances := root.Children[0][0]
	require.Len(t, instances, 2) // num_pb
	assert.Equal(t, 0, instances[0].PlacementIndex)
	assert.Equal(t, 1, instances[1].PlacementIndex)
	assert.True(t, instances[0].IsPrimitive())
	assert.Same(t, root, instances[0].Parent)

	// Pin numbering is depth-first and dense.
	seen := map[int]bool{}
	root.Walk(func(n *PbGraphNode) {
		n.EachPin(func(p *PbGraphPin) {
			assert.False(t, seen[p.PinCountInCluster], "pin number %d reused", p.PinCountInCluster)
			seen[p.PinCountInCluster] = true
		})
	})
	assert.Len(t, seen, 15)
}

func TestBuildPbGraph_DeclaredPinCountMismatch_Errors(t *testing.T) {
	bt := testClusterType(t)
	bt.NumPins = 3

	_, err := bt.Graph()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "flattens to 15")
}

func TestBuildPbGraph_GraphIsCachedFlyweight(t *testing.T) {
	bt := testClusterType(t)
	first, err := bt.Graph()
	require.NoError(t, err)
	second, err := bt.Graph()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestBuildPbGraph_PinKinds(t *testing.T) {
	bt := testClusterType(t)
	root, err := bt.Graph()
	require.NoError(t, err)

	root.EachPin(func(p *PbGraphPin) {
		assert.Equal(t, PinTerminal, p.Kind)
	})
	ble := root.Children[0][0][0]
	assert.Equal(t, PinNormal, ble.InputPins[0][0].Kind)
	assert.Equal(t, PinNormal, ble.OutputPins[0][0].Kind)
	assert.Equal(t, PinClock, ble.ClockPins[0][0].Kind)
}

func TestBuildPbGraph_PadAndLatchPinKinds(t *testing.T) {
	pad := &PbType{
		Name:      "inpad",
		NumPB:     1,
		ModelName: "input",
		Ports:     []*Port{{Name: "out", Dir: PortOutput, NumPins: 1}},
	}
	ff := &PbType{
		Name:      "ff",
		NumPB:     1,
		ModelName: "latch",
		Class:     ClassLatch,
		Ports: []*Port{
			{Name: "D", Dir: PortInput, NumPins: 1},
			{Name: "Q", Dir: PortOutput, NumPins: 1},
			{Name: "clk", Dir: PortClock, NumPins: 1},
		},
	}
	io := &PbType{
		Name:  "io",
		NumPB: 1,
		Ports: []*Port{
			{Name: "I", Dir: PortInput, NumPins: 1},
			{Name: "O", Dir: PortOutput, NumPins: 1},
			{Name: "clk", Dir: PortClock, NumPins: 1},
		},
		Modes: []*Mode{{
			Name:     "default",
			Children: []*PbType{pad, ff},
			Interconnects: []*Interconnect{
				{Kind: DirectInterc, Name: "pd", Input: "inpad.out", Output: "ff.D"},
				{Kind: DirectInterc, Name: "q", Input: "ff.Q", Output: "io.O"},
				{Kind: CompleteInterc, Name: "clk", Input: "io.clk", Output: "ff.clk"},
			},
		}},
	}
	bt := &BlockType{Name: "io", Capacity: 8, Width: 1, Height: 1, Root: io}
	require.NoError(t, io.Finalize())
	root, err := bt.Graph()
	require.NoError(t, err)

	padNode := root.Children[0][0][0]
	ffNode := root.Children[0][1][0]
	assert.Equal(t, PinInpad, padNode.OutputPins[0][0].Kind)
	assert.Equal(t, PinSequential, ffNode.InputPins[0][0].Kind)
	assert.Equal(t, PinSequential, ffNode.OutputPins[0][0].Kind)
	assert.Equal(t, PinClock, ffNode.ClockPins[0][0].Kind)
}

func TestBuildPbGraph_ClusterPinClasses(t *testing.T) {
	bt := testClusterType(t)
	root, err := bt.Graph()
	require.NoError(t, err)

	// I (equivalent) forms one class of 4, O (equivalent) one class of 2,
	// the clock one single-pin class.
	require.Len(t, bt.PinClasses, 3)
	assert.Equal(t, ClassReceiver, bt.PinClasses[0].Type)
	assert.Len(t, bt.PinClasses[0].Pins, 4)
	assert.Equal(t, ClassDriver, bt.PinClasses[1].Type)
	assert.Len(t, bt.PinClasses[1].Pins, 2)
	assert.Len(t, bt.PinClasses[2].Pins, 1)

	assert.Equal(t, 2, bt.NumDrivers)
	assert.Equal(t, 5, bt.NumReceivers)

	// Terminal pins carry their class index; internal pins carry none.
	root.EachPin(func(p *PbGraphPin) {
		assert.Equal(t, bt.PinClassOf[p.PinCountInCluster], p.PinClass)
	})
	ble := root.Children[0][0][0]
	assert.Equal(t, -1, bt.PinClassOf[ble.InputPins[0][0].PinCountInCluster])
}

func TestBuildPbGraph_NonEquivalentPorts_OneClassPerPin(t *testing.T) {
	bt := testClusterType(t)
	bt.Root.Ports[0].Equivalent = false
	root, err := buildPbGraph(bt)
	require.NoError(t, err)
	require.NotNil(t, root)

	// 4 single-pin input classes + 1 output class + 1 clock class.
	assert.Len(t, bt.PinClasses, 6)
}

func TestConnectNode_CompleteInterconnect_FullCrossbar(t *testing.T) {
	bt := testClusterType(t)
	root, err := bt.Graph()
	require.NoError(t, err)

	// Every clb.I pin fans out to all 4 ble input pins.
	iPins := root.InputPins[0]
	require.Len(t, iPins, 4)
	for i := range iPins {
		assert.Len(t, iPins[i].OutputEdges, 4)
	}
	// Every ble input pin is driven by the 4 cluster inputs plus the 2
	// feedback sources.
	ble := root.Children[0][0][0]
	assert.Len(t, ble.InputPins[0][0].InputEdges, 6)
}

func TestConnectNode_DirectInterconnect_Positional(t *testing.T) {
	bt := testClusterType(t)
	root, err := bt.Graph()
	require.NoError(t, err)

	// "ble[1:0].out" iterates written order, so ble[1] drives O[0].
	oPins := root.OutputPins[0]
	ble1 := root.Children[0][0][1]
	require.Len(t, oPins[0].InputEdges, 1)
	assert.Same(t, &ble1.OutputPins[0][0], oPins[0].InputEdges[0].Inputs[0])
}

func TestConnectNode_DirectWidthMismatch_ErrorsWithLine(t *testing.T) {
	bt := testClusterType(t)
	bt.Root.Modes[0].Interconnects[1].Output = "clb.O[0]"
	require.NoError(t, bt.Root.Finalize())

	_, err := bt.Graph()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "line 11")
	assert.Contains(t, err.Error(), "connects 2 pins to 1 pins")
}

func TestConnectNode_UnknownPort_ErrorsWithLine(t *testing.T) {
	bt := testClusterType(t)
	bt.Root.Modes[0].Interconnects[0].Output = "ble[1:0].nonesuch"

	_, err := bt.Graph()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "line 10")
	assert.Contains(t, err.Error(), `no port "nonesuch"`)
}

func TestConnectNode_UnknownChild_Errors(t *testing.T) {
	bt := testClusterType(t)
	bt.Root.Modes[0].Interconnects[0].Output = "alu[1:0].in"

	_, err := bt.Graph()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), `"alu"`)
}

func TestConnectNode_RangeBeyondExtent_Errors(t *testing.T) {
	bt := testClusterType(t)
	bt.Root.Modes[0].Interconnects[0].Input = "clb.I[7:0]"

	_, err := bt.Graph()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "exceeds extent 4")
}

func TestConnectNode_MuxInterconnect_OneFatEdgePerInputSet(t *testing.T) {
	leaf := &PbType{
		Name:      "leaf",
		NumPB:     1,
		ModelName: "names",
		Class:     ClassLUT,
		Ports: []*Port{
			{Name: "in", Dir: PortInput, NumPins: 2},
			{Name: "out", Dir: PortOutput, NumPins: 2},
		},
	}
	top := &PbType{
		Name:  "top",
		NumPB: 1,
		Ports: []*Port{
			{Name: "A", Dir: PortInput, NumPins: 2},
			{Name: "B", Dir: PortInput, NumPins: 2},
			{Name: "O", Dir: PortOutput, NumPins: 2},
		},
		Modes: []*Mode{{
			Name:     "default",
			Children: []*PbType{leaf},
			Interconnects: []*Interconnect{
				{Kind: MuxInterc, Name: "sel", Input: "top.A top.B", Output: "leaf.in"},
				{Kind: DirectInterc, Name: "o", Input: "leaf.out", Output: "top.O"},
			},
		}},
	}
	bt := &BlockType{Name: "top", Capacity: 1, Width: 1, Height: 1, Root: top}
	require.NoError(t, top.Finalize())
	root, err := bt.Graph()
	require.NoError(t, err)

	// Each input set becomes one bus edge driving both leaf input pins.
	leafNode := root.Children[0][0][0]
	in0 := &leafNode.InputPins[0][0]
	require.Len(t, in0.InputEdges, 2)
	for _, e := range in0.InputEdges {
		assert.True(t, e.IsBus())
		assert.Len(t, e.Inputs, 2)
		assert.Len(t, e.Outputs, 2)
	}
}

func TestConnectNode_MuxSetWidthMismatch_Errors(t *testing.T) {
	bt := testClusterType(t)
	bt.Root.Modes[0].Interconnects[0] = &Interconnect{
		Kind: MuxInterc, Name: "bad", Input: "clb.I[0]", Output: "ble[1:0].in", Line: 10,
	}

	_, err := bt.Graph()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "input set has 1 pins, output has 4")
}

func TestClassifyPins_ForcedConnection(t *testing.T) {
	bt := testClusterType(t)
	// Drop the feedback crossbar so each ble output drives exactly one pin.
	bt.Root.Modes[0].Interconnects = bt.Root.Modes[0].Interconnects[:3]
	root, err := bt.Graph()
	require.NoError(t, err)

	ble := root.Children[0][0][0]
	assert.True(t, ble.OutputPins[0][0].IsForcedConnection)
}

func TestClassifyPins_FanoutOutputNotForced(t *testing.T) {
	bt := testClusterType(t)
	root, err := bt.Graph()
	require.NoError(t, err)

	// With the feedback crossbar present each ble output drives 5 edges.
	ble := root.Children[0][0][0]
	assert.False(t, ble.OutputPins[0][0].IsForcedConnection)
	assert.Len(t, ble.OutputPins[0][0].OutputEdges, 5)
}

func TestInterconnect_EdgeCarriesDelayAndPackPattern(t *testing.T) {
	bt := testClusterType(t)
	ic := bt.Root.Modes[0].Interconnects[1]
	ic.DelayMax = 2.5e-10
	ic.PackPattern = "ble_out"
	root, err := bt.Graph()
	require.NoError(t, err)

	e := root.OutputPins[0][0].InputEdges[0]
	assert.Equal(t, 2.5e-10, e.DelayMax)
	assert.Equal(t, []string{"ble_out"}, e.PackPatterns)
	assert.Same(t, ic, e.Interconnect)
}
