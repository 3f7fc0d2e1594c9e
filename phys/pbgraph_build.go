package phys

import (
	"github.com/sirupsen/logrus"
)

// buildPbGraph flattens a BlockType's PbType hierarchy into its PbGraphNode
// tree: one node per physical instance, pins replicated per port, edges
// resolved from each mode's interconnect, cluster pin classes derived from
// the root ports, and per-depth reachability tables computed for every
// primitive output pin.
func buildPbGraph(bt *BlockType) (*PbGraphNode, error) {
	if bt.Root == nil {
		return nil, configErrf("block type %q has no pb_type hierarchy", bt.Name)
	}

	b := &graphBuilder{bt: bt}
	root := b.allocNode(bt.Root, nil, 0)
	root.TotalPins = b.pinCount

	if bt.NumPins != 0 && bt.NumPins != root.TotalPins {
		return nil, configErrf("block type %q declares %d pins but its hierarchy flattens to %d",
			bt.Name, bt.NumPins, root.TotalPins)
	}
	bt.NumPins = root.TotalPins

	var err error
	root.Walk(func(n *PbGraphNode) {
		if err == nil {
			err = b.connectNode(n)
		}
	})
	if err != nil {
		return nil, err
	}

	classifyPins(root)
	loadClusterPinClasses(bt, root)
	computeReachability(root)

	logrus.Debugf("flattened block type %q: %d pins, %d cluster pin classes",
		bt.Name, root.TotalPins, len(bt.PinClasses))
	return root, nil
}

type graphBuilder struct {
	bt       *BlockType
	pinCount int
}

// allocNode instantiates one PbGraphNode for pt and recurses into every
// mode's children, creating NumPB instances per child type.
func (b *graphBuilder) allocNode(pt *PbType, parent *PbGraphNode, placementIndex int) *PbGraphNode {
	n := &PbGraphNode{
		PbType:         pt,
		PlacementIndex: placementIndex,
		Parent:         parent,
	}

	var numIn, numOut, numClk int
	for _, port := range pt.Ports {
		switch port.Dir {
		case PortInput:
			numIn++
		case PortOutput:
			numOut++
		case PortClock:
			numClk++
		}
	}
	n.InputPins = make([][]PbGraphPin, numIn)
	n.OutputPins = make([][]PbGraphPin, numOut)
	n.ClockPins = make([][]PbGraphPin, numClk)

	for _, port := range pt.Ports {
		pins := make([]PbGraphPin, port.NumPins)
		for i := range pins {
			pins[i] = PbGraphPin{
				Port:              port,
				PinNumber:         i,
				Node:              n,
				PinCountInCluster: b.pinCount,
			}
			b.pinCount++
		}
		switch port.Dir {
		case PortInput:
			n.InputPins[port.IndexByDir] = pins
		case PortOutput:
			n.OutputPins[port.IndexByDir] = pins
		case PortClock:
			n.ClockPins[port.IndexByDir] = pins
		}
	}

	n.Children = make([][][]*PbGraphNode, len(pt.Modes))
	for im, mode := range pt.Modes {
		n.Children[im] = make([][]*PbGraphNode, len(mode.Children))
		for ic, child := range mode.Children {
			instances := make([]*PbGraphNode, child.NumPB)
			for i := range instances {
				instances[i] = b.allocNode(child, n, i)
			}
			n.Children[im][ic] = instances
		}
	}
	return n
}

// classifyPins tags every pin of the tree. Boundary pins of the root are
// terminals; clock-port pins are clocks; pins of I/O pad primitives are
// inpads/outpads; non-clock pins of latch and memory primitives are
// sequential; everything else is normal. Forced connections (an output pin
// wired to exactly one input pin) are marked here too since all edges exist
// by now.
func classifyPins(root *PbGraphNode) {
	root.Walk(func(n *PbGraphNode) {
		n.EachPin(func(p *PbGraphPin) {
			p.Kind = pinKindFor(n, p)
			if p.Port.Dir == PortOutput &&
				len(p.OutputEdges) == 1 &&
				len(p.OutputEdges[0].Inputs) == 1 &&
				len(p.OutputEdges[0].Outputs) == 1 {
				p.IsForcedConnection = true
			}
		})
	})
}

func pinKindFor(n *PbGraphNode, p *PbGraphPin) PinKind {
	if n.IsRoot() {
		return PinTerminal
	}
	if p.Port.Dir == PortClock {
		return PinClock
	}
	if n.IsPrimitive() {
		switch n.PbType.ModelName {
		case "input":
			return PinInpad
		case "output":
			return PinOutpad
		}
		switch n.PbType.Class {
		case ClassLatch, ClassMemory:
			return PinSequential
		}
	}
	return PinNormal
}

// loadClusterPinClasses derives the block type's logically-equivalent pin
// classes from the root ports: an equivalent port forms one class holding
// all its pins, any other port contributes one single-pin class per pin.
// Inputs and clocks are receivers from the fabric's point of view; only
// outputs drive it.
func loadClusterPinClasses(bt *BlockType, root *PbGraphNode) {
	bt.PinClasses = nil
	bt.PinClassOf = make([]int, root.TotalPins)
	for i := range bt.PinClassOf {
		bt.PinClassOf[i] = -1
	}
	bt.NumDrivers, bt.NumReceivers = 0, 0

	addClass := func(ct PinClassType, pins []int) {
		idx := len(bt.PinClasses)
		bt.PinClasses = append(bt.PinClasses, PinClass{Type: ct, Pins: pins})
		for _, pin := range pins {
			bt.PinClassOf[pin] = idx
		}
		if ct == ClassDriver {
			bt.NumDrivers += len(pins)
		} else {
			bt.NumReceivers += len(pins)
		}
	}

	for _, port := range root.PbType.Ports {
		ct := ClassReceiver
		if port.Dir == PortOutput {
			ct = ClassDriver
		}
		pins := root.PortPins(port)
		if port.Equivalent {
			nums := make([]int, len(pins))
			for i := range pins {
				nums[i] = pins[i].PinCountInCluster
			}
			addClass(ct, nums)
			continue
		}
		for i := range pins {
			addClass(ct, []int{pins[i].PinCountInCluster})
		}
	}

	// Record the class index on the terminal pins themselves.
	for _, port := range root.PbType.Ports {
		pins := root.PortPins(port)
		for i := range pins {
			pins[i].PinClass = bt.PinClassOf[pins[i].PinCountInCluster]
		}
	}
}
