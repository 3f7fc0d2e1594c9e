package phys

import (
	"strconv"
	"strings"
)

// connectNode builds the edges declared by every mode of n's PbType. Each
// interconnect's pin expressions are resolved against n (the parent) and
// the child instances of that mode; a reference that resolves to nothing is
// a configuration error reported with the interconnect's source line.
func (b *graphBuilder) connectNode(n *PbGraphNode) error {
	for im, mode := range n.PbType.Modes {
		for _, ic := range mode.Interconnects {
			inSets, err := resolvePinSets(n, im, ic.Input, ic.Line)
			if err != nil {
				return err
			}
			outSets, err := resolvePinSets(n, im, ic.Output, ic.Line)
			if err != nil {
				return err
			}
			outs := flattenSets(outSets)
			if len(outs) == 0 {
				return configErrLine(ic.Line, "interconnect %q output %q resolves to no pins", ic.Name, ic.Output)
			}
			ins := flattenSets(inSets)
			if len(ins) == 0 {
				return configErrLine(ic.Line, "interconnect %q input %q resolves to no pins", ic.Name, ic.Input)
			}

			switch ic.Kind {
			case CompleteInterc:
				for _, in := range ins {
					for _, out := range outs {
						addEdge(ic, []*PbGraphPin{in}, []*PbGraphPin{out})
					}
				}
			case DirectInterc:
				if len(ins) != len(outs) {
					return configErrLine(ic.Line, "direct interconnect %q connects %d pins to %d pins",
						ic.Name, len(ins), len(outs))
				}
				for i := range ins {
					addEdge(ic, []*PbGraphPin{ins[i]}, []*PbGraphPin{outs[i]})
				}
			case MuxInterc:
				// Each input set is one alternative driver of the output
				// set; a multi-bit output makes this a bus mux carried on a
				// single fat edge.
				for _, set := range inSets {
					if len(set) != len(outs) {
						return configErrLine(ic.Line, "mux interconnect %q input set has %d pins, output has %d",
							ic.Name, len(set), len(outs))
					}
					addEdge(ic, set, outs)
				}
			}
		}
	}
	return nil
}

// addEdge creates one edge and registers it on both pin sides.
func addEdge(ic *Interconnect, ins, outs []*PbGraphPin) {
	e := &PbGraphEdge{
		Inputs:       ins,
		Outputs:      outs,
		Interconnect: ic,
		DelayMax:     ic.DelayMax,
		DelayMin:     ic.DelayMin,
		Capacitance:  ic.Capacitance,
		InferPattern: ic.InferAnnotations,
	}
	if ic.PackPattern != "" {
		e.PackPatterns = []string{ic.PackPattern}
	}
	for _, p := range ins {
		p.OutputEdges = append(p.OutputEdges, e)
	}
	for _, p := range outs {
		p.InputEdges = append(p.InputEdges, e)
	}
}

func flattenSets(sets [][]*PbGraphPin) []*PbGraphPin {
	var all []*PbGraphPin
	for _, s := range sets {
		all = append(all, s...)
	}
	return all
}

// resolvePinSets resolves a pin-name expression into one pin set per
// space-separated term. Term grammar:
//
//	name[hi:lo].port[hi:lo]
//
// where name is the parent pb_type or a child pb_type of the mode, the
// first range selects instances (default: all, ascending) and the second
// selects pins within the port (default: all, ascending). Ranges iterate in
// the written order, so [3:0] yields descending pins.
func resolvePinSets(n *PbGraphNode, modeIndex int, expr string, line int) ([][]*PbGraphPin, error) {
	terms := strings.Fields(expr)
	if len(terms) == 0 {
		return nil, configErrLine(line, "empty pin expression")
	}
	sets := make([][]*PbGraphPin, 0, len(terms))
	for _, term := range terms {
		set, err := resolveTerm(n, modeIndex, term, line)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func resolveTerm(n *PbGraphNode, modeIndex int, term string, line int) ([]*PbGraphPin, error) {
	dot := strings.IndexByte(term, '.')
	if dot < 0 {
		return nil, configErrLine(line, "pin reference %q lacks a port", term)
	}
	nodePart, portPart := term[:dot], term[dot+1:]

	nodeName, instRange, err := splitRange(nodePart, line)
	if err != nil {
		return nil, err
	}
	portName, pinRange, err := splitRange(portPart, line)
	if err != nil {
		return nil, err
	}

	nodes, err := selectNodes(n, modeIndex, nodeName, instRange, line)
	if err != nil {
		return nil, err
	}

	var set []*PbGraphPin
	for _, target := range nodes {
		port := target.PbType.Port(portName)
		if port == nil {
			return nil, configErrLine(line, "pin reference %q: pb_type %q has no port %q",
				term, target.PbType.Name, portName)
		}
		pins := target.PortPins(port)
		indices, err := rangeIndices(pinRange, len(pins), term, line)
		if err != nil {
			return nil, err
		}
		for _, i := range indices {
			set = append(set, &pins[i])
		}
	}
	return set, nil
}

// selectNodes maps a name to the parent node itself or to the selected
// instances of a child pb_type of the active mode.
func selectNodes(n *PbGraphNode, modeIndex int, name string, r *pinRange, line int) ([]*PbGraphNode, error) {
	if name == n.PbType.Name {
		if r != nil {
			return nil, configErrLine(line, "instance range on parent pb_type %q", name)
		}
		return []*PbGraphNode{n}, nil
	}
	mode := n.PbType.Modes[modeIndex]
	for ic, child := range mode.Children {
		if child.Name != name {
			continue
		}
		instances := n.Children[modeIndex][ic]
		indices, err := rangeIndices(r, len(instances), name, line)
		if err != nil {
			return nil, err
		}
		nodes := make([]*PbGraphNode, len(indices))
		for i, idx := range indices {
			nodes[i] = instances[idx]
		}
		return nodes, nil
	}
	return nil, configErrLine(line, "pin reference names %q, which is neither %q nor a child of mode %q",
		name, n.PbType.Name, mode.Name)
}

type pinRange struct {
	hi, lo int // iterated in written order: hi → lo
}

// splitRange separates "name[hi:lo]" into the name and an optional range.
// A single index "[i]" is the degenerate range [i:i].
func splitRange(s string, line int) (string, *pinRange, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, "]") {
		return "", nil, configErrLine(line, "malformed range in %q", s)
	}
	name := s[:open]
	body := s[open+1 : len(s)-1]
	hiStr, loStr, found := strings.Cut(body, ":")
	if !found {
		loStr = hiStr
	}
	hi, err := strconv.Atoi(strings.TrimSpace(hiStr))
	if err != nil {
		return "", nil, configErrLine(line, "malformed range in %q", s)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(loStr))
	if err != nil {
		return "", nil, configErrLine(line, "malformed range in %q", s)
	}
	return name, &pinRange{hi: hi, lo: lo}, nil
}

// rangeIndices expands a range against an extent, defaulting to all indices
// ascending when the range is absent.
func rangeIndices(r *pinRange, extent int, what string, line int) ([]int, error) {
	if r == nil {
		indices := make([]int, extent)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	if r.hi < 0 || r.hi >= extent || r.lo < 0 || r.lo >= extent {
		return nil, configErrLine(line, "range [%d:%d] of %q exceeds extent %d", r.hi, r.lo, what, extent)
	}
	var indices []int
	if r.hi >= r.lo {
		for i := r.hi; i >= r.lo; i-- {
			indices = append(indices, i)
		}
	} else {
		for i := r.hi; i <= r.lo; i++ {
			indices = append(indices, i)
		}
	}
	return indices, nil
}
