package phys

import "sort"

// computeReachability fills the per-depth reachability table of every
// primitive output pin in the tree: Connectable[d] is the set of primitive
// input pins the output can reach using only edges fully contained within
// its depth-d ancestor's subgraph.
//
// Tables are built bottom-up, innermost ancestor first. Widening the
// boundary from depth d+1 to depth d can only admit more pins, so each step
// resumes the traversal from the pins already visited instead of starting
// over: only edges that were blocked by the tighter boundary get explored.
func computeReachability(root *PbGraphNode) {
	root.Walk(func(n *PbGraphNode) {
		if !n.IsPrimitive() {
			return
		}
		for pi := range n.OutputPins {
			for i := range n.OutputPins[pi] {
				fillConnectable(&n.OutputPins[pi][i])
			}
		}
	})
}

func fillConnectable(out *PbGraphPin) {
	depth := out.Node.Depth()
	if depth == 0 {
		return // a primitive at the root has no enclosing sub-hierarchy
	}
	out.Connectable = make([][]*PbGraphPin, depth)

	visited := map[*PbGraphPin]bool{out: true}
	var reached []*PbGraphPin

	for d := depth - 1; d >= 0; d-- {
		boundary := out.Node.ancestorAt(d)

		// Re-expand every known pin: the wider boundary may unblock edges
		// out of pins that were frontier at the previous depth.
		queue := make([]*PbGraphPin, 0, len(visited))
		for p := range visited {
			queue = append(queue, p)
		}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			for _, e := range p.OutputEdges {
				for _, next := range e.Outputs {
					if visited[next] || !next.Node.inSubtreeOf(boundary) {
						continue
					}
					visited[next] = true
					queue = append(queue, next)
					if next.isPrimitiveInput() {
						reached = append(reached, next)
					}
				}
			}
		}

		set := make([]*PbGraphPin, len(reached))
		copy(set, reached)
		sort.Slice(set, func(i, j int) bool {
			return set[i].PinCountInCluster < set[j].PinCountInCluster
		})
		out.Connectable[d] = set
	}
}
