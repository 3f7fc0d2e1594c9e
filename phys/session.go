package phys

import "github.com/sirupsen/logrus"

// Session bundles the mutable state shared across search probes: the
// current realized channel widths, the current routing-resource graph, and
// the best routing snapshot found so far. One Session lives per search
// invocation and is single-threaded.
type Session struct {
	Arch *Arch

	// Widths and Graph are the live working structures, rebuilt and
	// discarded between probes.
	Widths *ChannelWidthAssignment
	Graph  *RRGraphHandle

	// Best is the explicitly copied best-known-good routing. It is never
	// aliased with the router's working state.
	Best *RoutingSnapshot
}

// NewSession creates a session for one search over the given architecture.
func NewSession(arch *Arch) *Session {
	return &Session{Arch: arch}
}

// rebuildGraph realizes channel widths at the given factor and swaps in a
// freshly built rr-graph, releasing the previous one first so graphs do not
// pile up across probes.
func (s *Session) rebuildGraph(factory RRGraphFactory, kind GraphKind, width int) error {
	widths, err := RealizeChannelWidths(s.Arch.ChanWidthDist, float64(width), s.Arch.GridRows, s.Arch.GridCols)
	if err != nil {
		return err
	}
	if s.Graph != nil {
		factory.Release(s.Graph)
		s.Graph = nil
	}
	h, err := factory.Build(kind, s.Arch.BlockTypes, widths,
		s.Arch.Switches, s.Arch.Segments, s.Arch.Switchblocks)
	if err != nil {
		return err
	}
	s.Widths = widths
	s.Graph = h
	logrus.Debugf("built %s rr-graph %s at width %d (channel widths %d..%d)",
		kind, h.ID, width, widths.Min, widths.Max)
	return nil
}

// snapshotBest replaces the best routing with a fresh copy from the router.
func (s *Session) snapshotBest(r Router) {
	s.Best = r.SaveRouting()
	if s.Best != nil {
		logrus.Debugf("saved best routing %s at width %d", s.Best.ID, s.Best.Width)
	}
}
