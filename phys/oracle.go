package phys

import "github.com/rs/xid"

// RouteAttempt is the outcome of one routing probe. FcClipped reports that
// some pin's declared connectivity fraction was infeasible at this width
// and had to be clipped to full connectivity; the search treats such a
// success as a failure.
type RouteAttempt struct {
	Success   bool
	FcClipped bool
}

// Placer is the placement oracle: attempt a placement sized for the given
// channel width, mutating the process-wide placement.
type Placer interface {
	Place(width int)
}

// Router is the routing oracle. AttemptRoute mutates the process-wide
// routing solution; SaveRouting returns a deep copy of it that a later
// failed probe cannot corrupt, and RestoreRouting reinstates such a copy.
type Router interface {
	AttemptRoute(width int) RouteAttempt
	SaveRouting() *RoutingSnapshot
	RestoreRouting(s *RoutingSnapshot)
}

// RoutingSnapshot is an explicitly copied routing solution, never aliased
// with the router's live working state. The engine treats State as opaque;
// only the router that produced a snapshot can restore it.
type RoutingSnapshot struct {
	ID    string
	Width int
	State any
}

// NewRoutingSnapshot tags a copied routing state with a fresh ID.
func NewRoutingSnapshot(width int, state any) *RoutingSnapshot {
	return &RoutingSnapshot{ID: xid.New().String(), Width: width, State: state}
}

// RRGraphHandle identifies one built routing-resource graph. The graph's
// internals belong to the factory; the core only tracks identity, flavor
// and the width it was sized for.
type RRGraphHandle struct {
	ID    string
	Kind  GraphKind
	Width int
}

// NewRRGraphHandle tags a built graph with a fresh ID.
func NewRRGraphHandle(kind GraphKind, width int) *RRGraphHandle {
	return &RRGraphHandle{ID: xid.New().String(), Kind: kind, Width: width}
}

// RRGraphFactory builds the concrete routing-resource graph at a candidate
// width. Release must be called on the previous graph before building the
// next one so that dozens of probes on a large architecture do not
// accumulate dead graphs.
type RRGraphFactory interface {
	Build(kind GraphKind, types []*BlockType, widths *ChannelWidthAssignment,
		switches []*Switch, segments []*Segment, switchblocks []*Switchblock) (*RRGraphHandle, error)
	Release(h *RRGraphHandle)
}

// RouteChecker validates that a restored routing is structurally legal on
// the given graph (no illegal resource sharing).
type RouteChecker interface {
	CheckRoute(kind RouteKind, h *RRGraphHandle) error
}
