package phys

import "fmt"

// Directionality of the routing fabric's wire segments.
type Directionality int

const (
	Bidirectional Directionality = iota
	Unidirectional
)

func (d Directionality) String() string {
	if d == Unidirectional {
		return "unidirectional"
	}
	return "bidirectional"
}

// parityMultiplier is 2 under unidirectional routing, which only supports
// even channel widths, and 1 otherwise.
func (d Directionality) parityMultiplier() int {
	if d == Unidirectional {
		return 2
	}
	return 1
}

// GraphKind selects the routing-resource graph flavor built by the factory.
type GraphKind int

const (
	GraphGlobal GraphKind = iota
	GraphBidir
	GraphUnidir
)

func (k GraphKind) String() string {
	switch k {
	case GraphGlobal:
		return "global"
	case GraphBidir:
		return "bidir"
	case GraphUnidir:
		return "unidir"
	}
	return fmt.Sprintf("GraphKind(%d)", int(k))
}

// RouteKind selects global or detailed routing.
type RouteKind int

const (
	RouteGlobal RouteKind = iota
	RouteDetailed
)

// PlaceFrequency controls how often the placement oracle runs during the
// width search.
type PlaceFrequency int

const (
	// PlaceOnce places before the search and keeps that placement.
	PlaceOnce PlaceFrequency = iota
	// PlaceAlways re-places at every candidate width.
	PlaceAlways
	// PlaceNever assumes an externally provided placement.
	PlaceNever
)

// NoFixedWidth in SearchConfig.FixedWidth requests a minimum-width search.
const NoFixedWidth = -1

// RoutingArch groups the detailed-routing architecture parameters the
// search engine and the rr-graph factory consume.
type RoutingArch struct {
	Directionality Directionality

	// Fs is the switch-block fan-in/fan-out degree. Bidirectional routing
	// requires a multiple of 3.
	Fs int

	GlobalRouteSwitch int // switch index used for global routing
	DelaylessSwitch   int
	WireToIpinSwitch  int
}

// graphKind derives the rr-graph flavor from the route kind and fabric
// directionality.
func (ra RoutingArch) graphKind(rk RouteKind) GraphKind {
	if rk == RouteGlobal {
		return GraphGlobal
	}
	if ra.Directionality == Unidirectional {
		return GraphUnidir
	}
	return GraphBidir
}

// SearchConfig groups the width-search options.
type SearchConfig struct {
	// FixedWidth pins the channel width; NoFixedWidth searches for the
	// minimum. A pinned width still drives a floor search inside Run (used
	// for Wneed-versus-Fs studies); use RunFixed for a plain single-pass
	// route.
	FixedWidth int

	// WidthHint seeds the search's initial guess; 0 means derive it from
	// the architecture's maximum pin count per tile.
	WidthHint int

	// Verify re-probes below the found minimum until two consecutive
	// widths fail, guarding against a single flaky routing success.
	Verify bool

	PlaceFreq PlaceFrequency
	RouteKind RouteKind

	// MaxWidth aborts an unbounded search that grows past it. Zero means
	// the default of 1000 tracks.
	MaxWidth int
}

func (c SearchConfig) maxWidth() int {
	if c.MaxWidth > 0 {
		return c.MaxWidth
	}
	return 1000
}
