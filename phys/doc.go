// Package phys is the physical-implementation core of the archroute CAD flow.
//
// # Reading Guide
//
// Start with these three files to understand the package:
//   - pbtype.go: the hierarchical block-architecture model (PbType → Mode → Interconnect/Port)
//   - pbgraph_build.go: flattening a block type into its per-instance pin/edge graph
//   - search.go: the minimum-channel-width search engine and its verification sweep
//
// # Architecture
//
// A device architecture is a set of BlockTypes, each owning a PbType
// hierarchy. Flattening a BlockType produces its PbGraphNode tree exactly
// once; the tree is cached on the BlockType and shared read-only by every
// placed instance of that type. ChannelWidthDistribution describes routing
// track density across the device; RealizeChannelWidths scales it into the
// concrete per-row/per-column ChannelWidthAssignment consumed by the
// routing-resource-graph factory.
//
// The Engine orchestrates: pick a candidate width → (optionally) place →
// route → interpret → adjust bounds → repeat → verify → rebuild the final
// rr-graph → restore the best routing.
//
// # Key Interfaces
//
// The placement and routing engines are external collaborators consumed
// through small interfaces:
//   - Placer: attempt a placement at a channel width
//   - Router: attempt a route at a channel width; save/restore routing snapshots
//   - RRGraphFactory: build/release routing-resource graphs sized by width
//   - RouteChecker: structural validation of a restored routing
//
// Architecture descriptions are loaded from YAML by the phys/archfile
// sub-package.
package phys
