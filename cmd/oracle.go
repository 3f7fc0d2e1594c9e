package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/archroute/archroute/phys"
)

// thresholdOracle is the dry-run collaborator set for the minw command: a
// placer, router, rr-graph factory and route checker in one. Routing
// succeeds at and above a threshold width, which is enough to drive the
// search engine end to end over a real architecture.
type thresholdOracle struct {
	threshold int
	attempts  int
	lastWidth int
}

func newThresholdOracle(threshold int) *thresholdOracle {
	return &thresholdOracle{threshold: threshold}
}

func (o *thresholdOracle) Place(width int) {
	logrus.Debugf("dry-run placement at width %d", width)
}

func (o *thresholdOracle) AttemptRoute(width int) phys.RouteAttempt {
	o.attempts++
	o.lastWidth = width
	return phys.RouteAttempt{Success: width >= o.threshold}
}

func (o *thresholdOracle) SaveRouting() *phys.RoutingSnapshot {
	return phys.NewRoutingSnapshot(o.lastWidth, nil)
}

func (o *thresholdOracle) RestoreRouting(s *phys.RoutingSnapshot) {
	logrus.Debugf("restored routing snapshot %s (width %d)", s.ID, s.Width)
}

func (o *thresholdOracle) Build(kind phys.GraphKind, types []*phys.BlockType,
	widths *phys.ChannelWidthAssignment, switches []*phys.Switch,
	segments []*phys.Segment, switchblocks []*phys.Switchblock) (*phys.RRGraphHandle, error) {
	return phys.NewRRGraphHandle(kind, widths.Max), nil
}

func (o *thresholdOracle) Release(h *phys.RRGraphHandle) {}

func (o *thresholdOracle) CheckRoute(kind phys.RouteKind, h *phys.RRGraphHandle) error {
	return nil
}
