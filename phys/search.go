package phys

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// bound is a channel-width bound that may still be unresolved, so no
// arithmetic ever runs on an absent value.
type bound struct {
	val int
	set bool
}

func boundAt(v int) bound { return bound{val: v, set: true} }

// SearchState is the working state of one width search. Created per Run
// invocation, mutated each iteration, and discarded once Final resolves and
// the verification sweep completes.
type SearchState struct {
	Current int
	Low     bound
	High    bound
	Final   bound

	Attempts int

	// Last two probe outcomes, used by the verification sweep's
	// two-consecutive-failure stop rule.
	PrevSuccess  bool
	Prev2Success bool
}

// Engine performs the parity-aware binary search for the minimum routable
// channel width, treating placement and routing as black-box oracles, then
// verifies the minimum and finalizes the best solution found.
type Engine struct {
	cfg     SearchConfig
	session *Session

	placer  Placer
	router  Router
	factory RRGraphFactory
	checker RouteChecker
}

// NewEngine wires a search over the session's architecture.
func NewEngine(cfg SearchConfig, session *Session, placer Placer, router Router,
	factory RRGraphFactory, checker RouteChecker) *Engine {
	return &Engine{
		cfg:     cfg,
		session: session,
		placer:  placer,
		router:  router,
		factory: factory,
		checker: checker,
	}
}

// Run searches for the minimum channel width at which the circuit routes,
// verifies it if configured, rebuilds the rr-graph at the result, restores
// the best routing and validates it. It returns the final width.
func (e *Engine) Run() (int, error) {
	arch := e.session.Arch
	ra := arch.Routing
	m := ra.Directionality.parityMultiplier()

	st := SearchState{}
	usingHint := false

	if e.cfg.FixedWidth != NoFixedWidth {
		// Floor search around a pinned width (Wneed as a function of Fs).
		st.Current = e.cfg.FixedWidth + 5*m
		st.Low = boundAt(e.cfg.FixedWidth - m)
	} else if e.cfg.WidthHint > 0 {
		logrus.Info("initializing minimum channel width search from the user hint")
		st.Current = e.cfg.WidthHint
		usingHint = true
	} else {
		logrus.Info("initializing minimum channel width search from the maximum pins per tile")
		maxPins := arch.MaxPinsPerTile()
		st.Current = maxPins + maxPins%2
	}

	if err := validateSearchStart(ra, st.Current); err != nil {
		return 0, err
	}

	if e.cfg.PlaceFreq == PlaceOnce {
		e.placer.Place(st.Current)
	}

	for !st.Final.set {
		logrus.Infof("attempting to route at %d channels (binary search bounds: [%s, %s])",
			st.Current, fmtBound(st.Low), fmtBound(st.High))

		// Runaway guard: assume the circuit is unroutable under the
		// current router options rather than probing absurd widths.
		if e.cfg.FixedWidth != NoFixedWidth {
			if st.Current > e.cfg.FixedWidth*4 {
				return 0, configWrap(ErrUnroutable,
					"last failed at %d; aborting routing procedure", st.Low.val)
			}
		} else if st.Current > e.cfg.maxWidth() {
			return 0, configWrap(ErrUnroutable,
				"requires a channel width above %d; aborting routing procedure", e.cfg.maxWidth())
		}

		if st.Current*3 < ra.Fs {
			logrus.Info("width factor is now below the specified Fs, stopping search")
			st.Final = st.High
			break
		}

		if e.cfg.PlaceFreq == PlaceAlways {
			e.placer.Place(st.Current)
		}
		attempt := e.router.AttemptRoute(st.Current)
		st.Attempts++

		scale := 2.0
		success := attempt.Success
		if success && attempt.FcClipped {
			logrus.Warn("routing rejected: an output pin's Fc was clipped to full connectivity")
			success = false
		}

		if success {
			if st.High.set && st.Current == st.High.val {
				// Can't go any lower.
				st.Final = boundAt(st.Current)
			}
			st.High = boundAt(st.Current)

			// Save the routing in case it is best.
			e.session.snapshotBest(e.router)

			// On the first re-probe after a successful hinted guess, step
			// down gently: the hint told us we are already near the
			// minimum, and a standard halving would waste attempts at
			// hopeless widths. Active for exactly that one probe.
			if usingHint && st.Attempts == 1 {
				scale = 1.1
			}

			if st.Low.set && st.High.val-st.Low.val <= m {
				st.Final = st.High
			}
			if st.Low.set {
				st.Current = int(float64(st.High.val+st.Low.val) / scale)
			} else {
				st.Current = int(float64(st.High.val) / scale) // no lower bound yet
			}
		} else {
			st.Low = boundAt(st.Current)
			if st.High.set {
				if st.High.val-st.Low.val <= m {
					st.Final = st.High
				}
				st.Current = int(float64(st.High.val+st.Low.val) / scale)
			} else if e.cfg.FixedWidth != NoFixedWidth {
				if st.Low.val < e.cfg.FixedWidth+30 {
					st.Current = st.Low.val + 5*m
				} else {
					return 0, configWrap(ErrDiverged,
						"floor search found exceedingly large width need (at least %d)", st.Low.val)
				}
			} else {
				st.Current = int(float64(st.Low.val) * scale) // no upper bound yet
			}
		}

		st.Current += st.Current % m
		st.PrevSuccess, st.Prev2Success = success, st.PrevSuccess
	}

	if !st.Final.set {
		return 0, configWrap(ErrUnroutable, "search stopped without a routable width")
	}

	if e.cfg.Verify {
		e.verify(&st, m)
	}

	if err := e.finalize(st.Final.val); err != nil {
		return 0, err
	}
	return st.Final.val, nil
}

// verify guards against a false minimum: the search occasionally finds a
// width that routed by router flukiness while a smaller one would also
// route. Re-probe downward from final-2 until two consecutive widths fail,
// lowering final on every clean success.
func (e *Engine) verify(st *SearchState, m int) {
	logrus.Info("verifying that the search found the minimum channel width")

	// Pretend final-1 succeeded so the sweep probes final-2 and final-3
	// even if both fail: safer.
	st.PrevSuccess, st.Prev2Success = true, true
	cur := st.Final.val - 2

	for st.PrevSuccess || st.Prev2Success {
		if e.cfg.FixedWidth != NoFixedWidth && cur < e.cfg.FixedWidth {
			break
		}
		if cur < 1 {
			break
		}
		if e.cfg.PlaceFreq == PlaceAlways {
			e.placer.Place(cur)
		}
		attempt := e.router.AttemptRoute(cur)
		ok := attempt.Success && !attempt.FcClipped
		if ok {
			logrus.Infof("verification lowered the minimum channel width to %d", cur)
			st.Final = boundAt(cur)
			e.session.snapshotBest(e.router)
		}
		st.Prev2Success = st.PrevSuccess
		st.PrevSuccess = ok
		cur -= m
	}
}

// finalize rebuilds the routing-resource graph at the final width, restores
// the best saved routing, and validates it structurally.
func (e *Engine) finalize(final int) error {
	kind := e.session.Arch.Routing.graphKind(e.cfg.RouteKind)
	if err := e.session.rebuildGraph(e.factory, kind, final); err != nil {
		return err
	}
	if e.session.Best != nil {
		e.router.RestoreRouting(e.session.Best)
	}
	if err := e.checker.CheckRoute(e.cfg.RouteKind, e.session.Graph); err != nil {
		return err
	}
	logrus.Infof("best routing used a channel width factor of %d", final)
	return nil
}

// RunFixed routes once at a pinned channel width without searching. On
// success the routing is checked; on failure the circuit is unroutable at
// that width.
func (e *Engine) RunFixed(width int) error {
	ra := e.session.Arch.Routing
	if ra.Directionality == Unidirectional && width%2 != 0 {
		return configErrf("odd channel width %d in a unidirectional architecture (width must be even)", width)
	}
	kind := ra.graphKind(e.cfg.RouteKind)
	if err := e.session.rebuildGraph(e.factory, kind, width); err != nil {
		return err
	}
	if e.cfg.PlaceFreq != PlaceNever {
		e.placer.Place(width)
	}
	attempt := e.router.AttemptRoute(width)
	if !attempt.Success {
		return configWrap(ErrUnroutable, "with a channel width factor of %d", width)
	}
	if attempt.FcClipped {
		logrus.Warn("Fc was too high and was clipped to full (maximum) connectivity")
	}
	if err := e.checker.CheckRoute(e.cfg.RouteKind, e.session.Graph); err != nil {
		return err
	}
	e.session.snapshotBest(e.router)
	logrus.Infof("circuit successfully routed with a channel width factor of %d", width)
	return nil
}

// validateSearchStart enforces the hard constraints that would otherwise
// break the rr-graph generator mid-search.
func validateSearchStart(ra RoutingArch, current int) error {
	if ra.Directionality == Unidirectional {
		if current%2 != 0 {
			return configErrf("tried odd channel width %d in a unidirectional architecture (width must be even)", current)
		}
	} else if ra.Fs%3 != 0 {
		return configErrf("Fs must be a multiple of three in bidirectional mode, got %d", ra.Fs)
	}
	if current <= 0 {
		return configErrf("initial channel width guess %d is not positive", current)
	}
	return nil
}

func fmtBound(b bound) string {
	if !b.set {
		return "?"
	}
	return strconv.Itoa(b.val)
}
