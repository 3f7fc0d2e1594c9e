package phys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOracle is a scriptable placement/routing oracle: routing succeeds at
// and above a threshold width, with optional per-width forced failures and
// Fc clipping. It also stands in for the rr-graph factory and the route
// checker so one stub drives the whole engine.
type stubOracle struct {
	threshold int

	failuresLeft map[int]int  // width -> remaining forced failures
	clippedAt    map[int]bool // widths reported as Fc-clipped successes

	attempts  []int // every probed width, in order
	placed    []int
	lastWidth int
	restored  []int
	builds    []int
	releases  int
	checkErr  error
}

func (o *stubOracle) Place(width int) { o.placed = append(o.placed, width) }

func (o *stubOracle) AttemptRoute(width int) RouteAttempt {
	o.attempts = append(o.attempts, width)
	o.lastWidth = width
	if o.failuresLeft[width] > 0 {
		o.failuresLeft[width]--
		return RouteAttempt{}
	}
	return RouteAttempt{
		Success:   width >= o.threshold,
		FcClipped: o.clippedAt[width],
	}
}

func (o *stubOracle) SaveRouting() *RoutingSnapshot {
	return NewRoutingSnapshot(o.lastWidth, nil)
}

func (o *stubOracle) RestoreRouting(s *RoutingSnapshot) {
	o.restored = append(o.restored, s.Width)
}

func (o *stubOracle) Build(kind GraphKind, types []*BlockType, widths *ChannelWidthAssignment,
	switches []*Switch, segments []*Segment, switchblocks []*Switchblock) (*RRGraphHandle, error) {
	o.builds = append(o.builds, widths.Max)
	return NewRRGraphHandle(kind, widths.Max), nil
}

func (o *stubOracle) Release(h *RRGraphHandle) { o.releases++ }

func (o *stubOracle) CheckRoute(kind RouteKind, h *RRGraphHandle) error { return o.checkErr }

func searchArch(dir Directionality, fs int) *Arch {
	return &Arch{
		BlockTypes: []*BlockType{{Name: "clb", NumPins: 24, Capacity: 1, Width: 1, Height: 1}},
		ChanWidthDist: ChannelWidthDistribution{
			IOWidth: 1,
			X:       ChannelDensity{Kind: DensityUniform, Peak: 1},
			Y:       ChannelDensity{Kind: DensityUniform, Peak: 1},
		},
		Routing:  RoutingArch{Directionality: dir, Fs: fs},
		GridRows: 4,
		GridCols: 4,
	}
}

func newTestEngine(cfg SearchConfig, arch *Arch, o *stubOracle) (*Engine, *Session) {
	s := NewSession(arch)
	return NewEngine(cfg, s, o, o, o, o), s
}

func TestRun_BidirSearch_ConvergesToThreshold(t *testing.T) {
	o := &stubOracle{threshold: 12}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce, RouteKind: RouteDetailed}
	e, session := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, 12, final)
	// Seed is max pins per tile rounded to even: 24, then a plain halving
	// binary search.
	assert.Equal(t, []int{24, 12, 6, 9, 10, 11}, o.attempts)
	assert.Equal(t, []int{24}, o.placed) // placed once, before the search
	assert.NotNil(t, session.Best)
	assert.Equal(t, 12, session.Best.Width)
	assert.Equal(t, []int{12}, o.restored)
}

func TestRun_Verify_ProbesBelowMinimumUntilTwoFailures(t *testing.T) {
	o := &stubOracle{threshold: 12}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, Verify: true, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, 12, final)
	// The sweep starts at final-2 and stops after two consecutive failures.
	assert.Equal(t, []int{24, 12, 6, 9, 10, 11, 10, 9}, o.attempts)
}

func TestRun_Verify_LowersFlakyFalseMinimum(t *testing.T) {
	// Widths 10 and 11 fail once each during the search, so the search
	// concludes 12; the verification sweep finds 10 routable after all.
	o := &stubOracle{threshold: 10, failuresLeft: map[int]int{10: 1, 11: 1}}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, Verify: true, PlaceFreq: PlaceOnce}
	e, session := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, 10, final)
	assert.Equal(t, 10, session.Best.Width)
}

func TestRun_HintSeed_GentleFirstStep(t *testing.T) {
	o := &stubOracle{threshold: 14}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, WidthHint: 20, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Unidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, 14, final)
	// The probe right after the successful hint steps down by 1.1x instead
	// of halving; everything stays even under unidirectional routing.
	assert.Equal(t, []int{20, 18, 10, 14, 12}, o.attempts)
	for _, w := range o.attempts {
		assert.Zero(t, w%2)
	}
}

func TestRun_Unidirectional_FinalWidthIsEven(t *testing.T) {
	o := &stubOracle{threshold: 11}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Unidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, 12, final)
	assert.Zero(t, final%2)
}

func TestRun_PlaceAlways_RePlacesEveryProbe(t *testing.T) {
	o := &stubOracle{threshold: 12}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceAlways}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	_, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, o.attempts, o.placed)
}

func TestRun_FixedWidth_FloorSearchFindsNeed(t *testing.T) {
	o := &stubOracle{threshold: 10}
	cfg := SearchConfig{FixedWidth: 10, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, 10, final)
	// Seeded above the pinned width with the floor just below it.
	assert.Equal(t, []int{15, 12, 10}, o.attempts)
}

func TestRun_FixedWidth_Diverges(t *testing.T) {
	o := &stubOracle{threshold: 1 << 20}
	cfg := SearchConfig{FixedWidth: 10, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	_, err := e.Run()
	assert.ErrorIs(t, err, ErrDiverged)
}

func TestRun_UnboundedGrowth_Unroutable(t *testing.T) {
	o := &stubOracle{threshold: 1 << 20}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	_, err := e.Run()
	assert.ErrorIs(t, err, ErrUnroutable)
}

func TestRun_MaxWidthOverride_AbortsEarlier(t *testing.T) {
	o := &stubOracle{threshold: 1 << 20}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce, MaxWidth: 100}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	_, err := e.Run()
	require.ErrorIs(t, err, ErrUnroutable)
	for _, w := range o.attempts {
		assert.LessOrEqual(t, w, 100)
	}
}

func TestRun_FcClippedSuccess_TreatedAsFailure(t *testing.T) {
	o := &stubOracle{threshold: 10, clippedAt: map[int]bool{10: true}}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	// 10 routes but with a clipped Fc, so the accepted minimum is 11.
	assert.Equal(t, 11, final)
}

func TestRun_FsFloor_StopsAtKnownGoodWidth(t *testing.T) {
	// Once current*3 drops below Fs the rr-graph generator cannot build a
	// switch block, so the search settles for the best width seen.
	o := &stubOracle{threshold: 5}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 45), o)

	final, err := e.Run()
	require.NoError(t, err)

	assert.Equal(t, []int{24}, o.attempts) // 12*3 < 45 stops before probing
	assert.Equal(t, 24, final)
}

func TestRun_FsFloorBeforeAnySuccess_Unroutable(t *testing.T) {
	o := &stubOracle{threshold: 5}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, WidthHint: 12, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 45), o)

	_, err := e.Run()
	assert.ErrorIs(t, err, ErrUnroutable)
	assert.Empty(t, o.attempts)
}

func TestRun_OddHintUnderUnidirectional_ConfigError(t *testing.T) {
	o := &stubOracle{threshold: 10}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, WidthHint: 15, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Unidirectional, 3), o)

	_, err := e.Run()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRun_BidirFsNotMultipleOfThree_ConfigError(t *testing.T) {
	o := &stubOracle{threshold: 10}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 4), o)

	_, err := e.Run()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRun_FinalizeRebuildsGraphAndChecksRoute(t *testing.T) {
	o := &stubOracle{threshold: 12}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce, RouteKind: RouteDetailed}
	e, session := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	final, err := e.Run()
	require.NoError(t, err)

	require.NotNil(t, session.Graph)
	assert.Equal(t, final, session.Graph.Width)
	assert.Equal(t, GraphBidir, session.Graph.Kind)
}

func TestRun_GlobalRouting_BuildsGlobalGraph(t *testing.T) {
	o := &stubOracle{threshold: 12}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce, RouteKind: RouteGlobal}
	e, session := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	_, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, GraphGlobal, session.Graph.Kind)
}

func TestRun_DetailedUnidirectional_BuildsUnidirGraph(t *testing.T) {
	o := &stubOracle{threshold: 12}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce, RouteKind: RouteDetailed}
	e, session := newTestEngine(cfg, searchArch(Unidirectional, 3), o)

	_, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, GraphUnidir, session.Graph.Kind)
}

func TestRun_CheckRouteFailure_Propagates(t *testing.T) {
	o := &stubOracle{threshold: 12, checkErr: configErrf("net 7 uses an overused node")}
	cfg := SearchConfig{FixedWidth: NoFixedWidth, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	_, err := e.Run()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRunFixed_Success_SavesAndChecksRouting(t *testing.T) {
	o := &stubOracle{threshold: 10}
	cfg := SearchConfig{FixedWidth: 12, PlaceFreq: PlaceOnce, RouteKind: RouteDetailed}
	e, session := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	err := e.RunFixed(12)
	require.NoError(t, err)

	assert.Equal(t, []int{12}, o.attempts)
	assert.Equal(t, []int{12}, o.placed)
	require.NotNil(t, session.Best)
	assert.Equal(t, 12, session.Best.Width)
}

func TestRunFixed_Failure_Unroutable(t *testing.T) {
	o := &stubOracle{threshold: 20}
	cfg := SearchConfig{FixedWidth: 12, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	err := e.RunFixed(12)
	assert.ErrorIs(t, err, ErrUnroutable)
}

func TestRunFixed_OddWidthUnidirectional_ConfigError(t *testing.T) {
	o := &stubOracle{threshold: 10}
	cfg := SearchConfig{FixedWidth: 13, PlaceFreq: PlaceOnce}
	e, _ := newTestEngine(cfg, searchArch(Unidirectional, 3), o)

	err := e.RunFixed(13)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Empty(t, o.attempts)
}

func TestRunFixed_PlaceNever_SkipsPlacement(t *testing.T) {
	o := &stubOracle{threshold: 10}
	cfg := SearchConfig{FixedWidth: 12, PlaceFreq: PlaceNever}
	e, _ := newTestEngine(cfg, searchArch(Bidirectional, 3), o)

	err := e.RunFixed(12)
	require.NoError(t, err)
	assert.Empty(t, o.placed)
}

func TestSession_RebuildGraph_ReleasesPreviousGraph(t *testing.T) {
	o := &stubOracle{threshold: 10}
	session := NewSession(searchArch(Bidirectional, 3))

	require.NoError(t, session.rebuildGraph(o, GraphBidir, 8))
	first := session.Graph
	require.NoError(t, session.rebuildGraph(o, GraphBidir, 16))

	assert.Equal(t, 1, o.releases)
	assert.NotEqual(t, first.ID, session.Graph.ID)
	assert.Equal(t, 16, session.Widths.Max)
}
