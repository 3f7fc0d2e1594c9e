package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/archroute/archroute/phys"
	"github.com/archroute/archroute/phys/archfile"
)

var (
	// Global flags
	archPath string // architecture description (YAML)
	logLevel string // log verbosity level

	// minw flags
	fixedWidth  int    // pinned channel width (-1 = search for minimum)
	widthHint   int    // initial guess for the minimum width search
	verify      bool   // verification sweep below the found minimum
	placeFreq   string // once, always, never
	routeType   string // detailed or global
	routableAt  int    // dry-run oracle: smallest width that routes
	maxWidth    int    // unbounded search abort ceiling
	floorSearch bool   // with --fixed-width, search the width floor instead of routing once

	// inspect flags
	widthFactor float64 // channel width scale factor to realize
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "archroute",
	Short: "Physical-implementation back end for FPGA architectures",
}

// minwCmd runs the minimum-channel-width search against a dry-run routing
// oracle. The real placement and routing engines are external collaborators;
// the built-in oracle routes successfully at and above --routable-at, which
// makes the command useful for exercising search behavior on an architecture
// without a full flow.
var minwCmd = &cobra.Command{
	Use:   "minw",
	Short: "Search for the minimum routable channel width",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		arch := loadArch()

		cfg := phys.SearchConfig{
			FixedWidth: fixedWidth,
			WidthHint:  widthHint,
			Verify:     verify,
			PlaceFreq:  parsePlaceFreq(placeFreq),
			RouteKind:  parseRouteKind(routeType),
			MaxWidth:   maxWidth,
		}

		oracle := newThresholdOracle(routableAt)
		session := phys.NewSession(arch)
		engine := phys.NewEngine(cfg, session, oracle, oracle, oracle, oracle)

		if singlePassRoute(fixedWidth, floorSearch) {
			if err := engine.RunFixed(fixedWidth); err != nil {
				logrus.Fatalf("fixed-width routing failed: %v", err)
			}
			logrus.Infof("routed at the requested channel width %d", fixedWidth)
			return
		}

		final, err := engine.Run()
		if err != nil {
			logrus.Fatalf("width search failed: %v", err)
		}
		logrus.Infof("minimum channel width: %d (%d routing attempts by the oracle)", final, oracle.attempts)
	},
}

// inspectCmd loads an architecture, flattens its block types and reports
// the derived structure plus the channel widths realized at a scale factor.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Flatten an architecture and report its derived structure",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		arch := loadArch()

		for _, bt := range arch.BlockTypes {
			graph, err := bt.Graph()
			if err != nil {
				logrus.Fatalf("flattening block type %q: %v", bt.Name, err)
			}
			nodes, edges := 0, 0
			graph.Walk(func(n *phys.PbGraphNode) {
				nodes++
				n.EachPin(func(p *phys.PbGraphPin) {
					edges += len(p.OutputEdges)
				})
			})
			logrus.Infof("block type %-12s pins=%-5d nodes=%-4d edges=%-5d pin classes=%d",
				bt.Name, bt.NumPins, nodes, edges, len(bt.PinClasses))
		}

		widths, err := phys.RealizeChannelWidths(arch.ChanWidthDist, widthFactor, arch.GridRows, arch.GridCols)
		if err != nil {
			logrus.Fatalf("realizing channel widths: %v", err)
		}
		logrus.Infof("channel widths at factor %.1f: io=%d x=%v y=%v (max %d)",
			widthFactor, widths.IOWidth, widths.XList, widths.YList, widths.Max)
	},
}

// singlePassRoute decides between routing once at a pinned width and the
// floor search around it.
func singlePassRoute(fixedWidth int, floorSearch bool) bool {
	return fixedWidth != phys.NoFixedWidth && !floorSearch
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func loadArch() *phys.Arch {
	if archPath == "" {
		logrus.Fatalf("architecture file not provided (--arch)")
	}
	arch, err := archfile.Load(archPath)
	if err != nil {
		logrus.Fatalf("loading architecture: %v", err)
	}
	return arch
}

func parsePlaceFreq(s string) phys.PlaceFrequency {
	switch s {
	case "once":
		return phys.PlaceOnce
	case "always":
		return phys.PlaceAlways
	case "never":
		return phys.PlaceNever
	}
	logrus.Fatalf("unknown place frequency %q (want once, always or never)", s)
	return phys.PlaceOnce
}

func parseRouteKind(s string) phys.RouteKind {
	switch s {
	case "detailed":
		return phys.RouteDetailed
	case "global":
		return phys.RouteGlobal
	}
	logrus.Fatalf("unknown route type %q (want detailed or global)", s)
	return phys.RouteDetailed
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&archPath, "arch", "", "Architecture description (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	minwCmd.Flags().IntVar(&fixedWidth, "fixed-width", phys.NoFixedWidth, "Pin the channel width instead of searching")
	minwCmd.Flags().IntVar(&widthHint, "hint", 0, "Initial guess for the minimum width search")
	minwCmd.Flags().BoolVar(&verify, "verify", true, "Verify the minimum by probing smaller widths")
	minwCmd.Flags().StringVar(&placeFreq, "place-freq", "once", "Placement frequency (once, always, never)")
	minwCmd.Flags().StringVar(&routeType, "route-type", "detailed", "Routing kind (detailed, global)")
	minwCmd.Flags().IntVar(&routableAt, "routable-at", 12, "Dry-run oracle: smallest width that routes")
	minwCmd.Flags().IntVar(&maxWidth, "max-width", 0, "Abort an unbounded search past this width (0 = default 1000)")
	minwCmd.Flags().BoolVar(&floorSearch, "floor-search", false, "With --fixed-width, run the floor search instead of a single-pass route")

	inspectCmd.Flags().Float64Var(&widthFactor, "width-factor", 1.0, "Channel width scale factor to realize")

	rootCmd.AddCommand(minwCmd)
	rootCmd.AddCommand(inspectCmd)
}
