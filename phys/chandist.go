package phys

import (
	"fmt"
	"math"
)

// DensityKind selects the functional form of a channel density curve.
type DensityKind int

const (
	DensityUniform DensityKind = iota
	DensityGaussian
	DensityPulse
	DensityDelta
)

func (k DensityKind) String() string {
	switch k {
	case DensityUniform:
		return "uniform"
	case DensityGaussian:
		return "gaussian"
	case DensityPulse:
		return "pulse"
	case DensityDelta:
		return "delta"
	}
	return fmt.Sprintf("DensityKind(%d)", int(k))
}

// ParseDensityKind converts an architecture-file kind name.
func ParseDensityKind(s string) (DensityKind, error) {
	switch s {
	case "uniform":
		return DensityUniform, nil
	case "gaussian":
		return DensityGaussian, nil
	case "pulse":
		return DensityPulse, nil
	case "delta":
		return DensityDelta, nil
	}
	return 0, configErrf("unknown channel density kind %q", s)
}

// ChannelDensity is one relative track-density curve across the device.
// Width is the standard deviation for gaussian and the window for pulse;
// Xpeak is where the peak occurs; Dc offsets gaussian, pulse and delta.
type ChannelDensity struct {
	Kind  DensityKind
	Peak  float64
	Width float64
	Xpeak float64
	Dc    float64
}

// at evaluates the relative density at x in [0,1]. separation is the
// normalized distance between two adjacent channels and bounds the delta
// window.
func (d ChannelDensity) at(x, separation float64) (float64, error) {
	switch d.Kind {
	case DensityUniform:
		return d.Peak, nil
	case DensityGaussian:
		val := (x - d.Xpeak) * (x - d.Xpeak) / (2 * d.Width * d.Width)
		return d.Peak*math.Exp(-val) + d.Dc, nil
	case DensityPulse:
		if math.Abs(x-d.Xpeak) > d.Width/2 {
			return d.Dc, nil
		}
		return d.Peak + d.Dc, nil
	case DensityDelta:
		diff := x - d.Xpeak
		if diff > -separation/2 && diff <= separation/2 {
			return d.Peak + d.Dc, nil
		}
		return d.Dc, nil
	}
	return 0, configErrf("unknown channel density kind %d", int(d.Kind))
}

// ChannelWidthDistribution is the architecture's declared distribution of
// routing track density: the relative I/O channel width plus the x- and
// y-directed density curves.
type ChannelWidthDistribution struct {
	IOWidth float64
	X       ChannelDensity
	Y       ChannelDensity
}
