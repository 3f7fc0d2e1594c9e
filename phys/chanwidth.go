package phys

import "math"

// ChannelWidthAssignment is the realized per-row and per-column routing
// track counts after scaling a ChannelWidthDistribution by a width factor.
// Every entry is at least 1; the boundary (first/last) entries carry the
// I/O channel width.
type ChannelWidthAssignment struct {
	// XList holds the width of each x-directed (horizontal) channel,
	// indexed 0..rows. YList holds each y-directed channel, 0..cols.
	XList []int
	YList []int

	IOWidth int

	Max  int
	Min  int
	XMax int
	XMin int
	YMax int
	YMin int
}

// RealizeChannelWidths scales the distribution by factor across a rows x
// cols device grid. The I/O width is round(factor * IOWidth), floored to 1.
// Interior channels evaluate the density curve at their normalized
// coordinate; a grid too small to have a meaningful channel separation is
// special-cased so no division by zero occurs.
func RealizeChannelWidths(dist ChannelWidthDistribution, factor float64, rows, cols int) (*ChannelWidthAssignment, error) {
	if rows < 1 || cols < 1 {
		return nil, configErrf("device grid %dx%d has no channels", rows, cols)
	}

	nio := int(math.Floor(factor*dist.IOWidth + 0.5))
	if nio == 0 {
		nio = 1 // no zero width channels
	}

	a := &ChannelWidthAssignment{
		XList:   make([]int, rows+1),
		YList:   make([]int, cols+1),
		IOWidth: nio,
	}
	a.XList[0], a.XList[rows] = nio, nio
	a.YList[0], a.YList[cols] = nio, nio

	if err := fillInterior(a.XList, dist.X, factor, rows); err != nil {
		return nil, err
	}
	if err := fillInterior(a.YList, dist.Y, factor, cols); err != nil {
		return nil, err
	}

	a.XMax, a.XMin = minMax(a.XList)
	a.YMax, a.YMin = minMax(a.YList)
	a.Max = a.XMax
	if a.YMax > a.Max {
		a.Max = a.YMax
	}
	a.Min = a.XMin
	if a.YMin < a.Min {
		a.Min = a.YMin
	}
	return a, nil
}

// fillInterior computes entries 1..n-1 of a channel list. The normalized
// coordinate of interior entry j is (j-1)/(n-2); with n <= 2 there is a
// single interior channel evaluated at coordinate 0 with unit separation.
func fillInterior(list []int, d ChannelDensity, factor float64, n int) error {
	if n <= 1 {
		return nil // boundary channels only
	}
	separation := 1.0
	if n > 2 {
		separation = 1.0 / float64(n-2)
	}
	for j := 1; j <= n-1; j++ {
		coord := 0.0
		if n > 2 {
			coord = float64(j-1) / float64(n-2)
		}
		val, err := d.at(coord, separation)
		if err != nil {
			return err
		}
		w := int(math.Floor(factor*val + 0.5))
		if w < 1 {
			w = 1 // no zero width channels
		}
		list[j] = w
	}
	return nil
}

func minMax(list []int) (max, min int) {
	max, min = math.MinInt, math.MaxInt
	for _, v := range list {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}
