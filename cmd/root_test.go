package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/archroute/archroute/phys"
)

func TestSinglePassRoute_PinnedWidth_DefaultsToSinglePass(t *testing.T) {
	assert.True(t, singlePassRoute(12, false))
}

func TestSinglePassRoute_ExplicitFloorSearch_RunsSearch(t *testing.T) {
	assert.False(t, singlePassRoute(12, true))
}

func TestSinglePassRoute_NoPinnedWidth_AlwaysSearches(t *testing.T) {
	assert.False(t, singlePassRoute(phys.NoFixedWidth, false))
	assert.False(t, singlePassRoute(phys.NoFixedWidth, true))
}
