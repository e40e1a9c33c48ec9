package diff

import (
	"testing"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/stretchr/testify/assert"
)

func TestPhaseChecker(t *testing.T) {
	checker := NewPhaseChecker()

	state := makeState()
	diffs := checker.Check(at(0, state))
	assert.Equal(t, []string{"Moving to: Spring, 1901, Diplomacy"}, Messages(diffs))

	// Same phase again
	assert.Empty(t, checker.Check(at(1, state)))

	retreats := state
	retreats.Phase = game.PhaseRetreats
	diffs = checker.Check(at(2, retreats))
	assert.Equal(t, []string{"Moving to: Spring, 1901, Retreats"}, Messages(diffs))
	assert.Empty(t, checker.Check(at(3, retreats)))

	autumn := state
	autumn.Date = AUTUMN_1901
	diffs = checker.Check(at(4, autumn))
	assert.Equal(t, []string{"Moving to: Autumn, 1901, Diplomacy"}, Messages(diffs))
	assert.False(t, diffs[0].Personal)
}

func TestPhaseCheckerIgnoresFinished(t *testing.T) {
	checker := NewPhaseChecker()
	checker.Check(at(0, makeState()))

	finished := makeState()
	finished.Phase = game.PhaseFinished
	finished.Finished = true
	assert.Empty(t, checker.Check(at(1, finished)))
	assert.Empty(t, checker.Check(at(2, finished)))
}
