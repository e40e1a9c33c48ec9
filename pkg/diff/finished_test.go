package diff

import (
	"testing"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/stretchr/testify/assert"
)

func finish(state game.GameState) game.GameState {
	state.Phase = game.PhaseFinished
	state.Finished = true
	return state
}

func TestFinishedCheckerDrawn(t *testing.T) {
	checker := NewFinishedChecker()

	assert.Empty(t, checker.Check(at(0, makeState(
		country("c1", game.StatusReady),
		country("c2", game.StatusReady),
		country("c3", game.StatusReady),
		country("c4", game.StatusDefeated),
	))))

	drawn := finish(makeState(
		country("c3", game.StatusDrawn),
		country("c1", game.StatusDrawn),
		country("c2", game.StatusDrawn),
		country("c4", game.StatusDefeated),
	))
	diffs := checker.Check(at(1, drawn))
	assert.Equal(t, []string{"Game Finished - Drawn by c1, c2, c3"}, Messages(diffs))
	assert.Empty(t, checker.Check(at(2, drawn)))
}

func TestFinishedCheckerWon(t *testing.T) {
	checker := NewFinishedChecker()

	won := finish(makeState(
		country("c1", game.StatusWon),
		country("c2", game.StatusSurvived),
		country("c3", game.StatusDefeated),
	))
	diffs := checker.Check(at(0, won))
	assert.Equal(t, []string{"Game Finished - Won by c1"}, Messages(diffs))
	assert.Empty(t, checker.Check(at(1, won)))
}
