package diff

import (
	"sort"
	"strings"

	"github.com/cfoust/dipwatch/pkg/game"
)

type FinishedMemory struct {
	Finished bool
}

func checkFinished(memory FinishedMemory, snapshot game.Snapshot) (FinishedMemory, []Diff) {
	state := snapshot.State
	wasFinished := memory.Finished
	memory.Finished = state.Finished
	if wasFinished || !state.Finished {
		return memory, nil
	}

	var winners []string
	var drawn []string
	for _, country := range state.Countries {
		switch country.Status {
		case game.StatusWon:
			winners = append(winners, country.Country)
		case game.StatusDrawn:
			drawn = append(drawn, country.Country)
		}
	}

	if len(winners) == 1 {
		return memory, []Diff{Global("Game Finished - Won by %s", winners[0])}
	}

	// Sorted so the message is stable
	sort.Strings(drawn)
	return memory, []Diff{Global("Game Finished - Drawn by %s", strings.Join(drawn, ", "))}
}

// FinishedChecker reports, once, that the game has ended and who won or
// drew.
type FinishedChecker struct {
	memory FinishedMemory
}

func NewFinishedChecker() *FinishedChecker {
	return &FinishedChecker{}
}

func (c *FinishedChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkFinished(c.memory, snapshot)
	return diffs
}
