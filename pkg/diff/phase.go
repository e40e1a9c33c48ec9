package diff

import (
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/repeale/fp-go/option"
)

type PhaseMemory struct {
	Reported opt.Option[game.DatePhase]
}

func checkPhase(memory PhaseMemory, snapshot game.Snapshot) (PhaseMemory, []Diff) {
	current := snapshot.State.DatePhase()

	// FinishedChecker owns the final transition
	if current.Phase == game.PhaseFinished {
		return memory, nil
	}

	if !opt.IsNone(memory.Reported) && memory.Reported.Value == current {
		return memory, nil
	}

	memory.Reported = opt.Some(current)
	return memory, []Diff{Global("Moving to: %s", current)}
}

// PhaseChecker reports when the game moves to a new date and phase.
type PhaseChecker struct {
	memory PhaseMemory
}

func NewPhaseChecker() *PhaseChecker {
	return &PhaseChecker{
		memory: PhaseMemory{Reported: opt.None[game.DatePhase]()},
	}
}

func (c *PhaseChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkPhase(c.memory, snapshot)
	return diffs
}
