package diff

import (
	"time"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/repeale/fp-go/option"
)

const HOUR_REMAINING_MESSAGE = "One more hour to submit moves!"

type HourMemory struct {
	// When the previous snapshot was taken
	LastSeen opt.Option[time.Time]
	Notified opt.Option[game.DatePhase]
}

// checkHourRemaining fires only when the one-hour mark falls strictly between
// the previous observation and this one. A replay of stored snapshots
// therefore fires at the same point a live poll did.
func checkHourRemaining(memory HourMemory, snapshot game.Snapshot) (HourMemory, []Diff) {
	previous := memory.LastSeen
	memory.LastSeen = opt.Some(snapshot.Time)

	state := snapshot.State
	if opt.IsNone(previous) || state.NextTurnAt == nil {
		return memory, nil
	}

	current := state.DatePhase()
	if !opt.IsNone(memory.Notified) && memory.Notified.Value == current {
		return memory, nil
	}

	oneHourBefore := state.NextTurnAt.Add(-time.Hour)
	if !(oneHourBefore.After(previous.Value) && oneHourBefore.Before(snapshot.Time)) {
		return memory, nil
	}

	memory.Notified = opt.Some(current)
	return memory, []Diff{Global(HOUR_REMAINING_MESSAGE)}
}

// HourRemainingChecker reports when there is an hour left before the next
// turn is processed.
type HourRemainingChecker struct {
	memory HourMemory
}

func NewHourRemainingChecker() *HourRemainingChecker {
	return &HourRemainingChecker{
		memory: HourMemory{
			LastSeen: opt.None[time.Time](),
			Notified: opt.None[game.DatePhase](),
		},
	}
}

func (c *HourRemainingChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkHourRemaining(c.memory, snapshot)
	return diffs
}
