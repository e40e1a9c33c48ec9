package diff

import (
	"fmt"

	"github.com/cfoust/dipwatch/pkg/game"
)

// A Diff is a single notification about a change in a game.
type Diff struct {
	Message string `json:"message"`
	// Personal diffs are addressed to the observing user rather than to
	// everyone following the game.
	Personal bool `json:"personal"`
}

func Global(format string, args ...interface{}) Diff {
	return Diff{Message: fmt.Sprintf(format, args...)}
}

func Personal(format string, args ...interface{}) Diff {
	return Diff{Message: fmt.Sprintf(format, args...), Personal: true}
}

func (d Diff) String() string {
	return d.Message
}

// OnlyGlobal drops personal diffs.
func OnlyGlobal(diffs []Diff) []Diff {
	global := make([]Diff, 0, len(diffs))
	for _, d := range diffs {
		if !d.Personal {
			global = append(global, d)
		}
	}
	return global
}

func Messages(diffs []Diff) []string {
	messages := make([]string, len(diffs))
	for i, d := range diffs {
		messages[i] = d.Message
	}
	return messages
}

// A Checker watches one facet of a game across successive snapshots. It
// remembers whatever it needs from earlier snapshots, so snapshots must be
// provided in time order.
type Checker interface {
	Check(snapshot game.Snapshot) []Diff
}

// DefaultCheckers returns a fresh set of the standard checkers in
// evaluation order. OrderChecker relies on running as a single unit, and
// the rest are independent.
func DefaultCheckers() []Checker {
	return []Checker{
		NewPhaseChecker(),
		NewHourRemainingChecker(),
		NewPausedChecker(),
		NewOrderChecker(),
		NewDefeatedChecker(),
		NewVoteChecker(),
		NewFinishedChecker(),
	}
}
