package diff

import (
	"github.com/cfoust/dipwatch/pkg/game"
)

type PausedMemory struct {
	Paused bool
}

func checkPaused(memory PausedMemory, snapshot game.Snapshot) (PausedMemory, []Diff) {
	paused := snapshot.State.Paused
	if paused == memory.Paused {
		return memory, nil
	}

	memory.Paused = paused
	if paused {
		return memory, []Diff{Global("The game is now paused")}
	}
	return memory, []Diff{Global("The game is now un-paused")}
}

type PausedChecker struct {
	memory PausedMemory
}

func NewPausedChecker() *PausedChecker {
	return &PausedChecker{}
}

func (c *PausedChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkPaused(c.memory, snapshot)
	return diffs
}
