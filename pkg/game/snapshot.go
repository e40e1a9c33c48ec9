package game

import "time"

// A Snapshot is one timestamped observation of a game.
type Snapshot struct {
	Time  time.Time
	State GameState
}

func NewSnapshot(t time.Time, state GameState) Snapshot {
	return Snapshot{
		Time:  t,
		State: state.Normalize(),
	}
}

func (s Snapshot) Before(other Snapshot) bool {
	return s.Time.Before(other.Time)
}
