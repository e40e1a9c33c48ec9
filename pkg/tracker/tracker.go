package tracker

import (
	"context"

	"github.com/cfoust/dipwatch/pkg/diff"
	"github.com/cfoust/dipwatch/pkg/game"
	"github.com/cfoust/dipwatch/pkg/notify"

	"github.com/rs/zerolog/log"
)

type Option func(*Tracker)

// WithPersonal appends the checker for diffs that only concern the
// observing user.
func WithPersonal() Option {
	return func(t *Tracker) {
		t.checkers = append(t.checkers, diff.NewMessageChecker())
	}
}

// WithCheckers replaces the default checkers entirely.
func WithCheckers(checkers ...diff.Checker) Option {
	return func(t *Tracker) {
		t.checkers = checkers
	}
}

// Tracker runs every checker for a single game over a stream of
// snapshots.
type Tracker struct {
	gameID   int
	sink     notify.Sink
	checkers []diff.Checker
}

func New(gameID int, sink notify.Sink, opts ...Option) *Tracker {
	tracker := &Tracker{
		gameID:   gameID,
		sink:     sink,
		checkers: diff.DefaultCheckers(),
	}

	for _, opt := range opts {
		opt(tracker)
	}

	return tracker
}

func (t *Tracker) GameID() int {
	return t.gameID
}

// Prime replays a historical snapshot. Checker memories advance but
// nothing is reported.
func (t *Tracker) Prime(snapshot game.Snapshot) {
	t.Observe(snapshot)
}

func (t *Tracker) Observe(snapshot game.Snapshot) []diff.Diff {
	diffs := make([]diff.Diff, 0)
	for _, checker := range t.checkers {
		diffs = append(diffs, checker.Check(snapshot)...)
	}
	return diffs
}

// ObserveAndNotify observes the snapshot and hands the resulting batch to
// the sink, even when it is empty.
func (t *Tracker) ObserveAndNotify(ctx context.Context, snapshot game.Snapshot) []diff.Diff {
	diffs := t.Observe(snapshot)

	if len(diffs) > 0 {
		log.Debug().
			Int("game", t.gameID).
			Int("diffs", len(diffs)).
			Msg("observed changes")
	}

	if t.sink == nil {
		return diffs
	}

	err := t.sink.Deliver(notify.WithGame(ctx, t.gameID), diffs)
	if err != nil {
		log.Warn().
			Err(err).
			Int("game", t.gameID).
			Msg("failed to deliver diffs")
	}

	return diffs
}
