package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/cfoust/dipwatch/pkg/game"
	"github.com/cfoust/dipwatch/pkg/history"
	"github.com/cfoust/dipwatch/pkg/source"
	"github.com/cfoust/dipwatch/pkg/ticker"
	"github.com/cfoust/dipwatch/pkg/tracker"
	"github.com/cfoust/dipwatch/pkg/utils"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

type Option func(*Poller)

// WithClock replaces the clock used to timestamp snapshots.
func WithClock(clock func() time.Time) Option {
	return func(p *Poller) {
		p.clock = clock
	}
}

// WithStopWhenFinished ends Run once the game is seen to be over.
func WithStopWhenFinished() Option {
	return func(p *Poller) {
		p.stopWhenFinished = true
	}
}

type Status struct {
	Game      int        `json:"game"`
	Paused    bool       `json:"paused"`
	Finished  bool       `json:"finished"`
	Started   time.Time  `json:"started"`
	Polls     int        `json:"polls"`
	LastPoll  *time.Time `json:"lastPoll,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// Poller watches a single game: it fetches the game's state, reports what
// changed and remembers states that differ from the last one stored.
type Poller struct {
	utils.Session

	gameID  int
	source  source.Source
	history history.Store
	tracker *tracker.Tracker

	clock            func() time.Time
	stopWhenFinished bool

	mutex     deadlock.Mutex
	ticker    *ticker.Ticker
	paused    bool
	finished  bool
	polls     int
	lastPoll  time.Time
	lastError error
}

func New(gameID int, source source.Source, history history.Store, tracker *tracker.Tracker, opts ...Option) *Poller {
	poller := &Poller{
		Session: utils.NewSession(context.Background()),
		gameID:  gameID,
		source:  source,
		history: history,
		tracker: tracker,
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(poller)
	}

	return poller
}

func (p *Poller) GameID() int {
	return p.gameID
}

// Prime replays stored history through the tracker so that nothing
// already reported is reported again.
func (p *Poller) Prime(ctx context.Context) (int, error) {
	snapshots, err := p.history.Snapshots(ctx, p.gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to load history for game %d: %w", p.gameID, err)
	}

	for _, snapshot := range snapshots {
		p.tracker.Prime(snapshot)
	}

	if len(snapshots) > 0 {
		p.mutex.Lock()
		p.finished = snapshots[len(snapshots)-1].State.Finished
		p.mutex.Unlock()
	}

	return len(snapshots), nil
}

func (p *Poller) setResult(err error, finished bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.polls++
	p.lastPoll = p.clock()
	p.lastError = err
	if err == nil {
		p.finished = finished
	}
}

// Poll runs a single tick. A failed fetch leaves everything untouched.
func (p *Poller) Poll(ctx context.Context) error {
	state, err := p.source.FetchState(ctx, p.gameID)
	if err != nil {
		err = fmt.Errorf("failed to fetch game %d: %w", p.gameID, err)
		p.setResult(err, false)
		return err
	}

	snapshot := game.NewSnapshot(p.clock().UTC(), state)
	p.tracker.ObserveAndNotify(ctx, snapshot)

	err = p.persist(ctx, snapshot)
	p.setResult(err, state.Finished)
	return err
}

// persist stores the snapshot unless it matches the latest one stored.
func (p *Poller) persist(ctx context.Context, snapshot game.Snapshot) error {
	latest, err := p.history.Latest(ctx, p.gameID)
	if err != nil {
		return fmt.Errorf("failed to load latest snapshot for game %d: %w", p.gameID, err)
	}

	if !opt.IsNone(latest) && latest.Value.State.Equal(snapshot.State) {
		return nil
	}

	err = p.history.Append(ctx, p.gameID, snapshot)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for game %d: %w", p.gameID, err)
	}

	log.Debug().
		Int("game", p.gameID).
		Uint64("fingerprint", snapshot.State.Fingerprint()).
		Msg("saved snapshot")
	return nil
}

// Run primes the tracker and then polls every interval, starting right
// away, until ctx is done or Stop is called.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	count, err := p.Prime(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("game", p.gameID).
		Int("snapshots", count).
		Msg("primed from history")

	if p.stopWhenFinished && p.Finished() {
		log.Info().Int("game", p.gameID).Msg("game already finished")
		return nil
	}

	t := ticker.New(interval)
	defer t.Stop()

	p.mutex.Lock()
	p.ticker = t
	if p.paused {
		t.Pause()
	}
	p.mutex.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.Ctx().Done():
			return nil
		case <-t.C:
			err := p.Poll(ctx)
			if err != nil {
				log.Warn().Err(err).Int("game", p.gameID).Msg("poll failed")
				continue
			}

			if p.stopWhenFinished && p.Finished() {
				log.Info().Int("game", p.gameID).Msg("game finished, no longer polling")
				return nil
			}
		}
	}
}

func (p *Poller) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.paused = true
	if p.ticker != nil {
		p.ticker.Pause()
	}
}

func (p *Poller) Resume() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.paused = false
	if p.ticker != nil {
		p.ticker.Resume()
	}
}

func (p *Poller) Paused() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.paused
}

func (p *Poller) Finished() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.finished
}

func (p *Poller) Stop() {
	p.Session.Cancel()
}

func (p *Poller) Status() Status {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	status := Status{
		Game:     p.gameID,
		Paused:   p.paused,
		Finished: p.finished,
		Started:  p.Started(),
		Polls:    p.polls,
	}
	if !p.lastPoll.IsZero() {
		lastPoll := p.lastPoll
		status.LastPoll = &lastPoll
	}
	if p.lastError != nil {
		status.LastError = p.lastError.Error()
	}
	return status
}
