package ticker

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Ticker is a time.Ticker that fires as soon as it is created and can be
// paused.
type Ticker struct {
	C <-chan time.Time // The channel on which the ticks are delivered.

	mutex   deadlock.Mutex
	pause   chan bool
	paused  bool
	stop    chan struct{}
	done    chan struct{}
	stopped bool
	ticker  *time.Ticker
}

func New(d time.Duration) *Ticker {
	c := make(chan time.Time)

	t := &Ticker{
		C:      c,
		pause:  make(chan bool),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		ticker: time.NewTicker(d),
	}

	go t.run(c)

	return t
}

func (t *Ticker) run(c chan<- time.Time) {
	defer close(t.done)
	defer t.ticker.Stop()

	next := time.Now()
	pending := true
	paused := false

	for {
		// A nil channel never receives, which disables the send
		var out chan<- time.Time
		if pending && !paused {
			out = c
		}

		select {
		case out <- next:
			pending = false
		case now := <-t.ticker.C:
			if !paused {
				next = now
				pending = true
			}
		case shouldPause := <-t.pause:
			paused = shouldPause
			if paused {
				pending = false
			}
		case <-t.stop:
			return
		}
	}
}

func (t *Ticker) setPaused(paused bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.stopped || t.paused == paused {
		return
	}
	t.paused = paused
	t.pause <- paused
}

// Pause suspends ticks. Once Pause returns no tick is delivered until
// Resume is called.
func (t *Ticker) Pause() {
	t.setPaused(true)
}

func (t *Ticker) Resume() {
	t.setPaused(false)
}

func (t *Ticker) Paused() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.paused
}

// Stop turns off the ticker. Like time.Ticker, C is not closed.
func (t *Ticker) Stop() {
	t.mutex.Lock()
	if t.stopped {
		t.mutex.Unlock()
		return
	}
	t.stopped = true
	close(t.stop)
	t.mutex.Unlock()

	<-t.done
}

func (t *Ticker) Stopped() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.stopped
}
