package poller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Manager runs one poller per game, each on its own goroutine.
type Manager struct {
	interval time.Duration

	mutex   deadlock.Mutex
	pollers map[int]*Poller
	wg      sync.WaitGroup
}

func NewManager(interval time.Duration) *Manager {
	return &Manager{
		interval: interval,
		pollers:  make(map[int]*Poller),
	}
}

func (m *Manager) Add(ctx context.Context, poller *Poller) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := poller.GameID()
	if poller.IsDone() {
		return fmt.Errorf("poller for game %d was already stopped", id)
	}
	if _, ok := m.pollers[id]; ok {
		return fmt.Errorf("game %d is already being polled", id)
	}
	m.pollers[id] = poller

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		err := poller.Run(ctx, m.interval)
		if err != nil {
			log.Error().Err(err).Int("game", id).Msg("poller exited")
			return
		}
		log.Info().Int("game", id).Msg("poller stopped")
	}()

	return nil
}

func (m *Manager) Get(gameID int) (*Poller, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	poller, ok := m.pollers[gameID]
	return poller, ok
}

// Pollers returns every poller ordered by game id.
func (m *Manager) Pollers() []*Poller {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	pollers := make([]*Poller, 0, len(m.pollers))
	for _, poller := range m.pollers {
		pollers = append(pollers, poller)
	}
	sort.Slice(pollers, func(i, j int) bool {
		return pollers[i].GameID() < pollers[j].GameID()
	})
	return pollers
}

func (m *Manager) Stop() {
	for _, poller := range m.Pollers() {
		poller.Stop()
	}
}

// Wait blocks until every poller has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}
