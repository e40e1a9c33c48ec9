package history

import (
	"context"
	"sort"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/repeale/fp-go/option"
	"github.com/sasha-s/go-deadlock"
)

type MemoryStore struct {
	mutex     deadlock.RWMutex
	snapshots map[int][]game.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[int][]game.Snapshot),
	}
}

func (m *MemoryStore) Games(ctx context.Context) ([]int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	games := make([]int, 0, len(m.snapshots))
	for id := range m.snapshots {
		games = append(games, id)
	}
	sort.Ints(games)
	return games, nil
}

func (m *MemoryStore) Snapshots(ctx context.Context, gameID int) ([]game.Snapshot, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snapshots := m.snapshots[gameID]
	copied := make([]game.Snapshot, len(snapshots))
	copy(copied, snapshots)
	return copied, nil
}

func (m *MemoryStore) Latest(ctx context.Context, gameID int) (opt.Option[game.Snapshot], error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snapshots := m.snapshots[gameID]
	if len(snapshots) == 0 {
		return opt.None[game.Snapshot](), nil
	}
	return opt.Some(snapshots[len(snapshots)-1]), nil
}

func (m *MemoryStore) Append(ctx context.Context, gameID int, snapshot game.Snapshot) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.snapshots[gameID] = append(m.snapshots[gameID], snapshot)
	return nil
}

var _ Store = (*MemoryStore)(nil)
