package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var START = time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)

func makeSnapshot(gameID int, minutes int, phase game.Phase) game.Snapshot {
	return game.NewSnapshot(
		START.Add(time.Duration(minutes)*time.Minute),
		game.GameState{
			Name:  fmt.Sprintf("game %d", gameID),
			ID:    gameID,
			Date:  game.GameDate{Season: game.SeasonSpring, Year: 1901},
			Phase: phase,
			Countries: []game.CountryState{
				{Country: "England", Status: game.StatusReady},
				{Country: "France", Status: game.StatusNotReceived},
			},
		},
	)
}

// testStore checks the behavior every store shares.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	games, err := store.Games(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)

	latest, err := store.Latest(ctx, 1)
	require.NoError(t, err)
	assert.True(t, opt.IsNone(latest))

	snapshots, err := store.Snapshots(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	first := makeSnapshot(1, 0, game.PhaseDiplomacy)
	second := makeSnapshot(1, 10, game.PhaseRetreats)
	other := makeSnapshot(2, 5, game.PhaseBuilds)

	require.NoError(t, store.Append(ctx, 1, first))
	require.NoError(t, store.Append(ctx, 2, other))
	require.NoError(t, store.Append(ctx, 1, second))

	games, err = store.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, games)

	snapshots, err = store.Snapshots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.True(t, snapshots[0].Time.Equal(first.Time))
	assert.True(t, snapshots[0].State.Equal(first.State))
	assert.True(t, snapshots[1].State.Equal(second.State))

	latest, err = store.Latest(ctx, 1)
	require.NoError(t, err)
	require.False(t, opt.IsNone(latest))
	assert.Equal(t, game.PhaseRetreats, latest.Value.State.Phase)

	latest, err = store.Latest(ctx, 2)
	require.NoError(t, err)
	require.False(t, opt.IsNone(latest))
	assert.Equal(t, game.PhaseBuilds, latest.Value.State.Phase)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFSStore(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			c, err := codec.New(format, codec.DefaultOptions())
			require.NoError(t, err)

			store, err := NewFSStore(t.TempDir(), c)
			require.NoError(t, err)
			testStore(t, store)
		})
	}
}

func TestFSStoreFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir, codec.Default())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, 42, makeSnapshot(42, 0, game.PhaseDiplomacy)))
	assert.FileExists(t, filepath.Join(dir, "42-snapshots.json"))

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	games, err := store.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{42}, games)
}

func TestFSStoreSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := codec.Default()
	store, err := NewFSStore(dir, c)
	require.NoError(t, err)

	good, err := c.EncodeSnapshot(makeSnapshot(1, 0, game.PhaseDiplomacy))
	require.NoError(t, err)
	data, err := c.EncodeList([][]byte{
		good,
		[]byte(`{"time":"yesterday"}`),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-snapshots.json"), data, 0644))

	ctx := context.Background()
	snapshots, err := store.Snapshots(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)

	latest, err := store.Latest(ctx, 1)
	require.NoError(t, err)
	require.False(t, opt.IsNone(latest))
	assert.True(t, latest.Value.Time.Equal(START))

	// The bad record survives a rewrite
	require.NoError(t, store.Append(ctx, 1, makeSnapshot(1, 5, game.PhaseRetreats)))
	records, err := store.readRecords(1)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// A file that is not a list at all is an error
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2-snapshots.json"), []byte("{"), 0644))
	_, err = store.Snapshots(ctx, 2)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFSStoreMigrateLegacy(t *testing.T) {
	dir := t.TempDir()
	c := codec.Default()
	store, err := NewFSStore(dir, c)
	require.NoError(t, err)

	ctx := context.Background()

	// Nothing to do
	count, err := store.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Game 1 already has a newer snapshot in the per-game format
	require.NoError(t, store.Append(ctx, 1, makeSnapshot(1, 30, game.PhaseBuilds)))

	first, err := c.EncodeSnapshots([]game.Snapshot{
		makeSnapshot(1, 0, game.PhaseDiplomacy),
		makeSnapshot(1, 10, game.PhaseRetreats),
	})
	require.NoError(t, err)
	second, err := c.EncodeSnapshots([]game.Snapshot{
		makeSnapshot(7, 0, game.PhaseDiplomacy),
	})
	require.NoError(t, err)

	legacy := fmt.Sprintf(`{"1": %s, "7": %s}`, first, second)
	legacyPath := filepath.Join(dir, LEGACY_SNAPSHOTS_FILE)
	require.NoError(t, os.WriteFile(legacyPath, []byte(legacy), 0644))

	count, err = store.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoFileExists(t, legacyPath)

	games, err := store.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7}, games)

	snapshots, err := store.Snapshots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, game.PhaseDiplomacy, snapshots[0].State.Phase)
	assert.Equal(t, game.PhaseRetreats, snapshots[1].State.Phase)
	assert.Equal(t, game.PhaseBuilds, snapshots[2].State.Phase)
}

func TestSQLStore(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	testStore(t, NewSQLStore(db, codec.Default()))
}

func TestRedisStore(t *testing.T) {
	address := os.Getenv("DIPWATCH_TEST_REDIS")
	if address == "" {
		t.Skip("DIPWATCH_TEST_REDIS not set")
	}

	client := redis.NewClient(&redis.Options{Addr: address})
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.FlushDB(ctx).Err())

	c, err := codec.New(codec.FormatCBOR, codec.DefaultOptions())
	require.NoError(t, err)
	testStore(t, NewRedisStore(client, c))
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("DIPWATCH_TEST_MONGO")
	if uri == "" {
		t.Skip("DIPWATCH_TEST_MONGO not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("dipwatch-test-" + uuid.NewString()[:8])
	defer db.Drop(ctx)

	testStore(t, NewMongoStore(ctx, db, codec.Default()))
}
