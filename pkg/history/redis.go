package history

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/go-redis/redis/v9"
	"github.com/repeale/fp-go/option"
)

const (
	GAMES_KEY     = "dipwatch-games"
	SNAPSHOTS_KEY = "dipwatch-snapshots-%d"
)

// RedisStore keeps a sorted set per game, scored by the snapshot's unix
// time in milliseconds.
type RedisStore struct {
	client *redis.Client
	codec  *codec.Codec
}

func NewRedisStore(client *redis.Client, c *codec.Codec) *RedisStore {
	return &RedisStore{
		client: client,
		codec:  c,
	}
}

func snapshotsKey(gameID int) string {
	return fmt.Sprintf(SNAPSHOTS_KEY, gameID)
}

func toRecords(members []string) [][]byte {
	records := make([][]byte, len(members))
	for i, member := range members {
		records[i] = []byte(member)
	}
	return records
}

func (r *RedisStore) Games(ctx context.Context) ([]int, error) {
	members, err := r.client.SMembers(ctx, GAMES_KEY).Result()
	if err != nil {
		return nil, err
	}

	games := make([]int, 0, len(members))
	for _, member := range members {
		id, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		games = append(games, id)
	}

	sort.Ints(games)
	return games, nil
}

func (r *RedisStore) Snapshots(ctx context.Context, gameID int) ([]game.Snapshot, error) {
	members, err := r.client.ZRange(ctx, snapshotsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decodeRecords(r.codec, gameID, toRecords(members)), nil
}

func (r *RedisStore) Latest(ctx context.Context, gameID int) (opt.Option[game.Snapshot], error) {
	// Everything is read so that a bad final record can be skipped
	members, err := r.client.ZRange(ctx, snapshotsKey(gameID), 0, -1).Result()
	if err != nil {
		return opt.None[game.Snapshot](), err
	}
	return latestRecord(r.codec, gameID, toRecords(members)), nil
}

func (r *RedisStore) Append(ctx context.Context, gameID int, snapshot game.Snapshot) error {
	record, err := r.codec.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, snapshotsKey(gameID), redis.Z{
			Score:  float64(snapshot.Time.UnixMilli()),
			Member: record,
		})
		pipe.SAdd(ctx, GAMES_KEY, gameID)
		return nil
	})
	return err
}

var _ Store = (*RedisStore)(nil)
