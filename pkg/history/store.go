package history

import (
	"context"
	"fmt"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

// Store keeps every snapshot worth remembering for each game, oldest
// first.
type Store interface {
	Games(ctx context.Context) ([]int, error)
	Snapshots(ctx context.Context, gameID int) ([]game.Snapshot, error)
	Latest(ctx context.Context, gameID int) (opt.Option[game.Snapshot], error)
	Append(ctx context.Context, gameID int, snapshot game.Snapshot) error
}

var ErrCorrupt = fmt.Errorf("history is corrupt")

// decodeRecords decodes what it can. Records that fail are logged and
// left out.
func decodeRecords(c *codec.Codec, gameID int, records [][]byte) []game.Snapshot {
	snapshots := make([]game.Snapshot, 0, len(records))
	for i, record := range records {
		snapshot, err := c.DecodeSnapshot(record)
		if err != nil {
			log.Warn().
				Err(err).
				Int("game", gameID).
				Int("index", i).
				Msg("skipping unreadable snapshot")
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

// latestRecord decodes from the end until a record can be read.
func latestRecord(c *codec.Codec, gameID int, records [][]byte) opt.Option[game.Snapshot] {
	for i := len(records) - 1; i >= 0; i-- {
		snapshot, err := c.DecodeSnapshot(records[i])
		if err != nil {
			log.Warn().
				Err(err).
				Int("game", gameID).
				Int("index", i).
				Msg("skipping unreadable snapshot")
			continue
		}
		return opt.Some(snapshot)
	}
	return opt.None[game.Snapshot]()
}
