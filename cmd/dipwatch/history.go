package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"
	"github.com/cfoust/dipwatch/pkg/history"

	"github.com/rs/zerolog/log"
)

func writeSnapshots(out io.Writer, snapshots []game.Snapshot, format string, options codec.Options) error {
	if format == "json" {
		// Always JSON, whatever the store uses
		c, err := codec.New(codec.FormatJSON, options)
		if err != nil {
			return err
		}

		data, err := c.EncodeSnapshots(snapshots)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}

	for _, snapshot := range snapshots {
		_, err := fmt.Fprintf(
			out,
			"%s\n%s\n\n",
			snapshot.Time.Format(time.RFC3339),
			snapshot.State.String(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func historyCommand(configs []string, gameID int, format string) error {
	ctx := context.Background()

	_, c, store, closeStore, err := openHistory(ctx, configs)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshots, err := store.Snapshots(ctx, gameID)
	if err != nil {
		return err
	}

	if len(snapshots) == 0 {
		log.Warn().Int("game", gameID).Msg("no snapshots stored")
		return nil
	}

	return writeSnapshots(os.Stdout, snapshots, format, c.Options())
}

func migrateCommand(configs []string) error {
	ctx := context.Background()

	// openHistory migrates file stores on its own
	_, _, store, closeStore, err := openHistory(ctx, configs)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, ok := store.(*history.FSStore); !ok {
		log.Warn().Msg("the configured history store has no legacy file to migrate")
		return nil
	}

	games, err := store.Games(ctx)
	if err != nil {
		return err
	}

	log.Info().Ints("games", games).Msg("history is up to date")
	return nil
}
