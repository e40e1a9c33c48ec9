package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cfoust/dipwatch/pkg/api"
	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/config"
	"github.com/cfoust/dipwatch/pkg/history"
	"github.com/cfoust/dipwatch/pkg/notify"
	"github.com/cfoust/dipwatch/pkg/poller"
	"github.com/cfoust/dipwatch/pkg/source"
	"github.com/cfoust/dipwatch/pkg/tracker"
	"github.com/cfoust/dipwatch/pkg/utils"

	"github.com/rs/zerolog/log"
)

// openHistory loads the configuration and opens its history store,
// migrating the legacy file first when the store lives on disk.
func openHistory(ctx context.Context, configs []string) (*config.Config, *codec.Codec, history.Store, func(), error) {
	cfg, err := config.Process(configs)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	c, err := cfg.Codec.Build()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store, closeStore, err := history.Open(ctx, cfg.History.Config, c)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("could not open history: %w", err)
	}

	if fs, ok := store.(*history.FSStore); ok {
		migrated, err := fs.MigrateLegacy(ctx)
		if err != nil {
			closeStore()
			return nil, nil, nil, nil, fmt.Errorf("could not migrate legacy history: %w", err)
		}
		if migrated > 0 {
			log.Info().Int("snapshots", migrated).Msg("migrated legacy history")
		}
	}

	return cfg, c, store, closeStore, nil
}

func pollCommand(configs []string, games []int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, c, store, closeStore, err := openHistory(ctx, configs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start dipwatch")
	}
	defer closeStore()

	ids := games
	if len(ids) == 0 {
		ids = cfg.Games
	}
	if len(ids) == 0 {
		ids, err = store.Games(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list games in history")
		}
	}
	if len(ids) == 0 {
		log.Fatal().Msg("no games to poll, pass game ids or set games in the config")
	}

	var topic *utils.Topic[notify.Event]
	if cfg.API.Enabled {
		topic = utils.NewTopic[notify.Event]()
	}

	sink, err := notify.Build(cfg.Sink.Config, topic)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sink configuration")
	}

	webDiplomacy := source.NewWebDiplomacy(
		cfg.Source.BaseURL,
		cfg.Source.Timeout.Duration(),
		cfg.Source.Cookies,
	)

	var trackerOptions []tracker.Option
	if cfg.Notifications.Personal {
		trackerOptions = append(trackerOptions, tracker.WithPersonal())
	}

	manager := poller.NewManager(cfg.PollInterval.Duration())
	for _, id := range ids {
		p := poller.New(
			id,
			webDiplomacy,
			store,
			tracker.New(id, sink, trackerOptions...),
			poller.WithStopWhenFinished(),
		)

		err := manager.Add(ctx, p)
		if err != nil {
			log.Fatal().Err(err).Int("game", id).Msg("failed to start poller")
		}

		log.Info().
			Int("game", id).
			Str("url", webDiplomacy.BoardURL(id)).
			Dur("interval", cfg.PollInterval.Duration()).
			Msg("polling game")
	}

	errc := make(chan error, 1)
	if cfg.API.Enabled {
		server := api.New(store, c, manager, topic)
		go func() {
			errc <- server.ListenAndServe(ctx, cfg.API.Address)
		}()
	}

	finished := make(chan struct{})
	go func() {
		manager.Wait()
		close(finished)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("failed to serve api")
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	case <-finished:
		log.Info().Msg("every game has finished")
	}

	cancel()
	manager.Stop()
	manager.Wait()

	return nil
}
