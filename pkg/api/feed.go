package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cfoust/dipwatch/pkg/notify"

	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const FEED_WRITE_TIMEOUT = 5 * time.Second

func WriteTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, event notify.Event) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return wsjson.Write(ctx, c, event)
}

// Feed streams notify.Events to a websocket client. The optional "game"
// query parameter limits the stream to a single game.
func (s *Server) Feed(w http.ResponseWriter, r *http.Request) {
	if s.topic == nil {
		writeError(w, http.StatusNotFound, "the feed is not enabled")
		return
	}

	filter := 0
	if value := r.URL.Query().Get("game"); value != "" {
		id, err := strconv.Atoi(value)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}
		filter = id
	}

	agent := useragent.Parse(r.UserAgent())
	logger := log.With().
		Str("address", r.RemoteAddr).
		Str("browser", agent.Name).
		Str("os", agent.OS).
		Bool("bot", agent.Bot).
		Logger()

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to accept feed client")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during feed")

	logger.Info().Int("game", filter).Msg("feed client connected")

	err = s.subscribe(r.Context(), c, filter)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("feed client disconnected")
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		logger.Info().Msg("feed client disconnected")
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("feed client failed")
		return
	}
}

func (s *Server) subscribe(ctx context.Context, c *websocket.Conn, filter int) error {
	ctx = c.CloseRead(ctx)

	subscriber := s.topic.Subscribe()
	defer subscriber.Done()

	for {
		select {
		case event := <-subscriber.Recv():
			if filter != 0 && event.Game != filter {
				continue
			}

			err := WriteTimeout(ctx, FEED_WRITE_TIMEOUT, c, event)
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
