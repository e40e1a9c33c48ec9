package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/history"
	"github.com/cfoust/dipwatch/pkg/notify"
	"github.com/cfoust/dipwatch/pkg/poller"
	"github.com/cfoust/dipwatch/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

// Server exposes stored history and the pollers over HTTP.
type Server struct {
	history history.Store
	codec   *codec.Codec
	manager *poller.Manager
	topic   *utils.Topic[notify.Event]
	router  *mux.Router
}

// New builds the router. manager and topic may be nil, in which case the
// poll control and feed endpoints respond with 404.
func New(store history.Store, c *codec.Codec, manager *poller.Manager, topic *utils.Topic[notify.Event]) *Server {
	server := &Server{
		history: store,
		codec:   c,
		manager: manager,
		topic:   topic,
		router:  mux.NewRouter(),
	}

	r := server.router
	r.HandleFunc("/health", server.Health).Methods("GET")
	r.HandleFunc("/games", server.Games).Methods("GET")
	r.HandleFunc("/games/{id:[0-9]+}/snapshots", server.Snapshots).Methods("GET")
	r.HandleFunc("/games/{id:[0-9]+}/latest", server.Latest).Methods("GET")
	r.HandleFunc("/games/{id:[0-9]+}/status", server.Status).Methods("GET")
	r.HandleFunc("/games/{id:[0-9]+}/pause", server.Pause).Methods("POST")
	r.HandleFunc("/games/{id:[0-9]+}/resume", server.Resume).Methods("POST")
	r.HandleFunc("/feed", server.Feed).Methods("GET")

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	log.Info().Msgf("api listening on http://%v", listener.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = httpServer.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// gameID reads the route's id. The route only matches digits, but they
// can still overflow an int.
func gameID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return 0, false
	}
	return id, true
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GameSummary describes one known game. Status is only present for games
// being polled by this process.
type GameSummary struct {
	ID     int            `json:"id"`
	Status *poller.Status `json:"status,omitempty"`
}

func (s *Server) Games(w http.ResponseWriter, r *http.Request) {
	stored, err := s.history.Games(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list games")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	games := make(map[int]*GameSummary)
	for _, id := range stored {
		games[id] = &GameSummary{ID: id}
	}

	if s.manager != nil {
		for _, p := range s.manager.Pollers() {
			status := p.Status()
			games[p.GameID()] = &GameSummary{ID: p.GameID(), Status: &status}
		}
	}

	summaries := make([]GameSummary, 0, len(games))
	for _, summary := range games {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) Snapshots(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	snapshots, err := s.history.Snapshots(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("game", id).Msg("failed to read history")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := s.codec.EncodeSnapshots(snapshots)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", s.codec.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) Latest(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	latest, err := s.history.Latest(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("game", id).Msg("failed to read history")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if opt.IsNone(latest) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no snapshots for game %d", id))
		return
	}

	snapshot := latest.Value
	etag := fmt.Sprintf(`"%016x"`, snapshot.State.Fingerprint())
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.codec.EncodeSnapshot(snapshot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", s.codec.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*poller.Poller, bool) {
	id, ok := gameID(w, r)
	if !ok {
		return nil, false
	}
	if s.manager == nil {
		writeError(w, http.StatusNotFound, "polling is not enabled")
		return nil, false
	}

	p, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("game %d is not being polled", id))
		return nil, false
	}

	return p, true
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) Pause(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	p.Pause()
	log.Info().Int("game", p.GameID()).Msg("polling paused")
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	p.Resume()
	log.Info().Int("game", p.GameID()).Msg("polling resumed")
	writeJSON(w, http.StatusOK, p.Status())
}
