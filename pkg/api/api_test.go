package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/diff"
	"github.com/cfoust/dipwatch/pkg/game"
	"github.com/cfoust/dipwatch/pkg/history"
	"github.com/cfoust/dipwatch/pkg/notify"
	"github.com/cfoust/dipwatch/pkg/poller"
	"github.com/cfoust/dipwatch/pkg/source"
	"github.com/cfoust/dipwatch/pkg/tracker"
	"github.com/cfoust/dipwatch/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var START = time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)

func makeState(id int, phase game.Phase) game.GameState {
	return game.GameState{
		Name:  "test",
		ID:    id,
		Date:  game.GameDate{Season: game.SeasonSpring, Year: 1901},
		Phase: phase,
		Countries: []game.CountryState{
			{Country: "England", Status: game.StatusReady},
			{Country: "France", Status: game.StatusNotReceived},
		},
	}
}

func seed(t *testing.T, store history.Store) {
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, 7, game.NewSnapshot(START, makeState(7, game.PhaseDiplomacy))))
	require.NoError(t, store.Append(ctx, 7, game.NewSnapshot(START.Add(time.Hour), makeState(7, game.PhaseRetreats))))
}

func do(t *testing.T, server *httptest.Server, method, path string, header http.Header) (*http.Response, []byte) {
	req, err := http.NewRequest(method, server.URL+path, nil)
	require.NoError(t, err)
	for key, values := range header {
		req.Header[key] = values
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHistoryEndpoints(t *testing.T) {
	store := history.NewMemoryStore()
	seed(t, store)

	c := codec.Default()
	server := httptest.NewServer(New(store, c, nil, nil))
	defer server.Close()

	resp, body := do(t, server, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = do(t, server, "GET", "/games", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":7}]`, string(body))

	resp, body = do(t, server, "GET", "/games/7/snapshots", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, c.ContentType(), resp.Header.Get("Content-Type"))
	snapshots, err := c.DecodeSnapshots(body)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, game.PhaseRetreats, snapshots[1].State.Phase)

	resp, body = do(t, server, "GET", "/games/7/latest", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	latest, err := c.DecodeSnapshot(body)
	require.NoError(t, err)
	assert.True(t, latest.State.Equal(makeState(7, game.PhaseRetreats)))

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	resp, _ = do(t, server, "GET", "/games/7/latest", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, _ = do(t, server, "GET", "/games/8/latest", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, server, "GET", "/games/seven/latest", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Digits, but too many for a game id
	for _, path := range []string{
		"/games/99999999999999999999/latest",
		"/games/99999999999999999999/snapshots",
		"/games/99999999999999999999/status",
		"/games/0/latest",
	} {
		resp, body = do(t, server, "GET", path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.JSONEq(t, `{"error":"invalid game id"}`, string(body), path)
	}

	// Nothing is being polled
	resp, _ = do(t, server, "POST", "/games/7/pause", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, server, "GET", "/feed", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPollControl(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := history.NewMemoryStore()
	seed(t, store)

	manager := poller.NewManager(time.Hour)
	defer func() {
		manager.Stop()
		manager.Wait()
	}()

	fetch := source.SourceFunc(func(ctx context.Context, gameID int) (game.GameState, error) {
		return makeState(gameID, game.PhaseDiplomacy), nil
	})
	require.NoError(t, manager.Add(ctx, poller.New(9, fetch, store, tracker.New(9, nil))))

	server := httptest.NewServer(New(store, codec.Default(), manager, nil))
	defer server.Close()

	resp, body := do(t, server, "GET", "/games", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var games []GameSummary
	require.NoError(t, json.Unmarshal(body, &games))
	require.Len(t, games, 2)
	assert.Equal(t, 7, games[0].ID)
	assert.Nil(t, games[0].Status)
	assert.Equal(t, 9, games[1].ID)
	require.NotNil(t, games[1].Status)

	resp, body = do(t, server, "POST", "/games/9/pause", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status poller.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 9, status.Game)
	assert.True(t, status.Paused)

	resp, body = do(t, server, "GET", "/games/9/status", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.Paused)

	resp, body = do(t, server, "POST", "/games/9/resume", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.Paused)

	resp, _ = do(t, server, "GET", "/games/9/pause", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = do(t, server, "POST", "/games/7/pause", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	topic := utils.NewTopic[notify.Event]()
	server := httptest.NewServer(New(history.NewMemoryStore(), codec.Default(), nil, topic))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/feed?game=2"
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	assert.Eventually(t, func() bool {
		return topic.NumSubscribers() == 1
	}, 5*time.Second, 5*time.Millisecond)

	topic.Publish(notify.Event{
		Game:  1,
		Time:  START,
		Diffs: []diff.Diff{diff.Global("filtered out")},
	})
	topic.Publish(notify.Event{
		Game:  2,
		Time:  START,
		Diffs: []diff.Diff{diff.Global("Moving to: Spring, 1901, Diplomacy")},
	})

	var event notify.Event
	require.NoError(t, wsjson.Read(ctx, c, &event))
	assert.Equal(t, 2, event.Game)
	assert.True(t, event.Time.Equal(START))
	assert.Equal(t, []string{"Moving to: Spring, 1901, Diplomacy"}, diff.Messages(event.Diffs))
}

func TestFeedInvalidGame(t *testing.T) {
	topic := utils.NewTopic[notify.Event]()
	server := httptest.NewServer(New(history.NewMemoryStore(), codec.Default(), nil, topic))
	defer server.Close()

	resp, _ := do(t, server, "GET", "/feed?game=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
