package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/rs/zerolog/log"
)

const DEFAULT_BASE_URL = "http://webdiplomacy.net"

var ErrUnexpectedStatus = fmt.Errorf("unexpected status code")

// WebDiplomacy scrapes game boards from a webDiplomacy server.
type WebDiplomacy struct {
	baseURL string
	client  *http.Client
	cookies map[string]string
}

func NewWebDiplomacy(baseURL string, timeout time.Duration, cookies map[string]string) *WebDiplomacy {
	if baseURL == "" {
		baseURL = DEFAULT_BASE_URL
	}

	return &WebDiplomacy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cookies: cookies,
	}
}

func (w *WebDiplomacy) BoardURL(gameID int) string {
	values := url.Values{}
	values.Set("gameID", strconv.Itoa(gameID))
	return fmt.Sprintf("%s/board.php?%s", w.baseURL, values.Encode())
}

func (w *WebDiplomacy) FetchState(ctx context.Context, gameID int) (game.GameState, error) {
	target := w.BoardURL(gameID)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return game.GameState{}, err
	}

	for name, value := range w.cookies {
		request.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	response, err := w.client.Do(request)
	if err != nil {
		return game.GameState{}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return game.GameState{}, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, response.StatusCode, target)
	}

	state, err := ParseBoard(response.Body, gameID)
	if err != nil {
		return game.GameState{}, fmt.Errorf("failed to parse game %d: %w", gameID, err)
	}

	log.Debug().
		Int("game", gameID).
		Str("phase", state.DatePhase().String()).
		Int("countries", len(state.Countries)).
		Msg("fetched game")
	return state, nil
}

var _ Source = (*WebDiplomacy)(nil)
