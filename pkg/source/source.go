package source

import (
	"context"

	"github.com/cfoust/dipwatch/pkg/game"
)

// Source reports the current state of a game.
type Source interface {
	FetchState(ctx context.Context, gameID int) (game.GameState, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, gameID int) (game.GameState, error)

func (f SourceFunc) FetchState(ctx context.Context, gameID int) (game.GameState, error) {
	return f(ctx, gameID)
}
