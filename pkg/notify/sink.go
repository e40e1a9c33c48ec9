package notify

import (
	"context"
	"errors"

	"github.com/cfoust/dipwatch/pkg/diff"
)

// Sink delivers a batch of diffs somewhere a person will see them.
type Sink interface {
	Deliver(ctx context.Context, diffs []diff.Diff) error
}

type SinkFunc func(ctx context.Context, diffs []diff.Diff) error

func (f SinkFunc) Deliver(ctx context.Context, diffs []diff.Diff) error {
	return f(ctx, diffs)
}

type gameKey struct{}

// WithGame records which game a batch belongs to.
func WithGame(ctx context.Context, gameID int) context.Context {
	return context.WithValue(ctx, gameKey{}, gameID)
}

func GameFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(gameKey{}).(int)
	return id, ok
}

// Composite delivers to every sink in order. A failing sink does not
// stop the rest.
type Composite struct {
	sinks []Sink
}

func NewComposite(sinks ...Sink) *Composite {
	return &Composite{sinks: sinks}
}

func (c *Composite) Deliver(ctx context.Context, diffs []diff.Diff) error {
	var errs []error
	for _, sink := range c.sinks {
		err := sink.Deliver(ctx, diffs)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Composite) Sinks() []Sink {
	return c.sinks
}

var _ Sink = (SinkFunc)(nil)
var _ Sink = (*Composite)(nil)
