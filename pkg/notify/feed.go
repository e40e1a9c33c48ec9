package notify

import (
	"context"
	"time"

	"github.com/cfoust/dipwatch/pkg/diff"
	"github.com/cfoust/dipwatch/pkg/utils"
)

// An Event is one non-empty batch of global diffs.
type Event struct {
	Game  int         `json:"game,omitempty"`
	Time  time.Time   `json:"time"`
	Diffs []diff.Diff `json:"diffs"`
}

// Feed publishes global diffs to live subscribers. Slow subscribers miss
// events rather than holding up delivery.
type Feed struct {
	topic *utils.Topic[Event]
	now   func() time.Time
}

func NewFeed(topic *utils.Topic[Event]) *Feed {
	return &Feed{
		topic: topic,
		now:   time.Now,
	}
}

func (f *Feed) Topic() *utils.Topic[Event] {
	return f.topic
}

func (f *Feed) Deliver(ctx context.Context, diffs []diff.Diff) error {
	global := diff.OnlyGlobal(diffs)
	if len(global) == 0 {
		return nil
	}

	event := Event{
		Time:  f.now().UTC(),
		Diffs: global,
	}
	if id, ok := GameFromContext(ctx); ok {
		event.Game = id
	}

	f.topic.Publish(event)
	return nil
}

var _ Sink = (*Feed)(nil)
