package diff

import (
	"sort"
	"strings"

	"github.com/cfoust/dipwatch/pkg/game"
)

type MessageMemory struct {
	Unread map[string]struct{}
}

func checkMessages(memory MessageMemory, snapshot game.Snapshot) (MessageMemory, []Diff) {
	current := make(map[string]struct{})
	var senders []string
	for _, country := range snapshot.State.Countries {
		if !country.MessageUnread {
			continue
		}

		current[country.Country] = struct{}{}
		if _, ok := memory.Unread[country.Country]; !ok {
			senders = append(senders, country.Country)
		}
	}
	memory.Unread = current

	if len(senders) == 0 {
		return memory, nil
	}

	sort.Strings(senders)
	return memory, []Diff{Personal("New message from: %s", strings.Join(senders, ", "))}
}

// MessageChecker tells the observing user about new unread messages. Its
// diffs are personal, so broadcast sinks drop them.
type MessageChecker struct {
	memory MessageMemory
}

func NewMessageChecker() *MessageChecker {
	return &MessageChecker{
		memory: MessageMemory{Unread: make(map[string]struct{})},
	}
}

func (c *MessageChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkMessages(c.memory, snapshot)
	return diffs
}
