package diff

import (
	"sort"

	"github.com/cfoust/dipwatch/pkg/game"
)

type DefeatedMemory struct {
	Defeated map[string]struct{}
}

func checkDefeated(memory DefeatedMemory, snapshot game.Snapshot) (DefeatedMemory, []Diff) {
	current := make(map[string]struct{})
	var newlyDefeated []string
	for _, country := range snapshot.State.Countries {
		if !country.IsDefeated() {
			continue
		}

		current[country.Country] = struct{}{}
		if _, ok := memory.Defeated[country.Country]; !ok {
			newlyDefeated = append(newlyDefeated, country.Country)
		}
	}

	// If a country somehow comes back, it simply drops out of the set.
	memory.Defeated = current

	sort.Strings(newlyDefeated)
	diffs := make([]Diff, 0, len(newlyDefeated))
	for _, name := range newlyDefeated {
		diffs = append(diffs, Global("%s has been defeated", name))
	}
	return memory, diffs
}

// DefeatedChecker reports each country the first time it is seen defeated.
type DefeatedChecker struct {
	memory DefeatedMemory
}

func NewDefeatedChecker() *DefeatedChecker {
	return &DefeatedChecker{
		memory: DefeatedMemory{Defeated: make(map[string]struct{})},
	}
}

func (c *DefeatedChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkDefeated(c.memory, snapshot)
	return diffs
}
