package diff

import (
	"github.com/cfoust/dipwatch/pkg/game"
)

type VoteMemory struct {
	// Vote -> the country that started it
	Starters map[game.Vote]string
	// Vote -> the only country that has not cast it
	LastRemaining map[game.Vote]string
}

func checkVotes(memory VoteMemory, snapshot game.Snapshot) (VoteMemory, []Diff) {
	var diffs []Diff

	active := snapshot.State.ActiveCountries()

	for _, vote := range game.AllVotes {
		var voting []string
		var notVoting []string
		for _, country := range active {
			if country.HasVote(vote) {
				voting = append(voting, country.Country)
			} else {
				notVoting = append(notVoting, country.Country)
			}
		}

		switch {
		case len(voting) == 1:
			country := voting[0]
			if starter, ok := memory.Starters[vote]; !ok || starter != country {
				memory.Starters[vote] = country
				diffs = append(diffs, Global("%s is starting a \"%s\" vote", country, vote))
			}
		case len(voting) > 0 && len(voting) == len(active)-1:
			country := notVoting[0]
			if last, ok := memory.LastRemaining[vote]; !ok || last != country {
				memory.LastRemaining[vote] = country
				diffs = append(diffs, Global("Only %s has not voted \"%s\" yet", country, vote))
			}
		default:
			delete(memory.Starters, vote)
			delete(memory.LastRemaining, vote)
		}
	}

	return memory, diffs
}

// VoteChecker reports when a country starts a vote and when only one
// country has yet to cast it.
type VoteChecker struct {
	memory VoteMemory
}

func NewVoteChecker() *VoteChecker {
	return &VoteChecker{
		memory: VoteMemory{
			Starters:      make(map[game.Vote]string),
			LastRemaining: make(map[game.Vote]string),
		},
	}
}

func (c *VoteChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkVotes(c.memory, snapshot)
	return diffs
}
