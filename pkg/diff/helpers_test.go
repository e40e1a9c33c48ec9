package diff

import (
	"time"

	"github.com/cfoust/dipwatch/pkg/game"
)

var (
	SPRING_1901 = game.GameDate{Season: game.SeasonSpring, Year: 1901}
	AUTUMN_1901 = game.GameDate{Season: game.SeasonAutumn, Year: 1901}
	START       = time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)
)

func makeState(countries ...game.CountryState) game.GameState {
	return game.GameState{
		Name:      "test",
		ID:        1,
		Date:      SPRING_1901,
		Phase:     game.PhaseDiplomacy,
		Countries: countries,
	}
}

func country(name string, status game.CountryStatus, votes ...game.Vote) game.CountryState {
	return game.CountryState{
		Country: name,
		User:    game.UserInfo{Name: name + "-player", ID: len(name)},
		Status:  status,
		Votes:   votes,
	}
}

// at builds a snapshot some minutes after START.
func at(minutes int, state game.GameState) game.Snapshot {
	return game.NewSnapshot(START.Add(time.Duration(minutes)*time.Minute), state)
}
