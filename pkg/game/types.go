package game

import (
	"fmt"
	"regexp"
	"strconv"
)

type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonAutumn Season = "Autumn"
	SeasonWinter Season = "Winter"
)

func ParseSeason(value string) (Season, error) {
	switch Season(value) {
	case SeasonSpring, SeasonAutumn, SeasonWinter:
		return Season(value), nil
	}
	return "", fmt.Errorf("unknown season: %s", value)
}

// A game date, e.g. "Spring, 1901".
type GameDate struct {
	Season Season `json:"season"`
	Year   int    `json:"year"`
}

func (d GameDate) String() string {
	return fmt.Sprintf("%s, %4d", d.Season, d.Year)
}

var DATE_REGEX = regexp.MustCompile(`(\w+), (\d+)`)

func ParseGameDate(value string) (GameDate, error) {
	matches := DATE_REGEX.FindStringSubmatch(value)
	if matches == nil {
		return GameDate{}, fmt.Errorf("could not parse date: %s", value)
	}

	season, err := ParseSeason(matches[1])
	if err != nil {
		return GameDate{}, err
	}

	year, err := strconv.Atoi(matches[2])
	if err != nil {
		return GameDate{}, fmt.Errorf("could not parse year: %s", value)
	}

	return GameDate{Season: season, Year: year}, nil
}

type Phase string

const (
	PhasePreGame   Phase = "PreGame"
	PhaseDiplomacy Phase = "Diplomacy"
	PhaseRetreats  Phase = "Retreats"
	PhaseBuilds    Phase = "Builds"
	PhaseFinished  Phase = "Finished"
)

var phaseLabels = map[Phase]string{
	PhasePreGame:   "Pre-game",
	PhaseDiplomacy: "Diplomacy",
	PhaseRetreats:  "Retreats",
	PhaseBuilds:    "Builds",
	PhaseFinished:  "Finished",
}

func (p Phase) String() string {
	if label, ok := phaseLabels[p]; ok {
		return label
	}
	return string(p)
}

// ParsePhase accepts either the label shown on the game page ("Pre-game")
// or the identifier ("PreGame").
func ParsePhase(value string) (Phase, error) {
	for phase, label := range phaseLabels {
		if value == label || value == string(phase) {
			return phase, nil
		}
	}
	return "", fmt.Errorf("unknown phase: %s", value)
}

// The coarse identity of a turn, e.g. "Spring, 1901, Diplomacy".
type DatePhase struct {
	Date  GameDate
	Phase Phase
}

func (d DatePhase) String() string {
	return fmt.Sprintf("%s, %s", d.Date, d.Phase)
}

type CountryStatus string

const (
	StatusNoOrders    CountryStatus = "NoOrders"
	StatusNotReceived CountryStatus = "NotReceived"
	StatusCompleted   CountryStatus = "Completed"
	StatusReady       CountryStatus = "Ready"
	StatusDefeated    CountryStatus = "Defeated"

	// Only seen once a game has finished
	StatusSurvived CountryStatus = "Survived"
	StatusDrawn    CountryStatus = "Drawn"
	StatusWon      CountryStatus = "Won"
)

var statusLabels = map[CountryStatus]string{
	StatusNoOrders:    "-",
	StatusNotReceived: "Not received",
	StatusCompleted:   "Completed",
	StatusReady:       "Ready",
	StatusDefeated:    "Defeated",
	StatusSurvived:    "Survived",
	StatusDrawn:       "Drawn",
	StatusWon:         "Won",
}

func (s CountryStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func ParseCountryStatus(value string) (CountryStatus, error) {
	for status, label := range statusLabels {
		if value == label || value == string(status) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status: %s", value)
}

type Vote string

const (
	VotePause   Vote = "Pause"
	VoteDraw    Vote = "Draw"
	VoteUnpause Vote = "Unpause"
)

// The order in which votes are evaluated and rendered.
var AllVotes = []Vote{VotePause, VoteDraw, VoteUnpause}

func ParseVote(value string) (Vote, error) {
	for _, vote := range AllVotes {
		if string(vote) == value {
			return vote, nil
		}
	}
	return "", fmt.Errorf("unknown vote: %s", value)
}

func voteIndex(vote Vote) int {
	for i, other := range AllVotes {
		if other == vote {
			return i
		}
	}
	return len(AllVotes)
}

type UserInfo struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}
