package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	date, err := ParseGameDate("Autumn, 1903")
	require.NoError(t, err)
	assert.Equal(t, GameDate{Season: SeasonAutumn, Year: 1903}, date)
	assert.Equal(t, "Autumn, 1903", date.String())

	_, err = ParseGameDate("1903")
	assert.Error(t, err)

	_, err = ParseGameDate("Summer, 1903")
	assert.Error(t, err)

	phase, err := ParsePhase("Pre-game")
	require.NoError(t, err)
	assert.Equal(t, PhasePreGame, phase)

	phase, err = ParsePhase("Retreats")
	require.NoError(t, err)
	assert.Equal(t, PhaseRetreats, phase)

	status, err := ParseCountryStatus("Not received")
	require.NoError(t, err)
	assert.Equal(t, StatusNotReceived, status)

	status, err = ParseCountryStatus("-")
	require.NoError(t, err)
	assert.Equal(t, StatusNoOrders, status)

	_, err = ParseCountryStatus("Sleeping")
	assert.Error(t, err)
}

func TestDatePhase(t *testing.T) {
	state := GameState{
		Date:  GameDate{Season: SeasonSpring, Year: 1901},
		Phase: PhaseDiplomacy,
	}
	assert.Equal(t, "Spring, 1901, Diplomacy", state.DatePhase().String())

	other := state
	other.Phase = PhaseRetreats
	assert.NotEqual(t, state.DatePhase(), other.DatePhase())
}

func TestActiveCountries(t *testing.T) {
	state := GameState{
		Countries: []CountryState{
			{Country: "England", Status: StatusReady},
			{Country: "France", Status: StatusDefeated},
			{Country: "Germany", Status: StatusNotReceived},
		},
	}

	assert.Equal(t, []string{"England", "Germany"}, CountryNames(state.ActiveCountries()))
}

func TestEqual(t *testing.T) {
	next := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	a := GameState{
		Name:       "test",
		ID:         1,
		Date:       GameDate{Season: SeasonSpring, Year: 1901},
		Phase:      PhaseDiplomacy,
		NextTurnAt: &next,
		Countries: []CountryState{
			{Country: "England", Status: StatusReady, Votes: []Vote{VoteDraw, VotePause}},
			{Country: "France", Status: StatusCompleted},
		},
	}

	// Same facts, different ordering and zone
	otherNext := next.In(time.FixedZone("EST", -5*60*60))
	b := GameState{
		Name:       "test",
		ID:         1,
		Date:       GameDate{Season: SeasonSpring, Year: 1901},
		Phase:      PhaseDiplomacy,
		NextTurnAt: &otherNext,
		Countries: []CountryState{
			{Country: "France", Status: StatusCompleted},
			{Country: "England", Status: StatusReady, Votes: []Vote{VotePause, VoteDraw}},
		},
	}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := b
	c.Countries = []CountryState{
		{Country: "France", Status: StatusReady},
		{Country: "England", Status: StatusReady, Votes: []Vote{VotePause, VoteDraw}},
	}
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := a
	d.NextTurnAt = nil
	assert.False(t, a.Equal(d))
}

func TestValidate(t *testing.T) {
	state := GameState{
		Countries: []CountryState{
			{Country: "England"},
			{Country: "England"},
		},
	}
	assert.Error(t, state.Validate())

	state.Countries[1].Country = "France"
	assert.NoError(t, state.Validate())
}

func TestNormalizeDoesNotAlias(t *testing.T) {
	next := time.Now()
	state := GameState{
		NextTurnAt: &next,
		Countries: []CountryState{
			{Country: "Russia"},
			{Country: "Austria"},
		},
	}

	snapshot := NewSnapshot(time.Now(), state)
	state.Countries[0].Country = "Turkey"

	assert.Equal(t, []string{"Austria", "Russia"}, CountryNames(snapshot.State.Countries))
	assert.NotSame(t, state.NextTurnAt, snapshot.State.NextTurnAt)
}
