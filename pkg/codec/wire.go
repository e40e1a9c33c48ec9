package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/fxamacker/cbor/v2"
)

// rawTime accepts either an RFC 3339 string or unix milliseconds.
type rawTime time.Time

func parseTime(text string) (rawTime, error) {
	value, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return rawTime{}, err
	}
	return rawTime(value), nil
}

func (t *rawTime) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		err := json.Unmarshal(data, &text)
		if err != nil {
			return err
		}
		*t, err = parseTime(text)
		return err
	}

	var millis int64
	err := json.Unmarshal(data, &millis)
	if err != nil {
		return fmt.Errorf("timestamp must be a string or a number: %w", err)
	}
	*t = rawTime(time.UnixMilli(millis).UTC())
	return nil
}

func (t *rawTime) UnmarshalCBOR(data []byte) error {
	var text string
	if err := cbor.Unmarshal(data, &text); err == nil {
		*t, err = parseTime(text)
		return err
	}

	var millis int64
	err := cbor.Unmarshal(data, &millis)
	if err != nil {
		return fmt.Errorf("timestamp must be a string or a number: %w", err)
	}
	*t = rawTime(time.UnixMilli(millis).UTC())
	return nil
}

type wireUser struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type wireCountry struct {
	Country       string      `json:"country"`
	User          wireUser    `json:"user"`
	CurrentUser   bool        `json:"currentUser"`
	Status        string      `json:"status"`
	MessageUnread bool        `json:"messageUnread"`
	SupplyCenters int         `json:"supplyCenters"`
	Units         int         `json:"units"`
	Votes         []game.Vote `json:"votes"`
}

type wireDate struct {
	Season string `json:"season"`
	Year   int    `json:"year"`
}

type wireState struct {
	Name       string        `json:"name"`
	ID         int           `json:"id"`
	Date       wireDate      `json:"date"`
	Phase      string        `json:"phase"`
	Paused     bool          `json:"paused"`
	Finished   bool          `json:"finished"`
	NextTurnAt *rawTime      `json:"nextTurnAt"`
	Countries  []wireCountry `json:"countries"`
}

type wireSnapshot struct {
	Time  *rawTime  `json:"time"`
	State wireState `json:"state"`
}

// Encoding goes through maps so that absent fields can be left out or
// written as null depending on the options.
type object = map[string]interface{}

func (c *Codec) encodeCountry(country game.CountryState) object {
	encoded := object{
		"country": country.Country,
		"user": object{
			"name": country.User.Name,
			"id":   country.User.ID,
		},
		"currentUser":   country.CurrentUser,
		"status":        string(country.Status),
		"messageUnread": country.MessageUnread,
		"supplyCenters": country.SupplyCenters,
		"units":         country.Units,
	}

	votes := make([]string, len(country.Votes))
	for i, vote := range country.Votes {
		votes[i] = string(vote)
	}
	if len(votes) > 0 || !c.options.OmitMissing {
		encoded["votes"] = votes
	}

	return encoded
}

func (c *Codec) encodeSnapshot(snapshot game.Snapshot) object {
	state := snapshot.State

	countries := make([]object, len(state.Countries))
	for i, country := range state.Countries {
		countries[i] = c.encodeCountry(country)
	}

	encodedState := object{
		"name": state.Name,
		"id":   state.ID,
		"date": object{
			"season": string(state.Date.Season),
			"year":   state.Date.Year,
		},
		"phase":     string(state.Phase),
		"paused":    state.Paused,
		"finished":  state.Finished,
		"countries": countries,
	}

	if state.NextTurnAt != nil {
		encodedState["nextTurnAt"] = c.encodeTime(*state.NextTurnAt)
	} else if !c.options.OmitMissing {
		encodedState["nextTurnAt"] = nil
	}

	return object{
		"time":  c.encodeTime(snapshot.Time),
		"state": encodedState,
	}
}

func (c *Codec) decodeSnapshot(wire wireSnapshot) (game.Snapshot, error) {
	if wire.Time == nil {
		return game.Snapshot{}, fmt.Errorf("snapshot is missing a time")
	}

	season, err := game.ParseSeason(wire.State.Date.Season)
	if err != nil {
		return game.Snapshot{}, err
	}

	phase, err := game.ParsePhase(wire.State.Phase)
	if err != nil {
		return game.Snapshot{}, err
	}

	state := game.GameState{
		Name: wire.State.Name,
		ID:   wire.State.ID,
		Date: game.GameDate{
			Season: season,
			Year:   wire.State.Date.Year,
		},
		Phase:    phase,
		Paused:   wire.State.Paused,
		Finished: wire.State.Finished,
	}

	if wire.State.NextTurnAt != nil {
		next := c.decodeTime(*wire.State.NextTurnAt)
		state.NextTurnAt = &next
	}

	for _, country := range wire.State.Countries {
		status, err := game.ParseCountryStatus(country.Status)
		if err != nil {
			return game.Snapshot{}, err
		}

		for _, vote := range country.Votes {
			if _, err := game.ParseVote(string(vote)); err != nil {
				return game.Snapshot{}, err
			}
		}

		state.Countries = append(state.Countries, game.CountryState{
			Country: country.Country,
			User: game.UserInfo{
				Name: country.User.Name,
				ID:   country.User.ID,
			},
			CurrentUser:   country.CurrentUser,
			Status:        status,
			MessageUnread: country.MessageUnread,
			SupplyCenters: country.SupplyCenters,
			Units:         country.Units,
			Votes:         country.Votes,
		})
	}

	err = state.Validate()
	if err != nil {
		return game.Snapshot{}, err
	}

	return game.NewSnapshot(c.decodeTime(*wire.Time), state), nil
}
