package game

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/repeale/fp-go"
)

type CountryState struct {
	Country       string
	User          UserInfo
	CurrentUser   bool
	Status        CountryStatus
	MessageUnread bool
	SupplyCenters int
	Units         int
	Votes         []Vote
}

func (c CountryState) IsDefeated() bool {
	return c.Status == StatusDefeated
}

func (c CountryState) HasVote(vote Vote) bool {
	for _, other := range c.Votes {
		if other == vote {
			return true
		}
	}
	return false
}

func (c CountryState) String() string {
	var builder strings.Builder
	if c.CurrentUser {
		builder.WriteString("* ")
	}
	fmt.Fprintf(&builder, "%s (%s): %s", c.Country, c.User.Name, c.Status)
	if c.MessageUnread {
		builder.WriteString(" - Unread Message")
	}
	fmt.Fprintf(&builder, " (%d sc, %d u)", c.SupplyCenters, c.Units)
	if len(c.Votes) > 0 {
		votes := fp.Map(func(v Vote) string { return string(v) })(c.Votes)
		fmt.Fprintf(&builder, " Votes: %s", strings.Join(votes, ", "))
	}
	return builder.String()
}

func (c CountryState) normalize() CountryState {
	seen := make(map[Vote]struct{})
	votes := make([]Vote, 0, len(c.Votes))
	for _, vote := range c.Votes {
		if _, ok := seen[vote]; ok {
			continue
		}
		seen[vote] = struct{}{}
		votes = append(votes, vote)
	}
	sort.Slice(votes, func(i, j int) bool {
		return voteIndex(votes[i]) < voteIndex(votes[j])
	})
	c.Votes = votes
	return c
}

// GameState is everything observed about a game at one instant. Values are
// never mutated once built; every poll produces a new one.
type GameState struct {
	Name       string
	ID         int
	Date       GameDate
	Phase      Phase
	Paused     bool
	Finished   bool
	NextTurnAt *time.Time
	Countries  []CountryState
}

func (g GameState) DatePhase() DatePhase {
	return DatePhase{Date: g.Date, Phase: g.Phase}
}

// ActiveCountries returns every country that has not been defeated.
func (g GameState) ActiveCountries() []CountryState {
	return fp.Filter(func(c CountryState) bool {
		return !c.IsDefeated()
	})(g.Countries)
}

func CountryNames(countries []CountryState) []string {
	return fp.Map(func(c CountryState) string {
		return c.Country
	})(countries)
}

func (g GameState) Country(name string) (CountryState, bool) {
	for _, country := range g.Countries {
		if country.Country == name {
			return country, true
		}
	}
	return CountryState{}, false
}

func (g GameState) Validate() error {
	seen := make(map[string]struct{})
	for _, country := range g.Countries {
		if _, ok := seen[country.Country]; ok {
			return fmt.Errorf("duplicate country: %s", country.Country)
		}
		seen[country.Country] = struct{}{}
	}
	return nil
}

// Normalize returns a copy with countries ordered by name and votes in
// canonical order. Country order carries no meaning.
func (g GameState) Normalize() GameState {
	countries := make([]CountryState, len(g.Countries))
	for i, country := range g.Countries {
		countries[i] = country.normalize()
	}
	sort.Slice(countries, func(i, j int) bool {
		return countries[i].Country < countries[j].Country
	})
	g.Countries = countries

	if g.NextTurnAt != nil {
		next := *g.NextTurnAt
		g.NextTurnAt = &next
	}
	return g
}

func countryEqual(a, b CountryState) bool {
	if a.Country != b.Country ||
		a.User != b.User ||
		a.CurrentUser != b.CurrentUser ||
		a.Status != b.Status ||
		a.MessageUnread != b.MessageUnread ||
		a.SupplyCenters != b.SupplyCenters ||
		a.Units != b.Units ||
		len(a.Votes) != len(b.Votes) {
		return false
	}
	for i := range a.Votes {
		if a.Votes[i] != b.Votes[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two states describe the same observed facts,
// ignoring country and vote ordering and the time zone of NextTurnAt.
func (g GameState) Equal(other GameState) bool {
	a := g.Normalize()
	b := other.Normalize()

	if a.Name != b.Name ||
		a.ID != b.ID ||
		a.Date != b.Date ||
		a.Phase != b.Phase ||
		a.Paused != b.Paused ||
		a.Finished != b.Finished ||
		len(a.Countries) != len(b.Countries) {
		return false
	}

	if (a.NextTurnAt == nil) != (b.NextTurnAt == nil) {
		return false
	}
	if a.NextTurnAt != nil && !a.NextTurnAt.Equal(*b.NextTurnAt) {
		return false
	}

	for i := range a.Countries {
		if !countryEqual(a.Countries[i], b.Countries[i]) {
			return false
		}
	}
	return true
}

// Fingerprint hashes the canonical form of the state. Equal states always
// share a fingerprint.
func (g GameState) Fingerprint() uint64 {
	n := g.Normalize()
	digest := xxhash.New()

	fmt.Fprintf(digest, "%s|%d|%s|%s|%t|%t|", n.Name, n.ID, n.Date, n.Phase, n.Paused, n.Finished)
	if n.NextTurnAt != nil {
		fmt.Fprintf(digest, "%d", n.NextTurnAt.UnixNano())
	}
	for _, c := range n.Countries {
		fmt.Fprintf(
			digest,
			"|%s;%s;%d;%t;%s;%t;%d;%d;%v",
			c.Country,
			c.User.Name,
			c.User.ID,
			c.CurrentUser,
			c.Status,
			c.MessageUnread,
			c.SupplyCenters,
			c.Units,
			c.Votes,
		)
	}

	return digest.Sum64()
}

func (g GameState) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s: %s, %s. ", g.Name, g.Date, g.Phase)
	switch {
	case g.Finished:
		builder.WriteString("Finished")
	case g.Paused:
		builder.WriteString("Paused")
	case g.NextTurnAt != nil:
		fmt.Fprintf(&builder, "Next: %s", g.NextTurnAt.Format(time.RFC3339))
	}
	builder.WriteString("\n")
	for _, country := range g.Normalize().Countries {
		builder.WriteString(country.String())
		builder.WriteString("\n")
	}
	return builder.String()
}
