package diff

import (
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/repeale/fp-go/option"
)

// A country holding up the game during a particular turn.
type Straggler struct {
	DatePhase game.DatePhase
	Country   string
}

type OrderMemory struct {
	NotSubmitted opt.Option[Straggler]
	NotReady     opt.Option[Straggler]
}

func onlyCountry(countries []game.CountryState, matches func(game.CountryState) bool) opt.Option[string] {
	found := opt.None[string]()
	count := 0
	for _, country := range countries {
		if !matches(country) {
			continue
		}
		count++
		found = opt.Some(country.Country)
	}

	if count != 1 {
		return opt.None[string]()
	}
	return found
}

func isNotSubmitted(c game.CountryState) bool {
	return c.Status == game.StatusNotReceived
}

func isNotReady(c game.CountryState) bool {
	return c.Status != game.StatusReady && c.Status != game.StatusNoOrders
}

func sameStraggler(a opt.Option[Straggler], b Straggler) bool {
	return !opt.IsNone(a) && a.Value == b
}

func checkOrders(memory OrderMemory, snapshot game.Snapshot) (OrderMemory, []Diff) {
	var diffs []Diff

	state := snapshot.State
	active := state.ActiveCountries()
	datePhase := state.DatePhase()

	notSubmitted := onlyCountry(active, isNotSubmitted)
	if opt.IsNone(notSubmitted) {
		memory.NotSubmitted = opt.None[Straggler]()
	} else {
		straggler := Straggler{DatePhase: datePhase, Country: notSubmitted.Value}
		if !sameStraggler(memory.NotSubmitted, straggler) {
			memory.NotSubmitted = opt.Some(straggler)
			diffs = append(diffs, Global("Only %s has not yet submitted orders", straggler.Country))
		}
	}

	notReady := onlyCountry(active, isNotReady)
	if opt.IsNone(notReady) {
		memory.NotReady = opt.None[Straggler]()
		return memory, diffs
	}

	// Don't report both:
	// - Only Russia has not yet submitted orders
	// - Only Russia is not yet ready
	if !opt.IsNone(notSubmitted) && notSubmitted.Value == notReady.Value {
		return memory, diffs
	}

	straggler := Straggler{DatePhase: datePhase, Country: notReady.Value}
	if !sameStraggler(memory.NotReady, straggler) {
		memory.NotReady = opt.Some(straggler)
		diffs = append(diffs, Global("Only %s is not yet ready", straggler.Country))
	}

	return memory, diffs
}

// OrderChecker reports when a single country has not yet submitted orders
// or has not yet marked itself ready.
type OrderChecker struct {
	memory OrderMemory
}

func NewOrderChecker() *OrderChecker {
	return &OrderChecker{
		memory: OrderMemory{
			NotSubmitted: opt.None[Straggler](),
			NotReady:     opt.None[Straggler](),
		},
	}
}

func (c *OrderChecker) Check(snapshot game.Snapshot) []Diff {
	var diffs []Diff
	c.memory, diffs = checkOrders(c.memory, snapshot)
	return diffs
}
