package source

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

var (
	PROFILE_REGEX  = regexp.MustCompile(`profile\.php\?userID=(\d+)`)
	SC_UNITS_REGEX = regexp.MustCompile(`(\d+) supply-centers, (\d+) units`)
)

func text(selection *goquery.Selection) string {
	return strings.TrimSpace(selection.First().Text())
}

func profileID(link *goquery.Selection) (int, bool) {
	href, ok := link.Attr("href")
	if !ok {
		return 0, false
	}

	match := PROFILE_REGEX.FindStringSubmatch(href)
	if match == nil {
		return 0, false
	}

	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// currentUser finds the logged in user in the page header, if any.
func currentUser(document *goquery.Document) (int, bool) {
	link := document.Find(`#header-welcome a[href*="profile.php"]`).First()
	if link.Length() == 0 {
		return 0, false
	}
	return profileID(link)
}

func parseTitleBar(document *goquery.Document, state *game.GameState) error {
	bar := document.Find(".titleBar").First()
	if bar.Length() == 0 {
		return fmt.Errorf("title bar not found")
	}

	state.Name = text(bar.Find(".gameName"))

	date, err := game.ParseGameDate(text(bar.Find(".gameDate")))
	if err != nil {
		return err
	}
	state.Date = date

	phase, err := game.ParsePhase(text(bar.Find(".gamePhase")))
	if err != nil {
		return err
	}
	state.Phase = phase

	remaining := text(bar.Find(".gameTimeRemaining"))
	switch {
	case strings.HasPrefix(remaining, "Paused"):
		state.Paused = true
	case strings.HasPrefix(remaining, "Finished"):
		state.Finished = true
	default:
		unix, ok := bar.Find("span.timeremaining").First().Attr("unixtime")
		if !ok {
			return fmt.Errorf("next turn time not found")
		}

		seconds, err := strconv.ParseInt(unix, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid next turn time %q: %w", unix, err)
		}

		next := time.Unix(seconds, 0).UTC()
		state.NextTurnAt = &next
	}

	return nil
}

// Only a finished game shows these in place of the member's status icon.
var finalStatuses = map[string]game.CountryStatus{
	"Defeated": game.StatusDefeated,
	"Won":      game.StatusWon,
	"Drawn":    game.StatusDrawn,
	"Survived": game.StatusSurvived,
}

func parseMember(row *goquery.Selection, user int, loggedIn bool) (game.CountryState, error) {
	country := game.CountryState{
		Country: text(row.Find(".memberCountryName > span[class*=country]")),
		Status:  game.StatusNoOrders,
	}
	if country.Country == "" {
		return country, fmt.Errorf("member row has no country")
	}

	if alt, ok := row.Find(`span[class*="StatusIcon"] > img`).First().Attr("alt"); ok {
		status, err := game.ParseCountryStatus(alt)
		if err != nil {
			return country, fmt.Errorf("%s: %w", country.Country, err)
		}
		country.Status = status
	}

	link := row.Find(".memberName a").First()
	country.User.Name = strings.TrimSpace(link.Text())
	if id, ok := profileID(link); ok {
		country.User.ID = id
	}
	country.CurrentUser = loggedIn && country.User.ID == user

	country.MessageUnread = row.Find(`img[src$="mail.png"]`).Length() > 0

	final, isFinal := finalStatuses[text(row.Find(".memberStatus > em"))]
	if isFinal {
		country.Status = final
	}

	if country.Status != game.StatusDefeated {
		counts := text(row.Find(".memberSCCount"))
		match := SC_UNITS_REGEX.FindStringSubmatch(counts)
		if match == nil {
			return country, fmt.Errorf("%s: failed to parse supply centers and units: %q", country.Country, counts)
		}
		country.SupplyCenters, _ = strconv.Atoi(match[1])
		country.Units, _ = strconv.Atoi(match[2])
	}

	votes := row.Find(".memberVotes")
	if votes.Length() > 0 {
		for _, value := range strings.Split(votes.First().Text(), ",") {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}

			vote, err := game.ParseVote(value)
			if err != nil {
				log.Warn().Str("country", country.Country).Str("vote", value).Msg("ignoring unknown vote")
				continue
			}
			country.Votes = append(country.Votes, vote)
		}
	}

	return country, nil
}

// ParseBoard reads a game board page.
func ParseBoard(reader io.Reader, gameID int) (game.GameState, error) {
	state := game.GameState{ID: gameID}

	document, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return state, err
	}

	err = parseTitleBar(document, &state)
	if err != nil {
		return state, err
	}

	// There is no members table until the game starts
	if state.Phase == game.PhasePreGame {
		return state, nil
	}

	table := document.Find(".membersList.membersFullTable").First()
	if table.Length() == 0 {
		return state, fmt.Errorf("members table not found")
	}

	user, loggedIn := currentUser(document)

	var rowErr error
	table.Find(".member").EachWithBreak(func(i int, row *goquery.Selection) bool {
		country, err := parseMember(row, user, loggedIn)
		if err != nil {
			rowErr = err
			return false
		}
		state.Countries = append(state.Countries, country)
		return true
	})
	if rowErr != nil {
		return state, rowErr
	}

	err = state.Validate()
	if err != nil {
		return state, err
	}

	return state.Normalize(), nil
}
