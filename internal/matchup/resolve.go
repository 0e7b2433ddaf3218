package matchup

import (
	"context"
	"fmt"
	"sync"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

// Context is everything needed to compute one poll cycle for a matchup:
// league configuration, the week clock, both rosters and matchup sides, the
// player directory, and display names.
type Context struct {
	League          *fantasy.League
	Season          string
	Week            int
	MyRoster        *fantasy.Roster
	OpponentRoster  *fantasy.Roster
	MyMatchup       *fantasy.Matchup
	OpponentMatchup *fantasy.Matchup
	UserMap         map[string]string
	AllPlayers      map[string]*fantasy.Player
}

// ResolveContext assembles the matchup context for a user in a league. The
// independent provider lookups are issued concurrently and joined before the
// roster and matchup resolution runs.
func (s *Service) ResolveContext(ctx context.Context, username, leagueID string) (*Context, error) {
	var (
		user    *fantasy.User
		state   *fantasy.SeasonState
		league  *fantasy.League
		rosters []fantasy.Roster
		users   []fantasy.LeagueUser
		players map[string]*fantasy.Player
	)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	fetch := func(f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil {
				errs <- err
			}
		}()
	}

	fetch(func() (err error) { user, err = s.provider.GetUser(ctx, username); return })
	fetch(func() (err error) { state, err = s.provider.GetSeasonState(ctx); return })
	fetch(func() (err error) { league, err = s.provider.GetLeague(ctx, leagueID); return })
	fetch(func() (err error) { rosters, err = s.provider.GetLeagueRosters(ctx, leagueID); return })
	fetch(func() (err error) { users, err = s.provider.GetLeagueUsers(ctx, leagueID); return })
	fetch(func() (err error) { players, err = s.provider.GetAllPlayers(ctx); return })

	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("failed to fetch matchup data: %w", err)
	}

	matchups, err := s.provider.GetLeagueMatchups(ctx, leagueID, state.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matchups for week %d: %w", state.Week, err)
	}

	myRoster := findRosterByOwner(rosters, user.UserID)
	if myRoster == nil {
		return nil, ErrRosterNotFound
	}

	myMatchup := findMatchupByRoster(matchups, myRoster.RosterID)
	if myMatchup == nil {
		return nil, ErrMatchupNotFound
	}

	oppMatchup := findOpponentMatchup(matchups, myMatchup)
	if oppMatchup == nil {
		return nil, ErrOpponentNotFound
	}

	oppRoster := findRosterByID(rosters, oppMatchup.RosterID)
	if oppRoster == nil {
		return nil, ErrOpponentRosterNotFound
	}

	return &Context{
		League:          league,
		Season:          state.Season,
		Week:            state.Week,
		MyRoster:        myRoster,
		OpponentRoster:  oppRoster,
		MyMatchup:       myMatchup,
		OpponentMatchup: oppMatchup,
		UserMap:         buildUserMap(users),
		AllPlayers:      players,
	}, nil
}

// buildUserMap maps owner ids to display names, preferring a custom team
// name over the account name.
func buildUserMap(users []fantasy.LeagueUser) map[string]string {
	m := make(map[string]string, len(users))
	for _, u := range users {
		name := u.Metadata.TeamName
		if name == "" {
			name = u.DisplayName
		}
		if name == "" {
			name = "Unnamed Team"
		}
		m[u.UserID] = name
	}
	return m
}

func findRosterByOwner(rosters []fantasy.Roster, ownerID string) *fantasy.Roster {
	for i := range rosters {
		if rosters[i].OwnerID == ownerID {
			return &rosters[i]
		}
	}
	return nil
}

func findRosterByID(rosters []fantasy.Roster, rosterID int) *fantasy.Roster {
	for i := range rosters {
		if rosters[i].RosterID == rosterID {
			return &rosters[i]
		}
	}
	return nil
}

func findMatchupByRoster(matchups []fantasy.Matchup, rosterID int) *fantasy.Matchup {
	for i := range matchups {
		if matchups[i].RosterID == rosterID {
			return &matchups[i]
		}
	}
	return nil
}

func findOpponentMatchup(matchups []fantasy.Matchup, mine *fantasy.Matchup) *fantasy.Matchup {
	for i := range matchups {
		if matchups[i].MatchupID == mine.MatchupID && matchups[i].RosterID != mine.RosterID {
			return &matchups[i]
		}
	}
	return nil
}
