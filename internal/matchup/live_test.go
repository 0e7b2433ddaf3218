package matchup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

func weekSlate() []fantasy.Game {
	return []fantasy.Game{
		{ID: "g1", ShortName: "SEA @ ARI", Teams: []string{"SEA", "ARI"}, State: fantasy.GameFinal},
		{ID: "g2", ShortName: "DET @ GB", Teams: []string{"DET", "GB"}, State: fantasy.GameInProgress},
	}
}

func TestComputeLive(t *testing.T) {
	provider := leagueFixture()
	scoreboard := &stubScoreboard{games: weekSlate()}
	svc := newTestService(provider, scoreboard, newFakeStore())
	ctx := context.Background()

	mc, err := svc.ResolveContext(ctx, "me", "L1")
	require.NoError(t, err)

	live, err := svc.ComputeLive(ctx, mc)
	require.NoError(t, err)

	assert.Equal(t, "Test League", live.LeagueName)
	assert.Equal(t, 3, live.Week)
	assert.Equal(t, "Me", live.MyTeamName)
	assert.Equal(t, "Them", live.OppTeamName)
	assert.InDelta(t, 44.5, live.MyScore, 1e-9)
	assert.InDelta(t, 39.0, live.OppScore, 1e-9)

	// My side: p1's game is final so only his scored points count, p2 is mid
	// game so both halves are weighted.
	assert.InDelta(t, 24.5+20.0*0.5, live.MyAggregate.TotalActual, 1e-9)
	assert.InDelta(t, 14.0*0.5, live.MyAggregate.TotalProjected, 1e-9)
	assert.InDelta(t, 41.5, live.MyAggregate.TotalCombined, 1e-9)

	assert.InDelta(t, 19.0+20.0*0.5, live.OppAggregate.TotalActual, 1e-9)
	assert.InDelta(t, 12.0*0.5, live.OppAggregate.TotalProjected, 1e-9)
	assert.InDelta(t, 35.0, live.OppAggregate.TotalCombined, 1e-9)

	assert.GreaterOrEqual(t, live.WinProbability, 0.0)
	assert.LessOrEqual(t, live.WinProbability, 100.0)
	assert.Len(t, live.Games, 2)
}

func TestComputeLiveReusesFreshProbability(t *testing.T) {
	provider := leagueFixture()
	scoreboard := &stubScoreboard{games: weekSlate()}
	store := newFakeStore()
	svc := newTestService(provider, scoreboard, store)
	ctx := context.Background()

	mc, err := svc.ResolveContext(ctx, "me", "L1")
	require.NoError(t, err)

	first, err := svc.ComputeLive(ctx, mc)
	require.NoError(t, err)
	writesAfterFirst := store.sets

	// Back-to-back cycles inside the staleness window serve the cached
	// probability, so the durable store sees no second write.
	second, err := svc.ComputeLive(ctx, mc)
	require.NoError(t, err)

	assert.Equal(t, first.WinProbability, second.WinProbability)
	assert.Equal(t, writesAfterFirst, store.sets)
}

func TestComputeLiveRecomputesWhenStale(t *testing.T) {
	provider := leagueFixture()
	scoreboard := &stubScoreboard{games: weekSlate()}
	store := newFakeStore()
	svc := newTestService(provider, scoreboard, store)
	ctx := context.Background()

	mc, err := svc.ResolveContext(ctx, "me", "L1")
	require.NoError(t, err)

	_, err = svc.ComputeLive(ctx, mc)
	require.NoError(t, err)
	writesAfterFirst := store.sets

	// Age the cached entry past the staleness window. With a live game on
	// the slate the next cycle must rerun the simulation.
	svc.Cache().now = func() time.Time {
		return time.Now().Add(DefaultStalenessWindow + time.Second)
	}

	_, err = svc.ComputeLive(ctx, mc)
	require.NoError(t, err)
	assert.Equal(t, writesAfterFirst+1, store.sets)
}

func TestComputeLiveNoLiveGamesKeepsProbability(t *testing.T) {
	provider := leagueFixture()
	finals := []fantasy.Game{
		{ID: "g1", ShortName: "SEA @ ARI", Teams: []string{"SEA", "ARI"}, State: fantasy.GameFinal},
		{ID: "g2", ShortName: "DET @ GB", Teams: []string{"DET", "GB"}, State: fantasy.GameFinal},
	}
	store := newFakeStore()
	svc := newTestService(provider, &stubScoreboard{games: finals}, store)
	ctx := context.Background()

	mc, err := svc.ResolveContext(ctx, "me", "L1")
	require.NoError(t, err)

	_, err = svc.ComputeLive(ctx, mc)
	require.NoError(t, err)
	writesAfterFirst := store.sets

	// Every game is final, so the entry stays fresh no matter how old.
	svc.Cache().now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	_, err = svc.ComputeLive(ctx, mc)
	require.NoError(t, err)
	assert.Equal(t, writesAfterFirst, store.sets)
}

func TestComputeLiveScoreboardError(t *testing.T) {
	provider := leagueFixture()
	svc := newTestService(provider, &stubScoreboard{err: assert.AnError}, nil)
	ctx := context.Background()

	mc, err := svc.ResolveContext(ctx, "me", "L1")
	require.NoError(t, err)

	_, err = svc.ComputeLive(ctx, mc)
	assert.Error(t, err)
}

func TestAnyLiveGame(t *testing.T) {
	provider := leagueFixture()
	svc := newTestService(provider, &stubScoreboard{}, nil)

	mc, err := svc.ResolveContext(context.Background(), "me", "L1")
	require.NoError(t, err)

	assert.True(t, anyLiveGame(mc, weekSlate()))

	finals := weekSlate()
	finals[1].State = fantasy.GameFinal
	assert.False(t, anyLiveGame(mc, finals))

	// An empty slate means nothing is live.
	assert.False(t, anyLiveGame(mc, nil))
}
