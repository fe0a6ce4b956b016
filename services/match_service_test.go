package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchFixture struct {
	svc          MatchService
	standingSvc  StandingService
	tournaments  *fakeTournamentRepo
	players      *fakePlayerRepo
	participants *fakeParticipantRepo
	matches      *fakeMatchRepo
	standings    *fakeStandingRepo
	broadcaster  *fakeBroadcaster
	tournament   *models.Tournament
	p            []*models.Player
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	f := &matchFixture{
		tournaments:  newFakeTournamentRepo(),
		players:      newFakePlayerRepo(),
		participants: newFakeParticipantRepo(),
		matches:      newFakeMatchRepo(),
		standings:    newFakeStandingRepo(),
		broadcaster:  &fakeBroadcaster{},
	}
	clock := steppingClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), time.Minute)
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	f.svc = NewMatchService(f.matches, f.tournaments, f.players, f.participants, f.standings,
		&fakeTx{}, f.broadcaster, clock, logger)
	f.standingSvc = NewStandingService(f.standings, f.tournaments, f.participants, f.matches, &fakeTx{}, clock)

	f.tournament = f.tournaments.seed(models.Tournament{Code: "T1", Name: "Open", Status: models.StatusInProgress})
	for _, name := range []string{"Anna", "Boris", "Chen"} {
		p := f.players.seed(models.Player{Name: name, Rating: 2000})
		f.p = append(f.p, p)
		require.NoError(t, f.participants.Create(context.Background(), nil, &models.TournamentParticipant{
			TournamentID: f.tournament.ID, PlayerID: p.ID, Status: models.ParticipantConfirmed,
		}))
	}
	return f
}

func (f *matchFixture) game(t *testing.T, round int, white, black *models.Player) *models.Match {
	t.Helper()
	m, err := f.svc.CreateMatch(context.Background(), f.tournament.ID, CreateMatchInput{
		RoundNumber: round, WhitePlayerID: white.ID, BlackPlayerID: black.ID,
	})
	require.NoError(t, err)
	return m
}

func (f *matchFixture) standing(t *testing.T, playerID int64) models.TournamentStanding {
	t.Helper()
	st, err := f.standingSvc.GetStanding(context.Background(), f.tournament.ID, playerID)
	require.NoError(t, err)
	return *st
}

func TestCreateMatch_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t)
	anna := f.p[0]

	_, err := f.svc.CreateMatch(ctx, f.tournament.ID, CreateMatchInput{RoundNumber: 1, WhitePlayerID: anna.ID, BlackPlayerID: anna.ID})
	require.ErrorIs(t, err, models.ErrSamePlayer)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)
	_, err = f.svc.CreateMatch(ctx, f.tournament.ID, CreateMatchInput{
		RoundNumber: 1, WhitePlayerID: anna.ID, BlackPlayerID: f.p[1].ID,
		ActualStartTime: &start, ActualEndTime: &end,
	})
	require.ErrorIs(t, err, models.ErrMatchTimes)

	_, err = f.svc.CreateMatch(ctx, f.tournament.ID, CreateMatchInput{RoundNumber: 0, WhitePlayerID: anna.ID, BlackPlayerID: f.p[1].ID})
	require.ErrorIs(t, err, models.ErrConstraint)

	_, err = f.svc.CreateMatch(ctx, f.tournament.ID, CreateMatchInput{RoundNumber: 1, WhitePlayerID: anna.ID, BlackPlayerID: 404})
	require.ErrorIs(t, err, models.ErrReference)
	v, _ := models.AsViolation(err)
	assert.Equal(t, "matches_black_player_id_fkey", v.Rule)

	count, err := f.matches.Count(ctx, nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecordResult_RecomputesStandingsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t)
	anna, boris, chen := f.p[0], f.p[1], f.p[2]

	g1 := f.game(t, 1, anna, boris)
	g2 := f.game(t, 2, chen, anna)
	assert.Equal(t, []string{EventMatchUpdated, EventMatchUpdated}, f.broadcaster.types())
	f.broadcaster.calls = nil

	_, err := f.svc.RecordResult(ctx, g1.ID, RecordResultInput{Result: models.ResultWhiteWins, MovesPGN: ptr("1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7#")})
	require.NoError(t, err)
	recorded, err := f.svc.RecordResult(ctx, g2.ID, RecordResultInput{Result: models.ResultDraw})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, recorded.Status)
	assert.NotNil(t, recorded.ActualEndTime)

	a := f.standing(t, anna.ID)
	assert.Equal(t, 1.5, a.Points)
	assert.Equal(t, 2, a.GamesPlayed)
	assert.Equal(t, [3]int{1, 1, 0}, [3]int{a.Wins, a.Draws, a.Losses})

	b := f.standing(t, boris.ID)
	assert.Equal(t, 0.0, b.Points)
	assert.Equal(t, 1, b.Losses)

	c := f.standing(t, chen.ID)
	assert.Equal(t, 0.5, c.Points)

	assert.Equal(t, []string{EventMatchUpdated, EventStandingsUpdated, EventMatchUpdated, EventStandingsUpdated}, f.broadcaster.types())
	assert.Equal(t, TournamentRoom(f.tournament.ID), f.broadcaster.calls[0].room)

	list, err := f.standingSvc.ListStandings(ctx, f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, anna.ID, list[0].PlayerID)
}

func TestRecordResult_RejectsUnfinished(t *testing.T) {
	f := newMatchFixture(t)
	g := f.game(t, 1, f.p[0], f.p[1])

	_, err := f.svc.RecordResult(context.Background(), g.ID, RecordResultInput{Result: models.ResultUnfinished})
	require.ErrorIs(t, err, models.ErrConstraint)

	_, err = f.svc.RecordResult(context.Background(), 999, RecordResultInput{Result: models.ResultDraw})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStandingsFollowCorrectionsAndDeletes(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t)
	anna, boris := f.p[0], f.p[1]
	g := f.game(t, 1, anna, boris)

	_, err := f.svc.RecordResult(ctx, g.ID, RecordResultInput{Result: models.ResultWhiteWins})
	require.NoError(t, err)
	first := f.standing(t, boris.ID)

	// An arbiter corrects the result.
	_, err = f.svc.UpdateMatch(ctx, g.ID, UpdateMatchInput{Result: ptr(models.ResultBlackWins)})
	require.NoError(t, err)
	corrected := f.standing(t, boris.ID)
	assert.Equal(t, 1.0, corrected.Points)
	assert.True(t, corrected.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, first.CreatedAt, corrected.CreatedAt)

	// Editing notes does not touch standings.
	upserts := f.standings.upserts
	_, err = f.svc.UpdateMatch(ctx, g.ID, UpdateMatchInput{Notes: ptr("time scramble")})
	require.NoError(t, err)
	assert.Equal(t, upserts, f.standings.upserts)

	require.NoError(t, f.svc.DeleteMatch(ctx, g.ID))
	assert.Equal(t, 0.0, f.standing(t, boris.ID).Points)
	assert.Equal(t, 0, f.standing(t, anna.ID).GamesPlayed)
}

func TestTallyScores(t *testing.T) {
	matches := []models.Match{
		{WhitePlayerID: 1, BlackPlayerID: 2, Result: models.ResultWhiteWins, Status: models.MatchCompleted},
		{WhitePlayerID: 2, BlackPlayerID: 3, Result: models.ResultDraw, Status: models.MatchCompleted},
		{WhitePlayerID: 3, BlackPlayerID: 1, Result: models.ResultBlackWins, Status: models.MatchCompleted},
		{WhitePlayerID: 1, BlackPlayerID: 4, Result: models.ResultUnfinished, Status: models.MatchInProgress},
		{WhitePlayerID: 5, BlackPlayerID: 1, Result: models.ResultWhiteWins, Status: models.MatchPostponed},
	}
	scores := tallyScores([]int64{1, 2, 3, 6}, matches)

	assert.Equal(t, score{points: 2, games: 2, wins: 2}, *scores[1])
	assert.Equal(t, score{points: 0.5, games: 2, draws: 1, losses: 1}, *scores[2])
	assert.Equal(t, score{points: 0.5, games: 2, draws: 1, losses: 1}, *scores[3])
	assert.Equal(t, score{}, *scores[6])
	assert.NotContains(t, scores, int64(4))
}

func TestUpdateStanding(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t)
	g := f.game(t, 1, f.p[0], f.p[1])
	_, err := f.svc.RecordResult(ctx, g.ID, RecordResultInput{Result: models.ResultDraw})
	require.NoError(t, err)

	st, err := f.standingSvc.UpdateStanding(ctx, f.tournament.ID, f.p[0].ID, UpdateStandingInput{
		BuchholzScore: ptr(3.5), FinalRank: ptr(1), PrizeAmount: ptr(500.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 3.5, st.BuchholzScore)

	_, err = f.standingSvc.UpdateStanding(ctx, f.tournament.ID, f.p[0].ID, UpdateStandingInput{SonnebornBerger: ptr(1.25)})
	require.ErrorIs(t, err, models.ErrConstraint)

	// Recalculation keeps tie-breaks and prize.
	list, err := f.standingSvc.RecalculateStandings(ctx, f.tournament.ID)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	again := f.standing(t, f.p[0].ID)
	assert.Equal(t, 3.5, again.BuchholzScore)
	assert.Equal(t, 500.0, again.PrizeAmount)
	assert.Equal(t, 0.5, again.Points)
}

func TestGetPlayerStatistics(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t)
	anna, boris, chen := f.p[0], f.p[1], f.p[2]
	for _, pair := range []struct {
		w, b   *models.Player
		result models.MatchResult
	}{
		{anna, boris, models.ResultWhiteWins},
		{chen, anna, models.ResultWhiteWins},
		{anna, chen, models.ResultDraw},
		{boris, anna, models.ResultBlackWins},
	} {
		g := f.game(t, 1, pair.w, pair.b)
		_, err := f.svc.RecordResult(ctx, g.ID, RecordResultInput{Result: pair.result})
		require.NoError(t, err)
	}
	f.game(t, 2, anna, boris)

	stats, err := f.svc.GetPlayerStatistics(ctx, anna.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalGames)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 2.5, stats.TotalPoints)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, 1, stats.TournamentsPlayed)

	_, err = f.svc.GetPlayerStatistics(ctx, 404, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
